package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/freightdesk/console/internal/assert"
	"github.com/freightdesk/console/internal/config"
	"github.com/freightdesk/console/internal/devbackend"
	"github.com/freightdesk/console/internal/logger"
)

func main() {
	cfg, err := config.LoadDevBackend()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	secret := cfg.JWTSecret
	if secret == "" {
		// Tokens issued before a restart stop validating, like a revoked session.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			log.Fatal().Err(err).Msg("Failed to generate JWT secret")
		}
		secret = hex.EncodeToString(buf)
		assert.Length(secret, 64)
		log.Warn().Msg("DEVBACKEND_JWT_SECRET not set, using a random secret")
	}

	tokens, err := devbackend.NewTokens(secret, cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tokens")
	}

	db, err := devbackend.OpenDatabase(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}

	seed, err := devbackend.LoadSeedFile(cfg.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load seed")
	}
	if err := seed.Apply(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply seed")
	}

	srv := devbackend.New(db, tokens, log)
	if err := srv.Start(cfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("Development backend failed")
	}
}
