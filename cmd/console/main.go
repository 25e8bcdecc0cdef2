package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freightdesk/console/internal/backend"
	"github.com/freightdesk/console/internal/config"
	"github.com/freightdesk/console/internal/identity"
	"github.com/freightdesk/console/internal/logger"
	"github.com/freightdesk/console/internal/server"
	"github.com/freightdesk/console/internal/session"
	"github.com/freightdesk/console/internal/tokenstore"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	client := backend.New(cfg.Backend.URL, cfg.Backend.Timeout)

	slots := session.MemorySlots()
	if cfg.Session.TokenStore == "redis" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Address).Msg("Failed to connect to Redis")
		}

		slots = func(sessionID string) tokenstore.Slot {
			return tokenstore.NewRedisSlot(rdb, sessionID, cfg.Session.IdleTTL)
		}
	}

	sessions := session.NewManager(session.Options{
		Gateway:   client,
		Directory: client,
		Slots:     slots,
		IdleTTL:   cfg.Session.IdleTTL,
		Retries:   cfg.Auth.QueryRetries,
		Logger:    log,
	})

	srv := server.New(cfg, log, server.Deps{
		Sessions:    sessions,
		Identity:    identity.NewHeaderProvider(cfg.Auth.IdentityHeader),
		Marketplace: client,
	}, version)

	log.Info().
		Str("version", version).
		Str("backend", cfg.Backend.URL).
		Str("token_store", cfg.Session.TokenStore).
		Msg("Starting freightdesk console...")

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
