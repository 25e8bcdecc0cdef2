package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/freightdesk/console/internal/backend"
	"github.com/freightdesk/console/internal/cli/config"
	"github.com/freightdesk/console/internal/cli/envselect"
	"github.com/freightdesk/console/internal/logger"
)

const backendTimeout = 15 * time.Second

// getEnvironment loads the config and returns the environment to use.
// This is common logic used by most commands.
func getEnvironment(alias string) (*config.Environment, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'freightdesk init' to create a configuration file", err)
	}

	return envselect.ResolveEnvironment(cfg, alias)
}

func newBackendClient(env *config.Environment) *backend.Client {
	return backend.New(env.BackendURL, backendTimeout)
}

func newLogger(verbose bool) zerolog.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.New(os.Stderr, level, "console")
}
