package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/freightdesk/console/internal/cli/config"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "init <backend-url>",
		Short: "Add a marketplace backend to freightdesk.json",
		Long: `Creates ./freightdesk.json, or adds an environment to it.

Examples:
  $ freightdesk init http://localhost:8091
  $ freightdesk init https://api.freightdesk.example --alias production`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			currentDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current directory: %w", err)
			}
			return runInit(filepath.Join(currentDir, config.ConfigFileName), args[0], alias)
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Environment alias (defaults to env-N)")

	return cmd
}

func runInit(configPath, backendURL, alias string) error {
	backendURL = strings.TrimRight(backendURL, "/")

	var cfg *config.Config
	isNewConfig := false

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Println("Found existing freightdesk.json")
	} else {
		cfg = &config.Config{Environments: []config.Environment{}}
		isNewConfig = true
	}

	for _, env := range cfg.Environments {
		if env.BackendURL == backendURL {
			fmt.Printf("Environment %s (%s) already exists in freightdesk.json\n", env.Alias, backendURL)
			return nil
		}
		if alias != "" && env.Alias == alias {
			return fmt.Errorf("environment alias %q is already used for %s", alias, env.BackendURL)
		}
	}

	if alias == "" {
		alias = fmt.Sprintf("env-%d", len(cfg.Environments)+1)
	}

	env := config.Environment{Alias: alias, BackendURL: backendURL}
	if err := env.Validate(); err != nil {
		return err
	}
	cfg.Environments = append(cfg.Environments, env)

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if isNewConfig {
		fmt.Printf("✓ Created ./freightdesk.json with environment %s (%s)\n", alias, backendURL)
	} else {
		fmt.Printf("✓ Added environment %s (%s) to ./freightdesk.json\n", alias, backendURL)
	}

	fmt.Println("\nNext steps:")
	fmt.Println("  Run 'freightdesk check-login' to confirm your admin account")

	return nil
}
