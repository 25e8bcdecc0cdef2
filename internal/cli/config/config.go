package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

const ConfigFileName = "freightdesk.json"

// Environment is a marketplace backend the CLI can talk to
type Environment struct {
	Alias      string `json:"alias"`
	BackendURL string `json:"backend_url"`
}

// Validate checks that the environment is usable
func (e *Environment) Validate() error {
	if e.Alias == "" {
		return fmt.Errorf("environment alias is empty")
	}
	u, err := url.Parse(e.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("environment %q has an invalid backend_url %q", e.Alias, e.BackendURL)
	}
	return nil
}

// Tracking configures the live-location reporter
type Tracking struct {
	TransporterID string `json:"transporter_id"`
	FixFile       string `json:"fix_file"`
	Interval      string `json:"interval,omitempty"` // Go duration, e.g. "30s"
}

// Config represents the CLI configuration file
type Config struct {
	Environments []Environment `json:"environments"`
	Tracking     *Tracking     `json:"tracking,omitempty"`
}

// DefaultConfig returns a configuration pointing at a local development backend
func DefaultConfig() *Config {
	return &Config{
		Environments: []Environment{
			{
				Alias:      "local",
				BackendURL: "http://localhost:8091",
			},
		},
	}
}

// FindConfigFile searches for freightdesk.json in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	// Search upwards until we find freightdesk.json or reach root
	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Environments))
	for i := range cfg.Environments {
		env := &cfg.Environments[i]
		if err := env.Validate(); err != nil {
			return nil, err
		}
		if seen[env.Alias] {
			return nil, fmt.Errorf("duplicate environment alias %q", env.Alias)
		}
		seen[env.Alias] = true
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetEnvironmentByAlias returns an environment by its alias
func (c *Config) GetEnvironmentByAlias(alias string) (*Environment, error) {
	for i := range c.Environments {
		if c.Environments[i].Alias == alias {
			return &c.Environments[i], nil
		}
	}
	return nil, fmt.Errorf("environment with alias '%s' not found", alias)
}
