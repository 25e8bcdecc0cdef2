package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the console gateway
type Config struct {
	// HTTP Configuration
	HTTP HTTPConfig

	// Backend RPC Configuration
	Backend BackendConfig

	// Session Configuration
	Session SessionConfig

	// Auth gate Configuration
	Auth AuthConfig

	// Redis Configuration
	Redis RedisConfig

	// Logging Configuration
	Logging LoggingConfig
}

// HTTPConfig holds the console listener configuration
type HTTPConfig struct {
	Addr           string   `env:"CONSOLE_ADDR" envDefault:":8090"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
}

// BackendConfig holds the marketplace backend configuration
type BackendConfig struct {
	URL     string        `env:"BACKEND_URL" envDefault:"http://localhost:8091"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
}

// SessionConfig holds browser session configuration
type SessionConfig struct {
	CookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"fd_session"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	IdleTTL      time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	TokenStore   string        `env:"TOKEN_STORE" envDefault:"memory"` // memory, redis
}

// AuthConfig holds the gate's timing and routing knobs
type AuthConfig struct {
	QueryRetries       int           `env:"QUERY_RETRIES" envDefault:"1"`
	LoginSettleDelay   time.Duration `env:"LOGIN_SETTLE_DELAY" envDefault:"250ms"`
	GuardSettleTimeout time.Duration `env:"GUARD_SETTLE_TIMEOUT" envDefault:"3s"`
	IdentityHeader     string        `env:"IDENTITY_HEADER" envDefault:"X-Forwarded-Email"`
	LoginPath          string        `env:"LOGIN_PATH" envDefault:"/login"`
	DashboardPath      string        `env:"DASHBOARD_PATH" envDefault:"/admin/dashboard"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"` // Redis address (host:port)
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.TokenStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid TOKEN_STORE %q, must be one of: memory, redis", c.Session.TokenStore)
	}

	if c.Backend.URL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}

	if c.Auth.QueryRetries < 0 {
		return fmt.Errorf("QUERY_RETRIES must not be negative")
	}

	if c.Session.IdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}

	return nil
}

// DevBackendConfig holds configuration for the local development backend
type DevBackendConfig struct {
	Addr      string        `env:"DEVBACKEND_ADDR" envDefault:":8091"`
	Database  string        `env:"DEVBACKEND_DATABASE" envDefault:"freightdesk-dev.db"`
	JWTSecret string        `env:"DEVBACKEND_JWT_SECRET"`
	TokenTTL  time.Duration `env:"DEVBACKEND_TOKEN_TTL" envDefault:"12h"`
	SeedFile  string        `env:"DEVBACKEND_SEED_FILE"`

	Logging LoggingConfig
}

// LoadDevBackend loads the development backend configuration
func LoadDevBackend() (*DevBackendConfig, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	var cfg DevBackendConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("DEVBACKEND_TOKEN_TTL must be positive")
	}

	return &cfg, nil
}
