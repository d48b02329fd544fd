package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config carries all runtime settings; every field is read from the
// environment with sane defaults for local development.
type Config struct {
	HTTPAddr    string `env:"CITYASSIST_HTTP_ADDR" env-default:":8080"`
	DatabaseDSN string `env:"CITYASSIST_PG_DSN" env-default:""`

	JWTSecret        string `env:"CITYASSIST_JWT_SECRET" env-default:"change-me-please-very-secret"`
	AccessTTLMinutes int    `env:"CITYASSIST_ACCESS_TTL_MIN" env-default:"30"`
	RefreshTTLDays   int    `env:"CITYASSIST_REFRESH_TTL_DAYS" env-default:"14"`

	AdminEmail    string `env:"CITYASSIST_ADMIN_EMAIL" env-default:"admin@cityassist.local"`
	AdminPassword string `env:"CITYASSIST_ADMIN_PASSWORD" env-default:"pass123"`

	AIBaseURL        string `env:"CITYASSIST_AI_BASE_URL" env-default:""`
	AITimeoutSeconds int    `env:"CITYASSIST_AI_TIMEOUT_SEC" env-default:"5"`

	RateLimitPerSec int   `env:"CITYASSIST_RATE_LIMIT_PER_SEC" env-default:"20"`
	RateLimitBurst  int   `env:"CITYASSIST_RATE_LIMIT_BURST" env-default:"40"`
	MaxBodyBytes    int64 `env:"CITYASSIST_MAX_BODY_BYTES" env-default:"1048576"`

	MigrationsDir string `env:"CITYASSIST_MIGRATIONS_DIR" env-default:"migrations"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if cfg.AccessTTLMinutes <= 0 {
		return nil, fmt.Errorf("access token TTL must be positive, got %d", cfg.AccessTTLMinutes)
	}
	if cfg.RefreshTTLDays <= 0 {
		return nil, fmt.Errorf("refresh token TTL must be positive, got %d", cfg.RefreshTTLDays)
	}
	return &cfg, nil
}

// AccessTTL returns the access token lifetime as a duration.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMinutes) * time.Minute
}

// RefreshTTL returns the refresh token lifetime as a duration.
func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}

// AITimeout returns the remote model call timeout.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}
