// Package config loads daemon and CLI defaults from the environment.
// Every field can still be overridden by a flag; the environment sets the
// baseline (TALLY_DB_PATH, TALLY_MAX_ATTEMPTS, ...).
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the runtime configuration.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `envconfig:"DB_PATH" default:"tally.db"`

	// MaxAttempts bounds conflict retries per balance adjustment.
	MaxAttempts int `envconfig:"MAX_ATTEMPTS" default:"5"`

	// BackoffBase is the first conflict-retry delay; it doubles per attempt.
	BackoffBase time.Duration `envconfig:"BACKOFF_BASE" default:"5ms"`

	// CompensationAttempts bounds the credit-back loop of a failed transfer.
	CompensationAttempts int `envconfig:"COMPENSATION_ATTEMPTS" default:"10"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from TALLY_* environment variables, applying
// defaults for anything unset.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("tally", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: db path must not be empty")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("config: max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.BackoffBase <= 0 {
		return fmt.Errorf("config: backoff base must be positive, got %s", c.BackoffBase)
	}
	if c.CompensationAttempts < 1 {
		return fmt.Errorf("config: compensation attempts must be at least 1, got %d", c.CompensationAttempts)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	return nil
}
