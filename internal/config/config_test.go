package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tally.db", cfg.DBPath)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 5*time.Millisecond, cfg.BackoffBase)
	assert.Equal(t, 10, cfg.CompensationAttempts)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TALLY_DB_PATH", "/var/lib/tally/ledger.db")
	t.Setenv("TALLY_MAX_ATTEMPTS", "8")
	t.Setenv("TALLY_BACKOFF_BASE", "20ms")
	t.Setenv("TALLY_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/tally/ledger.db", cfg.DBPath)
	assert.Equal(t, 8, cfg.MaxAttempts)
	assert.Equal(t, 20*time.Millisecond, cfg.BackoffBase)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero max attempts", "TALLY_MAX_ATTEMPTS", "0"},
		{"negative backoff", "TALLY_BACKOFF_BASE", "-1ms"},
		{"zero compensation attempts", "TALLY_COMPENSATION_ATTEMPTS", "0"},
		{"unknown log level", "TALLY_LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidateEmptyDBPath(t *testing.T) {
	cfg := Config{DBPath: "", MaxAttempts: 5, BackoffBase: time.Millisecond, CompensationAttempts: 10, LogLevel: "info"}
	assert.Error(t, cfg.Validate())
}
