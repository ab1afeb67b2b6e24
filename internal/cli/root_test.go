package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tally/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		DBPath:               "tally.db",
		MaxAttempts:          5,
		BackoffBase:          time.Microsecond,
		CompensationAttempts: 10,
		LogLevel:             "error",
	}
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(testConfig())
	require.NotNil(t, cmd)
	assert.Equal(t, "tally", cmd.Use)
	assert.Contains(t, cmd.Long, "ledger")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(testConfig())
	commands := []string{"init", "register", "deposit", "withdraw", "transfer", "balance", "history", "reconcile"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand(testConfig())

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "tally.db", dbFlag.DefValue, "db flag defaults from config")

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestHistoryCommandFlags(t *testing.T) {
	cmd := NewRootCommand(testConfig())
	historyCmd, _, err := cmd.Find([]string{"history"})
	require.NoError(t, err)

	limitFlag := historyCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "20", limitFlag.DefValue)

	cursorFlag := historyCmd.Flags().Lookup("cursor")
	require.NotNil(t, cursorFlag)
}

func TestInitCommandFlags(t *testing.T) {
	cmd := NewRootCommand(testConfig())
	initCmd, _, err := cmd.Find([]string{"init"})
	require.NoError(t, err)

	demoFlag := initCmd.Flags().Lookup("demo")
	require.NotNil(t, demoFlag)
	assert.Equal(t, "false", demoFlag.DefValue)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand(testConfig())
	cmd.SetArgs([]string{"--format", "invalid", "init"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
