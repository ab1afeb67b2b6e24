// Package cli is the operator surface over the in-process ledger engine:
// account registration, deposits, withdrawals, transfers, balance and history
// queries, and reconciliation.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath  string
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the tally CLI. Environment
// configuration provides flag defaults; flags win when set.
func NewRootCommand(cfg config.Config) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tally",
		Short: "tally - transactional ledger",
		Long:  "A durable transactional ledger: accounts, an append-only transaction log, and atomic transfers with compensation.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(cfg.LogLevel, opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", cfg.DBPath, "path to the ledger database")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewInitCommand(opts, cfg))
	cmd.AddCommand(NewRegisterCommand(opts, cfg))
	cmd.AddCommand(NewDepositCommand(opts, cfg))
	cmd.AddCommand(NewWithdrawCommand(opts, cfg))
	cmd.AddCommand(NewTransferCommand(opts, cfg))
	cmd.AddCommand(NewBalanceCommand(opts, cfg))
	cmd.AddCommand(NewHistoryCommand(opts, cfg))
	cmd.AddCommand(NewReconcileCommand(opts, cfg))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// configureLogging routes slog to stderr at the configured level so log lines
// never mix into command output. --verbose forces debug.
func configureLogging(level string, verbose bool) {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
