package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/config"
	"github.com/roach88/tally/internal/engine"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Demo bool
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions, cfg config.Config) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the ledger database",
		Long: `Initialize the ledger database, creating the schema if needed.

With --demo, seed two demo accounts (alice with 1000, bob with 500).
Seeding is idempotent: existing owners are left untouched.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts, cfg)
		},
	}

	cmd.Flags().BoolVar(&opts.Demo, "demo", false, "seed demo accounts")

	return cmd
}

func runInit(cmd *cobra.Command, opts *InitOptions, cfg config.Config) error {
	ctx := cmd.Context()
	f := formatter(opts.RootOptions, cmd)

	a, err := openApp(ctx, opts.RootOptions, cfg)
	if err != nil {
		f.Error(err)
		return err
	}
	defer a.Close()

	if !opts.Demo {
		return f.Success(fmt.Sprintf("initialized %s", opts.DBPath))
	}

	created, err := a.engine.Seed(ctx, engine.DemoAccounts())
	if err != nil {
		f.Error(err)
		return err
	}

	f.VerboseLog("seeded %d account(s)", len(created))
	if opts.Format == "json" {
		views := make([]accountView, len(created))
		for i, acc := range created {
			views[i] = viewAccount(acc)
		}
		return f.Success(views)
	}
	if len(created) == 0 {
		return f.Success("demo accounts already present")
	}
	return f.Success(fmt.Sprintf("initialized %s with %d demo account(s)", opts.DBPath, len(created)))
}
