package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/config"
)

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(rootOpts *RootOptions, cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance <account>",
		Short: "Show an account balance",
		Long: `Show an account's current balance and metadata.

Archived accounts remain queryable.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBalance(cmd, rootOpts, cfg, args[0])
		},
	}
	return cmd
}

func runBalance(cmd *cobra.Command, opts *RootOptions, cfg config.Config, ref string) error {
	ctx := cmd.Context()
	f := formatter(opts, cmd)

	a, err := openApp(ctx, opts, cfg)
	if err != nil {
		f.Error(err)
		return err
	}
	defer a.Close()

	acc, err := a.resolveAccount(ctx, ref)
	if err != nil {
		f.Error(err)
		return err
	}

	bal, err := a.reader.Balance(ctx, acc.ID)
	if err != nil {
		f.Error(err)
		return err
	}

	return f.Success(viewAccount(bal.Account))
}
