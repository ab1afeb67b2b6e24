package cli

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/config"
	"github.com/roach88/tally/internal/ledger"
)

// RegisterOptions holds flags for the register command.
type RegisterOptions struct {
	*RootOptions
	Initial string
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions, cfg config.Config) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register <owner>",
		Short: "Register a new account",
		Long: `Register a new account for an owner reference.

The owner reference must be 3 to 80 characters and unique. The optional
initial balance is granted at creation without a transaction record.

Example:
  tally register alice --initial 1000`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, opts, cfg, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Initial, "initial", "0", "initial balance")

	return cmd
}

func runRegister(cmd *cobra.Command, opts *RegisterOptions, cfg config.Config, owner string) error {
	ctx := cmd.Context()
	f := formatter(opts.RootOptions, cmd)

	initial, err := decimal.NewFromString(opts.Initial)
	if err != nil {
		err = ledger.NewValidationError("initial", "must be a decimal number")
		f.Error(err)
		return err
	}

	a, err := openApp(ctx, opts.RootOptions, cfg)
	if err != nil {
		f.Error(err)
		return err
	}
	defer a.Close()

	acc, err := a.engine.Register(ctx, owner, initial)
	if err != nil {
		f.Error(err)
		return err
	}

	return f.Success(viewAccount(acc))
}
