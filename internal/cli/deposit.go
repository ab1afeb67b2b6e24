package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/config"
	"github.com/roach88/tally/internal/engine"
	"github.com/roach88/tally/internal/ledger"
)

// NewDepositCommand creates the deposit command.
func NewDepositCommand(rootOpts *RootOptions, cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit <account> <amount>",
		Short: "Deposit funds into an account",
		Long: `Deposit funds into an account.

The account may be given as an account id or an owner reference. The amount
must be a positive decimal with at most two fractional digits.

Example:
  tally deposit alice 250.00`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutation(cmd, rootOpts, cfg, args[0], args[1], ledger.KindDeposit)
		},
	}
	return cmd
}

// NewWithdrawCommand creates the withdraw command.
func NewWithdrawCommand(rootOpts *RootOptions, cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw <account> <amount>",
		Short: "Withdraw funds from an account",
		Long: `Withdraw funds from an account.

Fails with an insufficient funds error when the balance would go negative;
nothing is logged in that case.

Example:
  tally withdraw alice 40.00`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutation(cmd, rootOpts, cfg, args[0], args[1], ledger.KindWithdraw)
		},
	}
	return cmd
}

func runMutation(cmd *cobra.Command, opts *RootOptions, cfg config.Config, ref, rawAmount string, kind ledger.Kind) error {
	ctx := cmd.Context()
	f := formatter(opts, cmd)

	amount, err := ledger.ParseAmount(rawAmount)
	if err != nil {
		f.Error(err)
		return err
	}

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

	var res engine.Result
	if kind == ledger.KindDeposit {
		res, err = a.engine.Deposit(ctx, acc.ID, amount)
	} else {
		res, err = a.engine.Withdraw(ctx, acc.ID, amount)
	}
	if err != nil {
		f.Error(err)
		return err
	}
	a.drainPending(ctx)

	return f.Success(mutationView{
		Account:    viewAccount(res.Account),
		Record:     viewRecord(res.Record),
		LogPending: res.LogPending,
	})
}
