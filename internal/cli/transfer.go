package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/config"
	"github.com/roach88/tally/internal/ledger"
)

// NewTransferCommand creates the transfer command.
func NewTransferCommand(rootOpts *RootOptions, cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer <from> <to> <amount>",
		Short: "Transfer funds between accounts",
		Long: `Transfer funds from one account to another.

Emits a linked pair of transaction records sharing one correlation id. If the
credit fails after the debit has committed, the source is automatically
credited back.

Example:
  tally transfer alice bob 300`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(cmd, rootOpts, cfg, args[0], args[1], args[2])
		},
	}
	return cmd
}

func runTransfer(cmd *cobra.Command, opts *RootOptions, cfg config.Config, fromRef, toRef, rawAmount string) error {
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

	from, err := a.resolveAccount(ctx, fromRef)
	if err != nil {
		f.Error(err)
		return err
	}
	to, err := a.resolveAccount(ctx, toRef)
	if err != nil {
		f.Error(err)
		return err
	}

	res, err := a.engine.Transfer(ctx, from.ID, to.ID, amount)
	if err != nil {
		f.Error(err)
		return err
	}
	a.drainPending(ctx)

	return f.Success(transferView{
		CorrelationID: res.CorrelationID,
		From:          viewAccount(res.From),
		To:            viewAccount(res.To),
		Amount:        ledger.FormatAmount(amount),
		LogPending:    res.LogPending,
	})
}
