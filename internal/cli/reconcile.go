package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/config"
	"github.com/roach88/tally/internal/ledger"
)

// driftView is the JSON/text projection of a reconciliation result.
type driftView struct {
	AccountID string `json:"account_id"`
	Actual    string `json:"actual"`
	Expected  string `json:"expected"`
	Drift     string `json:"drift"`
	Clean     bool   `json:"clean"`
}

func (v driftView) String() string {
	if v.Clean {
		return fmt.Sprintf("%s: consistent (balance %s)", v.AccountID, v.Actual)
	}
	return fmt.Sprintf("%s: DRIFT %s (balance %s, log implies %s)", v.AccountID, v.Drift, v.Actual, v.Expected)
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions, cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile <account>",
		Short: "Check an account balance against its transaction log",
		Long: `Compare an account's stored balance against the signed sum of its
transaction log. Drift indicates a log append that never landed (for
example, a crash between balance commit and append) and needs operator
attention.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, rootOpts, cfg, args[0])
		},
	}
	return cmd
}

func runReconcile(cmd *cobra.Command, opts *RootOptions, cfg config.Config, ref string) error {
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

	drift, err := a.store.Reconcile(ctx, acc.ID)
	if err != nil {
		f.Error(err)
		return err
	}

	view := driftView{
		AccountID: drift.AccountID,
		Actual:    ledger.FormatAmount(drift.Actual),
		Expected:  ledger.FormatAmount(drift.Expected),
		Drift:     ledger.FormatAmount(drift.Amount()),
		Clean:     drift.Amount().IsZero(),
	}
	if err := f.Success(view); err != nil {
		return err
	}
	if !view.Clean {
		return WrapExitError(ExitInconsistent, "ledger drift detected", nil)
	}
	return nil
}
