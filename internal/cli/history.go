package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/config"
	"github.com/roach88/tally/internal/ledger"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit  int
	Cursor string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions, cfg config.Config) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <account>",
		Short: "Show an account's transaction history",
		Long: `Show an account's transaction history, most recent first.

Pages are bounded by --limit; when more history remains, the output carries
an opaque cursor to pass back via --cursor.

Example:
  tally history alice --limit 20`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, cfg, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum records per page")
	cmd.Flags().StringVar(&opts.Cursor, "cursor", "", "resume from a previous page's cursor")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions, cfg config.Config, ref string) error {
	ctx := cmd.Context()
	f := formatter(opts.RootOptions, cmd)

	cursor, err := ledger.DecodeCursor(opts.Cursor)
	if err != nil {
		f.Error(err)
		return err
	}

	a, err := openApp(ctx, opts.RootOptions, cfg)
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

	page, err := a.reader.History(ctx, acc.ID, cursor, opts.Limit)
	if err != nil {
		f.Error(err)
		return err
	}

	return f.Success(viewHistory(acc.ID, page))
}
