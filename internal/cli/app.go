package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/config"
	"github.com/roach88/tally/internal/engine"
	"github.com/roach88/tally/internal/ledger"
	"github.com/roach88/tally/internal/query"
	"github.com/roach88/tally/internal/store"
)

// app bundles the wired components a command needs. Close releases the store.
type app struct {
	store  *store.Store
	engine *engine.Engine
	reader *query.Reader
}

func (a *app) Close() error {
	return a.store.Close()
}

// openApp opens the ledger database and wires the engine and reader. The
// logical clock resumes past the highest stored seq so record ordering stays
// strictly increasing across process restarts.
func openApp(ctx context.Context, opts *RootOptions, cfg config.Config) (*app, error) {
	s, err := store.Open(opts.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("open database %s", opts.DBPath), err)
	}

	maxSeq, err := s.MaxSeq(ctx)
	if err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "read log state", err)
	}

	e := engine.New(s, s,
		engine.WithMaxAttempts(cfg.MaxAttempts),
		engine.WithBackoffBase(cfg.BackoffBase),
		engine.WithCompensationAttempts(cfg.CompensationAttempts),
		engine.WithClock(engine.NewClockAt(maxSeq)),
	)

	return &app{
		store:  s,
		engine: e,
		reader: query.NewReader(s, s),
	}, nil
}

// resolveAccount accepts either an account id or an owner reference and
// returns the account. Ids are tried first; owner lookup covers the common
// human-friendly case.
func (a *app) resolveAccount(ctx context.Context, ref string) (ledger.Account, error) {
	acc, err := a.store.GetAccount(ctx, ref)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, ledger.ErrNotFound) {
		return ledger.Account{}, err
	}

	canonical, nerr := ledger.ValidateOwner(ref)
	if nerr != nil {
		// Not a valid owner reference either; report the original miss
		return ledger.Account{}, err
	}
	return a.store.GetAccountByOwner(ctx, canonical)
}

// drainPending flushes any appends that degraded during this invocation.
// The CLI is a short-lived process, so the background retry loop collapses
// into a bounded drain before exit.
func (a *app) drainPending(ctx context.Context) {
	if a.engine.PendingAppends() == 0 {
		return
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.engine.Run(ctx)
	}()
	a.engine.Stop()
	<-done
}

// formatter builds the OutputFormatter for a command invocation.
func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
