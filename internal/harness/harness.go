// Package harness executes YAML conformance scenarios against the real
// ledger engine over a temporary store. Deterministic correlation ids,
// timestamps, and seq values make traces byte-identical across runs, so
// golden files can pin expected behavior.
package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/tally/internal/engine"
	"github.com/roach88/tally/internal/ledger"
	"github.com/roach88/tally/internal/store"
	"github.com/roach88/tally/internal/testutil"
)

// TraceEvent records one executed step and its observed outcome.
type TraceEvent struct {
	Step          int    `json:"step"`
	Op            string `json:"op"`
	Account       string `json:"account,omitempty"`
	From          string `json:"from,omitempty"`
	To            string `json:"to,omitempty"`
	Amount        string `json:"amount"`
	Outcome       string `json:"outcome"`
	Balance       string `json:"balance,omitempty"`
	FromBalance   string `json:"from_balance,omitempty"`
	ToBalance     string `json:"to_balance,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Result is the outcome of running a scenario.
type Result struct {
	Trace    []TraceEvent
	Balances map[string]string // owner -> final balance
}

// Run executes a scenario against a fresh store in a temp directory.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "tally-harness-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	s, err := store.Open(filepath.Join(dir, "scenario.db"))
	if err != nil {
		return nil, fmt.Errorf("open scenario store: %w", err)
	}
	defer s.Close()

	e := engine.New(s, s,
		engine.WithBackoffBase(time.Microsecond),
		engine.WithCorrelationGenerator(&engine.SequentialGenerator{}),
		engine.WithNow(testutil.SteppingNow(testutil.BaseTime, time.Second)),
	)
	ctx := context.Background()

	// Seed initial accounts; ids are random, so the trace references owners
	ids := make(map[string]string, len(scenario.Accounts))
	for _, spec := range scenario.Accounts {
		// Initial balances may be zero, unlike operation amounts
		initial, err := decimal.NewFromString(spec.Balance)
		if err != nil {
			return nil, fmt.Errorf("account %q: bad balance %q: %w", spec.Owner, spec.Balance, err)
		}
		acc, err := e.Register(ctx, spec.Owner, initial)
		if err != nil {
			return nil, fmt.Errorf("register %q: %w", spec.Owner, err)
		}
		ids[spec.Owner] = acc.ID
	}

	result := &Result{Balances: make(map[string]string)}

	for i, step := range scenario.Flow {
		event, err := runStep(ctx, e, ids, i+1, step)
		if err != nil {
			return nil, fmt.Errorf("flow[%d]: %w", i, err)
		}
		result.Trace = append(result.Trace, event)
	}

	for owner, id := range ids {
		acc, err := s.GetAccount(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("final balance for %q: %w", owner, err)
		}
		result.Balances[owner] = ledger.FormatAmount(acc.Balance)
	}

	return result, nil
}

// runStep executes one flow step. Business rejections become trace outcomes;
// infrastructure errors abort the run.
func runStep(ctx context.Context, e *engine.Engine, ids map[string]string, n int, step Step) (TraceEvent, error) {
	amount, amtErr := ledger.ParseAmount(step.Amount)

	event := TraceEvent{
		Step:   n,
		Op:     step.Op,
		Amount: step.Amount,
	}

	resolve := func(owner string) (string, bool) {
		id, ok := ids[owner]
		return id, ok
	}

	switch step.Op {
	case "deposit", "withdraw":
		event.Account = step.Account
		id, known := resolve(step.Account)
		if !known {
			// Route unknown owners through the engine so the trace captures
			// the real not_found behavior
			id = "unknown-" + step.Account
		}
		if amtErr != nil {
			event.Outcome = OutcomeValidation
			return event, nil
		}

		var res engine.Result
		var err error
		if step.Op == "deposit" {
			res, err = e.Deposit(ctx, id, amount)
		} else {
			res, err = e.Withdraw(ctx, id, amount)
		}
		if err != nil {
			event.Outcome = outcomeFor(err)
			if event.Outcome == "" {
				return event, err
			}
			return event, nil
		}
		event.Outcome = OutcomeOK
		event.Balance = ledger.FormatAmount(res.Account.Balance)
		event.CorrelationID = res.Record.CorrelationID
		return event, nil

	case "transfer":
		event.From = step.From
		event.To = step.To
		fromID, known := resolve(step.From)
		if !known {
			fromID = "unknown-" + step.From
		}
		toID, known := resolve(step.To)
		if !known {
			toID = "unknown-" + step.To
		}
		if amtErr != nil {
			event.Outcome = OutcomeValidation
			return event, nil
		}

		res, err := e.Transfer(ctx, fromID, toID, amount)
		if err != nil {
			event.Outcome = outcomeFor(err)
			if event.Outcome == "" {
				return event, err
			}
			return event, nil
		}
		event.Outcome = OutcomeOK
		event.FromBalance = ledger.FormatAmount(res.From.Balance)
		event.ToBalance = ledger.FormatAmount(res.To.Balance)
		event.CorrelationID = res.CorrelationID
		return event, nil

	default:
		return event, fmt.Errorf("unknown op %q", step.Op)
	}
}

// outcomeFor maps a business rejection to its trace outcome. Returns "" for
// errors that should abort the scenario instead.
func outcomeFor(err error) string {
	switch {
	case ledger.IsValidation(err):
		return OutcomeValidation
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return OutcomeInsufficientFunds
	case errors.Is(err, ledger.ErrSelfTransfer):
		return OutcomeSelfTransfer
	case errors.Is(err, ledger.ErrRecipientNotFound):
		return OutcomeRecipientNotFound
	case errors.Is(err, ledger.ErrArchived):
		return OutcomeArchived
	case errors.Is(err, ledger.ErrNotFound):
		return OutcomeNotFound
	default:
		return ""
	}
}

// CheckScenario verifies the result against the scenario's expectations.
// Returns a list of human-readable failures; empty means the scenario passed.
func CheckScenario(scenario *Scenario, result *Result) []string {
	var failures []string

	for i, step := range scenario.Flow {
		if i >= len(result.Trace) {
			failures = append(failures, fmt.Sprintf("flow[%d]: no trace event", i))
			continue
		}
		got := result.Trace[i].Outcome
		if want := step.expected(); got != want {
			failures = append(failures, fmt.Sprintf("flow[%d] %s: outcome %q, expected %q", i, step.Op, got, want))
		}
	}

	for owner, want := range scenario.FinalBalances {
		got, ok := result.Balances[owner]
		if !ok {
			failures = append(failures, fmt.Sprintf("final balance: unknown owner %q", owner))
			continue
		}
		if got != want {
			failures = append(failures, fmt.Sprintf("final balance for %q: %s, expected %s", owner, got, want))
		}
	}

	return failures
}
