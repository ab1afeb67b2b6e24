package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/tally/internal/ledger"
)

// Defaults for the retry and compensation budgets.
const (
	// DefaultMaxAttempts bounds conflict retries per adjustment.
	DefaultMaxAttempts = 5

	// DefaultBackoffBase is the first conflict-retry delay; it doubles per
	// attempt.
	DefaultBackoffBase = 5 * time.Millisecond

	// DefaultCompensationAttempts bounds the credit-back loop of a failed
	// transfer before escalating to a ledger inconsistency.
	DefaultCompensationAttempts = 10
)

// Engine orchestrates atomic multi-account operations over the account store
// and transaction log. Operations are synchronous from the caller's
// perspective; no in-process exclusive lock is held across store I/O - the
// only contention window is the store's own version-guarded Adjust.
//
// Mutating operations stop honoring cancellation once the first balance has
// durably changed: from that point the operation runs to completion (commit
// or compensate) so money is never lost to a cancelled context.
type Engine struct {
	accounts ledger.AccountStore
	log      ledger.TransactionLog
	clock    *Clock
	corrGen  CorrelationGenerator
	now      func() time.Time

	maxAttempts          int
	backoffBase          time.Duration
	compensationAttempts int

	pending *appendQueue
}

// Option configures engine parameters.
type Option func(*Engine)

// WithMaxAttempts sets the conflict-retry budget per adjustment.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) { e.maxAttempts = n }
}

// WithBackoffBase sets the first conflict-retry delay.
// Use a very small value in tests to keep retry paths fast.
func WithBackoffBase(d time.Duration) Option {
	return func(e *Engine) { e.backoffBase = d }
}

// WithCompensationAttempts sets the credit-back retry budget for failed
// transfers.
func WithCompensationAttempts(n int) Option {
	return func(e *Engine) { e.compensationAttempts = n }
}

// WithCorrelationGenerator replaces the UUIDv7 correlation generator.
// Tests use FixedGenerator for deterministic golden traces.
func WithCorrelationGenerator(g CorrelationGenerator) Option {
	return func(e *Engine) { e.corrGen = g }
}

// WithNow replaces the wall clock used to timestamp records.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithClock replaces the logical clock. Used on restart to resume past the
// highest stored seq, and by tests for deterministic seq values.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an Engine over the given repositories.
func New(accounts ledger.AccountStore, log ledger.TransactionLog, opts ...Option) *Engine {
	e := &Engine{
		accounts:             accounts,
		log:                  log,
		clock:                NewClock(),
		corrGen:              UUIDv7Generator{},
		now:                  time.Now,
		maxAttempts:          DefaultMaxAttempts,
		backoffBase:          DefaultBackoffBase,
		compensationAttempts: DefaultCompensationAttempts,
		pending:              newAppendQueue(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Result reports a completed deposit or withdrawal.
//
// LogPending marks a degraded success: the balance change committed but the
// log append failed and has been queued for background retry. The record
// carries the data queued for appending; its ID is not yet assigned.
type Result struct {
	Account    ledger.Account
	Record     ledger.TransactionRecord
	LogPending bool
}

// TransferResult reports a completed transfer. Out and In are the linked
// record pair sharing CorrelationID. LogPending as in Result.
type TransferResult struct {
	CorrelationID string
	From          ledger.Account
	To            ledger.Account
	Out           ledger.TransactionRecord
	In            ledger.TransactionRecord
	LogPending    bool
}

// Register creates an account for an owner reference. The initial balance is
// the caller's policy decision and must not be negative; registration writes
// no transaction record (reconciliation anchors on the stored initial
// balance instead).
func (e *Engine) Register(ctx context.Context, owner string, initial decimal.Decimal) (ledger.Account, error) {
	canonical, err := ledger.ValidateOwner(owner)
	if err != nil {
		return ledger.Account{}, err
	}
	if initial.IsNegative() {
		return ledger.Account{}, ledger.NewValidationError("initial balance", "must not be negative")
	}

	acc, err := e.accounts.CreateAccount(ctx, canonical, initial)
	if err != nil {
		return ledger.Account{}, err
	}

	slog.Info("account registered",
		"account_id", acc.ID,
		"owner", acc.Owner,
		"initial_balance", acc.InitialBalance.String(),
	)
	return acc, nil
}

// Deposit credits amount to the account. Amount must be positive.
//
// The balance change is durable before the log append starts. If the append
// fails, the deposit is still a success - degraded, with the record queued
// for background retry - because the account store is the source of truth
// and the log is a projection.
func (e *Engine) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (Result, error) {
	if err := ledger.ValidateAmount(amount); err != nil {
		return Result{}, err
	}

	correlationID := e.corrGen.Generate()

	acc, err := e.adjustWithRetry(ctx, "deposit", accountID, amount)
	if err != nil {
		return Result{}, err
	}

	rec := e.newRecord(accountID, ledger.KindDeposit, amount, correlationID, "deposit")

	// Balance is committed; the append must not be abandoned to a
	// cancelled caller.
	rec, pending := e.appendOrQueue(context.WithoutCancel(ctx), rec)

	return Result{Account: acc, Record: rec, LogPending: pending}, nil
}

// Withdraw debits amount from the account. Amount must be positive. Fails
// fast with ledger.ErrInsufficientFunds if the balance would go negative -
// no log entry is written on failure.
func (e *Engine) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (Result, error) {
	if err := ledger.ValidateAmount(amount); err != nil {
		return Result{}, err
	}

	correlationID := e.corrGen.Generate()

	acc, err := e.adjustWithRetry(ctx, "withdraw", accountID, amount.Neg())
	if err != nil {
		return Result{}, err
	}

	rec := e.newRecord(accountID, ledger.KindWithdraw, amount, correlationID, "withdraw")
	rec, pending := e.appendOrQueue(context.WithoutCancel(ctx), rec)

	return Result{Account: acc, Record: rec, LogPending: pending}, nil
}

// Transfer moves amount from one account to another. The two balance
// adjustments are not covered by a cross-account lock; atomicity comes from
// the compensation protocol: if the credit fails after the debit committed,
// the engine credits the source back, retrying until it succeeds. Only when
// compensation itself exhausts its budget does the engine escalate with a
// ledger.InconsistencyError - the one condition needing an operator.
func (e *Engine) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) (TransferResult, error) {
	if err := ledger.ValidateAmount(amount); err != nil {
		return TransferResult{}, err
	}
	if fromID == toID {
		return TransferResult{}, fmt.Errorf("transfer from %s: %w", fromID, ledger.ErrSelfTransfer)
	}

	// Validate the recipient before touching any balance
	toAcc, err := e.accounts.GetAccount(ctx, toID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return TransferResult{}, fmt.Errorf("transfer to %s: %w", toID, ledger.ErrRecipientNotFound)
		}
		return TransferResult{}, err
	}
	if toAcc.Archived() {
		return TransferResult{}, fmt.Errorf("transfer to %s: %w", toID, ledger.ErrArchived)
	}

	fromAcc, err := e.accounts.GetAccount(ctx, fromID)
	if err != nil {
		return TransferResult{}, err
	}

	correlationID := e.corrGen.Generate()

	// Debit first; InsufficientFunds aborts with nothing changed
	debited, err := e.adjustWithRetry(ctx, "transfer debit", fromID, amount.Neg())
	if err != nil {
		return TransferResult{}, err
	}

	// The debit committed - from here the transfer runs to completion or
	// compensation, regardless of caller cancellation.
	ctx = context.WithoutCancel(ctx)

	credited, err := e.adjustWithRetry(ctx, "transfer credit", toID, amount)
	if err != nil {
		if cerr := e.compensate(ctx, correlationID, fromID, toID, amount); cerr != nil {
			return TransferResult{}, cerr
		}
		return TransferResult{}, fmt.Errorf("transfer credit to %s failed (source compensated): %w", toID, err)
	}

	out := e.newRecord(fromID, ledger.KindTransferOut, amount, correlationID, "To "+toAcc.Owner)
	in := e.newRecord(toID, ledger.KindTransferIn, amount, correlationID, "From "+fromAcc.Owner)

	out, in, pending := e.appendPairOrQueue(ctx, out, in)

	slog.Info("transfer complete",
		"correlation_id", correlationID,
		"from", fromID,
		"to", toID,
		"amount", amount.String(),
		"log_pending", pending,
	)

	return TransferResult{
		CorrelationID: correlationID,
		From:          debited,
		To:            credited,
		Out:           out,
		In:            in,
		LogPending:    pending,
	}, nil
}

// Archive soft-archives an account. History and balance remain queryable;
// further mutations are rejected by the store.
func (e *Engine) Archive(ctx context.Context, accountID string) error {
	return e.accounts.ArchiveAccount(ctx, accountID)
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// adjustWithRetry applies delta to the account, retrying version conflicts
// with exponential backoff up to the attempt budget. Business rejections
// (NotFound, InsufficientFunds, Archived) propagate immediately. After
// exhaustion it surfaces OperationTimedOutError - funds are untouched, since
// no partial adjustment was applied.
func (e *Engine) adjustWithRetry(ctx context.Context, op, accountID string, delta decimal.Decimal) (ledger.Account, error) {
	backoff := e.backoffBase
	for attempt := 1; ; attempt++ {
		acc, err := e.accounts.GetAccount(ctx, accountID)
		if err != nil {
			return ledger.Account{}, err
		}

		updated, err := e.accounts.Adjust(ctx, accountID, delta, acc.Version)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, ledger.ErrConflict) {
			return ledger.Account{}, err
		}

		if attempt >= e.maxAttempts {
			slog.Warn("conflict retries exhausted",
				"op", op,
				"account_id", accountID,
				"attempts", attempt,
			)
			return ledger.Account{}, &ledger.OperationTimedOutError{
				Op:        op,
				AccountID: accountID,
				Attempts:  attempt,
			}
		}

		slog.Debug("version conflict, retrying",
			"op", op,
			"account_id", accountID,
			"attempt", attempt,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return ledger.Account{}, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// compensate credits amount back to the source of a failed transfer. It must
// not fail silently - a lost compensation destroys money - so it retries the
// full adjust budget per attempt and escalates to InconsistencyError only
// when the whole budget is exhausted.
func (e *Engine) compensate(ctx context.Context, correlationID, fromID, toID string, amount decimal.Decimal) error {
	backoff := e.backoffBase
	var lastErr error
	for attempt := 1; attempt <= e.compensationAttempts; attempt++ {
		_, err := e.adjustWithRetry(ctx, "transfer compensation", fromID, amount)
		if err == nil {
			slog.Warn("transfer compensated",
				"correlation_id", correlationID,
				"from", fromID,
				"to", toID,
				"amount", amount.String(),
				"attempts", attempt,
			)
			return nil
		}
		lastErr = err

		slog.Error("compensation attempt failed",
			"correlation_id", correlationID,
			"from", fromID,
			"attempt", attempt,
			"error", err,
		)

		// ctx is WithoutCancel upstream: compensation never stops for a
		// cancelled caller, only for an exhausted budget
		time.Sleep(backoff)
		backoff *= 2
	}

	err := &ledger.InconsistencyError{
		CorrelationID: correlationID,
		FromID:        fromID,
		ToID:          toID,
		Amount:        amount.String(),
		Err:           lastErr,
	}
	slog.Error("LEDGER INCONSISTENCY - operator intervention required",
		"correlation_id", correlationID,
		"from", fromID,
		"to", toID,
		"amount", amount.String(),
		"error", lastErr,
	)
	return err
}

// newRecord stamps a record with the wall timestamp and logical seq.
func (e *Engine) newRecord(accountID string, kind ledger.Kind, amount decimal.Decimal, correlationID, note string) ledger.TransactionRecord {
	return ledger.TransactionRecord{
		AccountID:     accountID,
		Kind:          kind,
		Amount:        amount,
		Timestamp:     e.now().UTC(),
		Seq:           e.clock.Next(),
		CorrelationID: correlationID,
		Note:          ledger.NormalizeNote(note),
	}
}

// appendOrQueue appends a single record, degrading to the pending queue on
// failure. Returns the stored record and whether the append is still pending.
func (e *Engine) appendOrQueue(ctx context.Context, rec ledger.TransactionRecord) (ledger.TransactionRecord, bool) {
	stored, _, err := e.log.AppendRecord(ctx, rec)
	if err == nil {
		return stored, false
	}

	slog.Warn("log append failed after balance commit, queued for retry",
		"correlation_id", rec.CorrelationID,
		"account_id", rec.AccountID,
		"kind", rec.Kind,
		"error", err,
	)
	e.pending.Enqueue(pendingAppend{Record: rec})
	return rec, true
}

// appendPairOrQueue is appendOrQueue for a linked transfer pair.
func (e *Engine) appendPairOrQueue(ctx context.Context, out, in ledger.TransactionRecord) (ledger.TransactionRecord, ledger.TransactionRecord, bool) {
	storedOut, storedIn, _, err := e.log.AppendTransferPair(ctx, out, in)
	if err == nil {
		return storedOut, storedIn, false
	}

	slog.Warn("transfer pair append failed after balance commits, queued for retry",
		"correlation_id", out.CorrelationID,
		"from", out.AccountID,
		"to", in.AccountID,
		"error", err,
	)
	e.pending.Enqueue(pendingAppend{Record: out, Pair: &in})
	return out, in, true
}
