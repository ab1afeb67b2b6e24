package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tally/internal/ledger"
)

var errStorage = errors.New("storage failure injected")

// flakyAccounts wraps a real store and injects failures into Adjust based on
// a per-call decision function. All other methods pass through.
type flakyAccounts struct {
	ledger.AccountStore

	mu         sync.Mutex
	failAdjust func(call int, id string, delta decimal.Decimal) error
	calls      int
}

func (f *flakyAccounts) Adjust(ctx context.Context, id string, delta decimal.Decimal, expectedVersion int64) (ledger.Account, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	inject := f.failAdjust
	f.mu.Unlock()

	if inject != nil {
		if err := inject(call, id, delta); err != nil {
			return ledger.Account{}, err
		}
	}
	return f.AccountStore.Adjust(ctx, id, delta, expectedVersion)
}

// flakyLog wraps a real store and fails the first failN append calls.
type flakyLog struct {
	ledger.TransactionLog

	mu    sync.Mutex
	failN int
}

func (f *flakyLog) takeFailure() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failN > 0 {
		f.failN--
		return true
	}
	return false
}

func (f *flakyLog) AppendRecord(ctx context.Context, rec ledger.TransactionRecord) (ledger.TransactionRecord, bool, error) {
	if f.takeFailure() {
		return ledger.TransactionRecord{}, false, errStorage
	}
	return f.TransactionLog.AppendRecord(ctx, rec)
}

func (f *flakyLog) AppendTransferPair(ctx context.Context, out, in ledger.TransactionRecord) (ledger.TransactionRecord, ledger.TransactionRecord, bool, error) {
	if f.takeFailure() {
		return ledger.TransactionRecord{}, ledger.TransactionRecord{}, false, errStorage
	}
	return f.TransactionLog.AppendTransferPair(ctx, out, in)
}

func TestTransfer_CompensationRestoresSource(t *testing.T) {
	s := setupTestStore(t)
	accounts := &flakyAccounts{AccountStore: s}
	e := New(accounts, s,
		WithBackoffBase(time.Microsecond),
		WithMaxAttempts(2),
		WithCorrelationGenerator(&SequentialGenerator{}),
	)
	ctx := context.Background()

	a := register(t, e, "alice", "1000")
	b := register(t, e, "bob", "500")

	// Fail every credit to bob's account; debits and the compensation
	// credit back to alice succeed.
	accounts.failAdjust = func(call int, id string, delta decimal.Decimal) error {
		if id == b.ID && delta.IsPositive() {
			return ledger.ErrConflict
		}
		return nil
	}

	_, err := e.Transfer(ctx, a.ID, b.ID, amt(t, "300"))
	require.Error(t, err)
	assert.False(t, ledger.IsInconsistency(err), "compensation succeeded, no escalation: %v", err)

	gotA, gerr := s.GetAccount(ctx, a.ID)
	require.NoError(t, gerr)
	gotB, gerr := s.GetAccount(ctx, b.ID)
	require.NoError(t, gerr)
	assert.True(t, gotA.Balance.Equal(amt(t, "1000")), "source restored, got %s", gotA.Balance)
	assert.True(t, gotB.Balance.Equal(amt(t, "500")), "recipient untouched, got %s", gotB.Balance)

	// Neither leg may appear in the log
	records, _, lerr := s.ListForAccount(ctx, a.ID, ledger.Cursor{}, 10)
	require.NoError(t, lerr)
	assert.Empty(t, records, "failed transfer must not be logged")
}

func TestTransfer_CompensationExhaustionEscalates(t *testing.T) {
	s := setupTestStore(t)
	accounts := &flakyAccounts{AccountStore: s}
	e := New(accounts, s,
		WithBackoffBase(time.Microsecond),
		WithMaxAttempts(2),
		WithCompensationAttempts(2),
		WithCorrelationGenerator(&SequentialGenerator{}),
	)
	ctx := context.Background()

	a := register(t, e, "alice", "1000")
	b := register(t, e, "bob", "500")

	// After the debit, every Adjust fails: the credit cannot land and
	// neither can the compensation.
	var debited bool
	accounts.failAdjust = func(call int, id string, delta decimal.Decimal) error {
		if id == a.ID && delta.IsNegative() && !debited {
			debited = true
			return nil
		}
		return ledger.ErrConflict
	}

	_, err := e.Transfer(ctx, a.ID, b.ID, amt(t, "300"))
	require.Error(t, err)
	require.True(t, ledger.IsInconsistency(err), "expected inconsistency escalation, got %v", err)

	var inc *ledger.InconsistencyError
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, a.ID, inc.FromID)
	assert.Equal(t, b.ID, inc.ToID)
	assert.Equal(t, "300", inc.Amount)
	assert.NotEmpty(t, inc.CorrelationID)
}

func TestAdjust_ConflictRetrySucceeds(t *testing.T) {
	s := setupTestStore(t)
	accounts := &flakyAccounts{AccountStore: s}
	e := New(accounts, s,
		WithBackoffBase(time.Microsecond),
		WithCorrelationGenerator(&SequentialGenerator{}),
	)
	ctx := context.Background()

	a := register(t, e, "alice", "100")

	// First two Adjust calls conflict, the third goes through
	var failed int
	accounts.failAdjust = func(call int, id string, delta decimal.Decimal) error {
		if failed < 2 {
			failed++
			return ledger.ErrConflict
		}
		return nil
	}

	res, err := e.Deposit(ctx, a.ID, amt(t, "50"))
	require.NoError(t, err)
	assert.True(t, res.Account.Balance.Equal(amt(t, "150")))
	assert.Equal(t, 2, failed, "retry path should have absorbed both conflicts")
}

func TestAdjust_ConflictExhaustionTimesOut(t *testing.T) {
	s := setupTestStore(t)
	accounts := &flakyAccounts{AccountStore: s}
	e := New(accounts, s,
		WithBackoffBase(time.Microsecond),
		WithMaxAttempts(3),
		WithCorrelationGenerator(&SequentialGenerator{}),
	)
	ctx := context.Background()

	a := register(t, e, "alice", "100")

	accounts.failAdjust = func(call int, id string, delta decimal.Decimal) error {
		return ledger.ErrConflict
	}

	_, err := e.Deposit(ctx, a.ID, amt(t, "50"))
	require.Error(t, err)
	require.True(t, ledger.IsTimedOut(err), "expected timeout after exhausted retries, got %v", err)

	var toErr *ledger.OperationTimedOutError
	require.ErrorAs(t, err, &toErr)
	assert.Equal(t, 3, toErr.Attempts)

	// Funds untouched
	got, gerr := s.GetAccount(ctx, a.ID)
	require.NoError(t, gerr)
	assert.True(t, got.Balance.Equal(amt(t, "100")))
}

func TestDeposit_DegradedSuccessOnLogFailure(t *testing.T) {
	s := setupTestStore(t)
	log := &flakyLog{TransactionLog: s, failN: 1}
	e := New(s, log,
		WithBackoffBase(time.Microsecond),
		WithCorrelationGenerator(&SequentialGenerator{}),
	)
	ctx := context.Background()

	a := register(t, e, "alice", "100")

	res, err := e.Deposit(ctx, a.ID, amt(t, "50"))
	require.NoError(t, err, "balance committed, append failure degrades rather than fails")
	assert.True(t, res.LogPending)
	assert.True(t, res.Account.Balance.Equal(amt(t, "150")))
	assert.Equal(t, 1, e.PendingAppends())

	// The background loop replays the append against the now-healthy log
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- e.Run(runCtx) }()

	require.Eventually(t, func() bool {
		records, _, lerr := s.ListForAccount(ctx, a.ID, ledger.Cursor{}, 10)
		return lerr == nil && len(records) == 1
	}, 2*time.Second, 5*time.Millisecond, "queued append should land")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 0, e.PendingAppends())
}

func TestTransfer_DegradedSuccessOnPairFailure(t *testing.T) {
	s := setupTestStore(t)
	log := &flakyLog{TransactionLog: s, failN: 2}
	e := New(s, log,
		WithBackoffBase(time.Microsecond),
		WithCorrelationGenerator(&SequentialGenerator{}),
	)
	ctx := context.Background()

	a := register(t, e, "alice", "1000")
	b := register(t, e, "bob", "500")

	res, err := e.Transfer(ctx, a.ID, b.ID, amt(t, "300"))
	require.NoError(t, err)
	assert.True(t, res.LogPending)
	assert.True(t, res.From.Balance.Equal(amt(t, "700")))
	assert.True(t, res.To.Balance.Equal(amt(t, "800")))

	// One failed retry is consumed before the pair lands
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- e.Run(runCtx) }()

	require.Eventually(t, func() bool {
		out, _, lerr := s.ListForAccount(ctx, a.ID, ledger.Cursor{}, 10)
		if lerr != nil || len(out) != 1 {
			return false
		}
		in, _, lerr := s.ListForAccount(ctx, b.ID, ledger.Cursor{}, 10)
		return lerr == nil && len(in) == 1
	}, 2*time.Second, 5*time.Millisecond, "queued pair should land after retry")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRunStopsOnStop(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(t, s)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	e.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

var (
	_ ledger.AccountStore   = (*flakyAccounts)(nil)
	_ ledger.TransactionLog = (*flakyLog)(nil)
)
