package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roach88/tally/internal/ledger"
)

// Drift is the result of reconciling one account against the transaction log.
// Expected is the signed sum of the account's log records plus any seed
// balance implied by creation; Actual is the stored balance. A crash between
// a balance commit and its log append shows up as Actual > Expected.
type Drift struct {
	AccountID string
	Actual    decimal.Decimal
	Expected  decimal.Decimal
}

// Amount returns Actual - Expected. Zero means the account is consistent.
func (d Drift) Amount() decimal.Decimal {
	return d.Actual.Sub(d.Expected)
}

// Reconcile compares an account's stored balance against the signed sum of
// its transaction log, offset by the initial balance recorded at creation.
//
// The log is an auditable projection of the account store; the store remains
// the source of truth for balances. Reconcile is the discovery mechanism for
// log entries lost to a crash between a durable Adjust and its append.
func (s *Store) Reconcile(ctx context.Context, accountID string) (Drift, error) {
	acc, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return Drift{}, err
	}

	sum, err := s.SumForAccount(ctx, accountID)
	if err != nil {
		return Drift{}, fmt.Errorf("reconcile account %s: %w", accountID, err)
	}

	return Drift{
		AccountID: accountID,
		Actual:    acc.Balance,
		Expected:  acc.InitialBalance.Add(sum),
	}, nil
}

// Compile-time checks that Store satisfies the repository contracts.
var (
	_ ledger.AccountStore   = (*Store)(nil)
	_ ledger.TransactionLog = (*Store)(nil)
)
