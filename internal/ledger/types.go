package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the balance effect of a transaction record.
type Kind string

const (
	KindDeposit     Kind = "deposit"
	KindWithdraw    Kind = "withdraw"
	KindTransferOut Kind = "transfer_out"
	KindTransferIn  Kind = "transfer_in"
)

// Valid reports whether k is one of the four record kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdraw, KindTransferOut, KindTransferIn:
		return true
	}
	return false
}

// Credits reports whether the kind increases the account balance.
// Used by reconciliation to compute the signed sum of a history.
func (k Kind) Credits() bool {
	return k == KindDeposit || k == KindTransferIn
}

// Account is a ledger account. Owned exclusively by the account store;
// mutated only through AccountStore.Adjust, never deleted (soft-archived at
// most). Version increments on every successful adjustment and guards
// optimistic concurrency.
type Account struct {
	ID      string
	Owner   string
	Balance decimal.Decimal

	// InitialBalance is the balance the account was registered with
	// (creation policy is external). It anchors reconciliation: balance
	// should always equal InitialBalance plus the signed sum of the
	// account's log records.
	InitialBalance decimal.Decimal

	Version    int64
	CreatedAt  time.Time
	ArchivedAt *time.Time
}

// Archived reports whether the account has been soft-archived.
// Archived accounts reject balance adjustments.
func (a Account) Archived() bool {
	return a.ArchivedAt != nil
}

// TransactionRecord is one immutable entry in the append-only transaction
// log. Amount is always positive; Kind carries the sign. History ordering is
// (Timestamp, Seq) descending - Seq is a logical-clock tie-break for records
// created within the same timestamp granularity.
//
// CorrelationID is client-generated per logical operation. Duplicate appends
// with the same (correlation id, kind) are coalesced by the log, which makes
// retry-after-partial-failure safe. The two legs of a transfer share one
// correlation id.
type TransactionRecord struct {
	ID            int64
	AccountID     string
	Kind          Kind
	Amount        decimal.Decimal
	Timestamp     time.Time
	Seq           int64
	CorrelationID string
	Note          string
}

// SignedAmount returns the amount with the sign implied by the record kind.
func (r TransactionRecord) SignedAmount() decimal.Decimal {
	if r.Kind.Credits() {
		return r.Amount
	}
	return r.Amount.Neg()
}
