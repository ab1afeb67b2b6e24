package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// AccountStore is the single arbiter of balance truth. Adjust is the only
// mutator of balances.
type AccountStore interface {
	// CreateAccount registers a new account with the given canonical owner
	// reference and initial balance (creation policy is the caller's
	// decision). Returns ErrDuplicateOwner if the owner reference is taken.
	CreateAccount(ctx context.Context, owner string, initial decimal.Decimal) (Account, error)

	// GetAccount returns the account or ErrNotFound.
	GetAccount(ctx context.Context, id string) (Account, error)

	// Adjust atomically applies delta to the account balance. It rejects a
	// result below zero with ErrInsufficientFunds, a stale expectedVersion
	// with ErrConflict (caller must re-read and retry), and an archived
	// account with ErrArchived. On success the new balance is durable before
	// the call returns and the version has been incremented.
	Adjust(ctx context.Context, id string, delta decimal.Decimal, expectedVersion int64) (Account, error)

	// ArchiveAccount soft-archives the account. Archived accounts keep their
	// history and balance but reject further adjustments.
	ArchiveAccount(ctx context.Context, id string) error
}

// TransactionLog is the append-only, auditable projection of every
// balance-affecting operation. Appends never reject on business grounds;
// validation happens upstream in the engine.
type TransactionLog interface {
	// AppendRecord durably appends a record. Idempotent under retries:
	// a duplicate (correlation id, kind) is coalesced and the stored record
	// is returned with inserted=false.
	AppendRecord(ctx context.Context, rec TransactionRecord) (TransactionRecord, bool, error)

	// AppendTransferPair atomically appends the linked transfer_out and
	// transfer_in records. Both legs share a correlation id; replaying the
	// pair is coalesced as a unit.
	AppendTransferPair(ctx context.Context, out, in TransactionRecord) (TransactionRecord, TransactionRecord, bool, error)

	// ListForAccount returns up to limit records for the account, most
	// recent first, starting after the cursor. An empty cursor starts from
	// the newest record. The returned cursor restarts the listing; it is
	// empty when the history is exhausted.
	ListForAccount(ctx context.Context, accountID string, cursor Cursor, limit int) ([]TransactionRecord, Cursor, error)

	// SumForAccount returns the signed sum of all records for the account.
	// Used by reconciliation against the stored balance.
	SumForAccount(ctx context.Context, accountID string) (decimal.Decimal, error)
}
