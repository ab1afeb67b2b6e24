// Package query is the read-only surface over the ledger: balances and
// paginated history. Queries never mutate state, so context cancellation is
// honored throughout.
package query

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roach88/tally/internal/ledger"
)

// DefaultPageSize bounds history pages when the caller passes limit <= 0.
const DefaultPageSize = 50

// MaxPageSize caps history pages regardless of the caller's limit.
const MaxPageSize = 500

// Reader answers balance and history queries against the committed store
// state. Reads are monotonic per account: each query sees all operations that
// completed before it started.
type Reader struct {
	accounts ledger.AccountStore
	log      ledger.TransactionLog
}

// NewReader creates a Reader over the given repositories.
func NewReader(accounts ledger.AccountStore, log ledger.TransactionLog) *Reader {
	return &Reader{accounts: accounts, log: log}
}

// Balance reports an account's current balance and metadata. Archived
// accounts remain queryable.
type Balance struct {
	Account ledger.Account
	Amount  decimal.Decimal
}

// Balance returns the account's current balance, or ledger.ErrNotFound.
func (r *Reader) Balance(ctx context.Context, accountID string) (Balance, error) {
	acc, err := r.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return Balance{}, fmt.Errorf("query balance: %w", err)
	}
	return Balance{Account: acc, Amount: acc.Balance}, nil
}

// Page is one slice of an account's history, most recent first. NextCursor
// restarts the listing after the last record returned; it is the zero Cursor
// when the history is exhausted.
type Page struct {
	Records    []ledger.TransactionRecord
	NextCursor ledger.Cursor
}

// History returns up to limit records for the account, newest first, starting
// after cursor. The account must exist even when its history is empty, so a
// typo'd id fails loudly instead of returning an empty page.
func (r *Reader) History(ctx context.Context, accountID string, cursor ledger.Cursor, limit int) (Page, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if _, err := r.accounts.GetAccount(ctx, accountID); err != nil {
		return Page{}, fmt.Errorf("query history: %w", err)
	}

	records, next, err := r.log.ListForAccount(ctx, accountID, cursor, limit)
	if err != nil {
		return Page{}, fmt.Errorf("query history: %w", err)
	}

	return Page{Records: records, NextCursor: next}, nil
}
