package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/roach88/tally/internal/ledger"
)

// CreateAccount registers a new account. The owner reference must already be
// canonical (ledger.ValidateOwner); uniqueness is enforced by the store.
// The initial balance is caller policy and must not be negative.
func (s *Store) CreateAccount(ctx context.Context, owner string, initial decimal.Decimal) (ledger.Account, error) {
	if initial.IsNegative() {
		return ledger.Account{}, ledger.NewValidationError("initial balance", "must not be negative")
	}

	acc := ledger.Account{
		ID:             uuid.Must(uuid.NewV7()).String(),
		Owner:          owner,
		Balance:        initial,
		InitialBalance: initial,
		Version:        1,
		CreatedAt:      time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, owner, balance, initial_balance, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		acc.ID,
		acc.Owner,
		acc.Balance.String(),
		acc.InitialBalance.String(),
		acc.Version,
		acc.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.Account{}, fmt.Errorf("create account for %q: %w", owner, ledger.ErrDuplicateOwner)
		}
		return ledger.Account{}, fmt.Errorf("create account: %w", err)
	}

	return acc, nil
}

// GetAccount returns the account or ledger.ErrNotFound.
func (s *Store) GetAccount(ctx context.Context, id string) (ledger.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, balance, initial_balance, version, created_at, archived_at
		FROM accounts
		WHERE id = ?
	`, id)

	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Account{}, fmt.Errorf("account %s: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return ledger.Account{}, fmt.Errorf("get account %s: %w", id, err)
	}
	return acc, nil
}

// GetAccountByOwner returns the account registered for a canonical owner
// reference, or ledger.ErrNotFound.
func (s *Store) GetAccountByOwner(ctx context.Context, owner string) (ledger.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, balance, initial_balance, version, created_at, archived_at
		FROM accounts
		WHERE owner = ?
	`, owner)

	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Account{}, fmt.Errorf("owner %q: %w", owner, ledger.ErrNotFound)
	}
	if err != nil {
		return ledger.Account{}, fmt.Errorf("get account by owner %q: %w", owner, err)
	}
	return acc, nil
}

// Adjust atomically applies delta to the account balance.
//
// The read computes the candidate balance; the UPDATE is guarded by the
// expected version, making the whole operation a compare-and-swap. A stale
// version - whether detected on the read or lost on the guarded UPDATE -
// returns ledger.ErrConflict and the caller re-reads and retries. A result
// below zero returns ledger.ErrInsufficientFunds with nothing written.
//
// On success the new balance is durable (synchronous FULL) before the call
// returns, so a crash between the balance commit and any downstream log
// append loses only the log entry, which reconciliation discovers.
func (s *Store) Adjust(ctx context.Context, id string, delta decimal.Decimal, expectedVersion int64) (ledger.Account, error) {
	acc, err := s.GetAccount(ctx, id)
	if err != nil {
		return ledger.Account{}, err
	}
	if acc.Archived() {
		return ledger.Account{}, fmt.Errorf("adjust account %s: %w", id, ledger.ErrArchived)
	}
	if acc.Version != expectedVersion {
		return ledger.Account{}, fmt.Errorf("adjust account %s: expected version %d, have %d: %w",
			id, expectedVersion, acc.Version, ledger.ErrConflict)
	}

	newBalance := acc.Balance.Add(delta)
	if newBalance.IsNegative() {
		return ledger.Account{}, fmt.Errorf("adjust account %s by %s: %w",
			id, delta.String(), ledger.ErrInsufficientFunds)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET balance = ?, version = version + 1
		WHERE id = ? AND version = ? AND archived_at IS NULL
	`,
		newBalance.String(),
		id,
		expectedVersion,
	)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("adjust account %s: %w", id, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return ledger.Account{}, fmt.Errorf("adjust account %s: rows affected: %w", id, err)
	}
	if rowsAffected == 0 {
		// Lost the version race between read and update
		return ledger.Account{}, fmt.Errorf("adjust account %s: %w", id, ledger.ErrConflict)
	}

	acc.Balance = newBalance
	acc.Version = expectedVersion + 1
	return acc, nil
}

// ArchiveAccount soft-archives the account. Idempotent: archiving an already
// archived account keeps the original archive timestamp.
func (s *Store) ArchiveAccount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET archived_at = ?
		WHERE id = ? AND archived_at IS NULL
	`, time.Now().UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("archive account %s: %w", id, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("archive account %s: rows affected: %w", id, err)
	}
	if rowsAffected == 0 {
		// Either missing or already archived - distinguish for the caller
		if _, err := s.GetAccount(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// scanAccount scans a single account row.
func scanAccount(row *sql.Row) (ledger.Account, error) {
	var acc ledger.Account
	var balance, initial string
	var createdAt int64
	var archivedAt sql.NullInt64

	if err := row.Scan(&acc.ID, &acc.Owner, &balance, &initial, &acc.Version, &createdAt, &archivedAt); err != nil {
		return ledger.Account{}, err
	}

	d, err := decimal.NewFromString(balance)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("corrupt balance %q for account %s: %w", balance, acc.ID, err)
	}
	acc.Balance = d

	d, err = decimal.NewFromString(initial)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("corrupt initial balance %q for account %s: %w", initial, acc.ID, err)
	}
	acc.InitialBalance = d
	acc.CreatedAt = time.Unix(0, createdAt).UTC()
	if archivedAt.Valid {
		t := time.Unix(0, archivedAt.Int64).UTC()
		acc.ArchivedAt = &t
	}

	return acc, nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint error.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
