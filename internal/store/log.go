package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/tally/internal/ledger"
)

// AppendRecord durably appends a transaction record.
//
// Idempotent under retries per the correlation-id protocol: the caller
// supplies a client-generated correlation id per logical operation, and a
// duplicate (correlation_id, kind) hits the UNIQUE constraint and is
// coalesced via ON CONFLICT DO NOTHING. In that case the previously stored
// record is returned with inserted=false.
func (s *Store) AppendRecord(ctx context.Context, rec ledger.TransactionRecord) (ledger.TransactionRecord, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (account_id, kind, amount, ts, seq, correlation_id, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(correlation_id, kind) DO NOTHING
	`,
		rec.AccountID,
		string(rec.Kind),
		rec.Amount.String(),
		rec.Timestamp.UTC().UnixNano(),
		rec.Seq,
		rec.CorrelationID,
		rec.Note,
	)
	if err != nil {
		return ledger.TransactionRecord{}, false, fmt.Errorf("append record: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return ledger.TransactionRecord{}, false, fmt.Errorf("append record: rows affected: %w", err)
	}

	if rowsAffected > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return ledger.TransactionRecord{}, false, fmt.Errorf("append record: last insert id: %w", err)
		}
		rec.ID = id
		rec.Timestamp = rec.Timestamp.UTC()
		return rec, true, nil
	}

	// Coalesced replay - fetch the record stored by the first append
	existing, err := s.getByCorrelation(ctx, rec.CorrelationID, rec.Kind)
	if err != nil {
		return ledger.TransactionRecord{}, false, fmt.Errorf("append record: select existing: %w", err)
	}
	return existing, false, nil
}

// AppendTransferPair atomically appends the linked transfer_out/transfer_in
// records in a single SQL transaction. Both legs share the correlation id;
// replaying the pair is coalesced as a unit - if the out-leg already exists,
// nothing new is written and the stored pair is returned with inserted=false.
func (s *Store) AppendTransferPair(ctx context.Context, out, in ledger.TransactionRecord) (ledger.TransactionRecord, ledger.TransactionRecord, bool, error) {
	fail := func(err error) (ledger.TransactionRecord, ledger.TransactionRecord, bool, error) {
		return ledger.TransactionRecord{}, ledger.TransactionRecord{}, false, err
	}

	if out.Kind != ledger.KindTransferOut || in.Kind != ledger.KindTransferIn {
		return fail(fmt.Errorf("append transfer pair: kinds must be %s/%s, got %s/%s",
			ledger.KindTransferOut, ledger.KindTransferIn, out.Kind, in.Kind))
	}
	if out.CorrelationID != in.CorrelationID {
		return fail(fmt.Errorf("append transfer pair: correlation ids differ: %s vs %s",
			out.CorrelationID, in.CorrelationID))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fail(fmt.Errorf("append transfer pair: begin tx: %w", err))
	}
	defer tx.Rollback() // No-op if committed

	// Insert the out-leg first; its conflict status decides the whole pair
	res, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (account_id, kind, amount, ts, seq, correlation_id, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(correlation_id, kind) DO NOTHING
	`,
		out.AccountID, string(out.Kind), out.Amount.String(),
		out.Timestamp.UTC().UnixNano(), out.Seq, out.CorrelationID, out.Note,
	)
	if err != nil {
		return fail(fmt.Errorf("append transfer pair: insert out-leg: %w", err))
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fail(fmt.Errorf("append transfer pair: rows affected: %w", err))
	}

	if rowsAffected == 0 {
		// Pair already logged - return the stored legs
		if err := tx.Commit(); err != nil {
			return fail(fmt.Errorf("append transfer pair: commit (existing): %w", err))
		}
		storedOut, err := s.getByCorrelation(ctx, out.CorrelationID, ledger.KindTransferOut)
		if err != nil {
			return fail(fmt.Errorf("append transfer pair: select existing out-leg: %w", err))
		}
		storedIn, err := s.getByCorrelation(ctx, in.CorrelationID, ledger.KindTransferIn)
		if err != nil {
			return fail(fmt.Errorf("append transfer pair: select existing in-leg: %w", err))
		}
		return storedOut, storedIn, false, nil
	}

	outID, err := res.LastInsertId()
	if err != nil {
		return fail(fmt.Errorf("append transfer pair: out-leg id: %w", err))
	}

	res, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (account_id, kind, amount, ts, seq, correlation_id, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(correlation_id, kind) DO NOTHING
	`,
		in.AccountID, string(in.Kind), in.Amount.String(),
		in.Timestamp.UTC().UnixNano(), in.Seq, in.CorrelationID, in.Note,
	)
	if err != nil {
		return fail(fmt.Errorf("append transfer pair: insert in-leg: %w", err))
	}

	inID, err := res.LastInsertId()
	if err != nil {
		return fail(fmt.Errorf("append transfer pair: in-leg id: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("append transfer pair: commit: %w", err))
	}

	out.ID = outID
	in.ID = inID
	out.Timestamp = out.Timestamp.UTC()
	in.Timestamp = in.Timestamp.UTC()
	return out, in, true, nil
}

// ListForAccount returns up to limit records for the account, most recent
// first. The cursor restarts the listing at the position just past the last
// record of the previous page; the zero cursor starts from the newest record.
// Ordering is (ts DESC, seq DESC) - seq disambiguates records sharing a
// timestamp.
func (s *Store) ListForAccount(ctx context.Context, accountID string, cursor ledger.Cursor, limit int) ([]ledger.TransactionRecord, ledger.Cursor, error) {
	if limit <= 0 {
		return nil, ledger.Cursor{}, ledger.NewValidationError("limit", "must be positive")
	}

	var rows *sql.Rows
	var err error
	if cursor.IsZero() {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, account_id, kind, amount, ts, seq, correlation_id, note
			FROM transactions
			WHERE account_id = ?
			ORDER BY ts DESC, seq DESC
			LIMIT ?
		`, accountID, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, account_id, kind, amount, ts, seq, correlation_id, note
			FROM transactions
			WHERE account_id = ? AND (ts < ? OR (ts = ? AND seq < ?))
			ORDER BY ts DESC, seq DESC
			LIMIT ?
		`, accountID, cursor.Timestamp.UTC().UnixNano(), cursor.Timestamp.UTC().UnixNano(), cursor.Seq, limit)
	}
	if err != nil {
		return nil, ledger.Cursor{}, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var records []ledger.TransactionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, ledger.Cursor{}, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Cursor{}, fmt.Errorf("iterate transactions: %w", err)
	}

	// Return empty slice instead of nil
	if records == nil {
		records = []ledger.TransactionRecord{}
	}

	// A short page means the history is exhausted; no next cursor
	var next ledger.Cursor
	if len(records) == limit {
		last := records[len(records)-1]
		next = ledger.Cursor{Timestamp: last.Timestamp, Seq: last.Seq}
	}

	return records, next, nil
}

// SumForAccount returns the signed sum of all log records for the account.
// Summation happens in Go with decimal arithmetic - SQLite SUM over decimal
// strings would fall back to floats.
func (s *Store) SumForAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, amount
		FROM transactions
		WHERE account_id = ?
	`, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var kind, amount string
		if err := rows.Scan(&kind, &amount); err != nil {
			return decimal.Zero, fmt.Errorf("scan transaction amount: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("corrupt amount %q: %w", amount, err)
		}
		if ledger.Kind(kind).Credits() {
			sum = sum.Add(d)
		} else {
			sum = sum.Sub(d)
		}
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("iterate transaction amounts: %w", err)
	}

	return sum, nil
}

// MaxSeq returns the highest seq stamped on any log record, or 0 for an
// empty log. Used on startup to resume the logical clock past stored history.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM transactions
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq, nil
}

// getByCorrelation fetches the stored record for a (correlation id, kind)
// pair. Used to return the original record when a replayed append coalesces.
func (s *Store) getByCorrelation(ctx context.Context, correlationID string, kind ledger.Kind) (ledger.TransactionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, kind, amount, ts, seq, correlation_id, note
		FROM transactions
		WHERE correlation_id = ? AND kind = ?
	`, correlationID, string(kind))

	return scanRecordRow(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecordFrom(sc rowScanner) (ledger.TransactionRecord, error) {
	var rec ledger.TransactionRecord
	var kind, amount string
	var ts int64

	if err := sc.Scan(&rec.ID, &rec.AccountID, &kind, &amount, &ts, &rec.Seq, &rec.CorrelationID, &rec.Note); err != nil {
		return ledger.TransactionRecord{}, err
	}

	rec.Kind = ledger.Kind(kind)
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return ledger.TransactionRecord{}, fmt.Errorf("corrupt amount %q for record %d: %w", amount, rec.ID, err)
	}
	rec.Amount = d
	rec.Timestamp = time.Unix(0, ts).UTC()

	return rec, nil
}

func scanRecord(rows *sql.Rows) (ledger.TransactionRecord, error) {
	rec, err := scanRecordFrom(rows)
	if err != nil {
		return ledger.TransactionRecord{}, fmt.Errorf("scan transaction: %w", err)
	}
	return rec, nil
}

func scanRecordRow(row *sql.Row) (ledger.TransactionRecord, error) {
	return scanRecordFrom(row)
}
