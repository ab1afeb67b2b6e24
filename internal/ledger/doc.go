// Package ledger defines the core domain types for the tally ledger engine:
// accounts, transaction records, money amounts, and the error taxonomy shared
// by the store, engine, and query layers.
//
// Amounts are fixed-point decimals (shopspring/decimal), never floats. An
// account balance is never negative; this invariant is enforced atomically at
// the point of debit by the account store, not here. Transaction records are
// immutable once created - a transfer produces exactly two linked records
// sharing a correlation id.
package ledger
