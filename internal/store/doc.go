// Package store implements durable SQLite-backed storage for the tally
// ledger: the account store (single arbiter of balance truth) and the
// append-only transaction log.
//
// The account store mutates balances only through Adjust, a version-guarded
// compare-and-swap; concurrent mutators on the same account race and exactly
// one wins per version increment. The transaction log coalesces duplicate
// appends by (correlation id, kind) so that retry-after-partial-failure never
// duplicates history.
package store
