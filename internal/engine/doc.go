// Package engine implements the ledger state machine: deposit, withdraw, and
// transfer orchestrated over the account store and transaction log.
//
// Concurrency model: no cross-account locks. Each account is protected by
// optimistic concurrency in the store's Adjust; the engine retries version
// conflicts with exponential backoff. A transfer that fails at the credit
// step compensates by crediting the source back, retried until it succeeds -
// money is never destroyed for a storage failure.
//
// The account store is the source of truth for balances; the transaction log
// is an auditable projection. A log append that fails after a balance commit
// degrades the operation to a reported partial success and is retried by the
// background Run loop - the balance change is never rolled back.
package engine
