package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roach88/tally/internal/ledger"
)

// SeedAccount is a (owner, initial balance) pair for demo seeding.
type SeedAccount struct {
	Owner   string
	Balance decimal.Decimal
}

// DemoAccounts is the default demo dataset.
func DemoAccounts() []SeedAccount {
	return []SeedAccount{
		{Owner: "alice", Balance: decimal.NewFromInt(1000)},
		{Owner: "bob", Balance: decimal.NewFromInt(500)},
	}
}

// Seed registers each account, skipping owners that already exist so seeding
// is idempotent. Returns the accounts that were newly created.
func (e *Engine) Seed(ctx context.Context, seeds []SeedAccount) ([]ledger.Account, error) {
	created := make([]ledger.Account, 0, len(seeds))
	for _, seed := range seeds {
		acc, err := e.Register(ctx, seed.Owner, seed.Balance)
		if errors.Is(err, ledger.ErrDuplicateOwner) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed %q: %w", seed.Owner, err)
		}
		created = append(created, acc)
	}
	return created, nil
}
