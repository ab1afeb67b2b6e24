package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// CorrelationGenerator produces the client-generated correlation id attached
// to each logical operation. The id makes log appends idempotent under
// retry-after-partial-failure.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type CorrelationGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 correlation ids.
//
// UUIDv7 embeds a timestamp in the most significant bits, making ids
// sortable by creation time, which helps when scanning the raw log.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined correlation ids for testing.
// Deterministic ids enable golden trace comparison in the harness.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns ids in order.
// Generate panics once all ids are consumed - a fail-fast signal that the
// test invoked more operations than it planned for.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined id.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.tokens) {
		panic(fmt.Sprintf("FixedGenerator: all %d ids exhausted", len(g.tokens)))
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}

// SequentialGenerator returns "corr-1", "corr-2", ... without a fixed bound.
// Useful for tests that run an unknown number of operations but still want
// deterministic ids.
type SequentialGenerator struct {
	mu sync.Mutex
	n  int
}

// Generate returns the next sequential id.
func (g *SequentialGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("corr-%d", g.n)
}
