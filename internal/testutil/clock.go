// Package testutil provides deterministic time sources for tests and the
// conformance harness. Deterministic timestamps plus fixed correlation ids
// make engine traces byte-identical across runs.
package testutil

import (
	"sync"
	"time"
)

// BaseTime is the default starting instant for deterministic time sources.
// An arbitrary fixed point well in the past so golden files never collide
// with real wall time.
var BaseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// FrozenNow returns a time source that always reports the same instant.
func FrozenNow(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// SteppingNow returns a time source that starts at base and advances by step
// on every call. The first call returns base.
//
// Thread-safe: the returned function may be called from any goroutine.
func SteppingNow(base time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := base
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(step)
		return t
	}
}
