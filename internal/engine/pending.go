package engine

import (
	"sync"

	"github.com/roach88/tally/internal/ledger"
)

// pendingAppend is a log append that failed after its balance change had
// already committed. Pair is the transfer in-leg when the append is a linked
// pair; nil for a single deposit/withdraw record.
type pendingAppend struct {
	Record ledger.TransactionRecord
	Pair   *ledger.TransactionRecord
}

// appendQueue is a thread-safe FIFO queue of pending log appends.
//
// Unbounded: a store outage must not block operations that have already
// committed their balance change. The queue uses a buffered signal channel
// so the Run loop can wait without spinning and still honor context
// cancellation.
type appendQueue struct {
	mu      sync.Mutex
	pending []pendingAppend
	closed  bool
	signal  chan struct{} // buffered, size 1 - coalesces multiple signals
}

func newAppendQueue() *appendQueue {
	return &appendQueue{
		pending: make([]pendingAppend, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds a pending append to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *appendQueue) Enqueue(p pendingAppend) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.pending = append(q.pending, p)

	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (pendingAppend{}, false) if the queue is empty.
func (q *appendQueue) TryDequeue() (pendingAppend, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return pendingAppend{}, false
	}

	p := q.pending[0]

	// Nil out the slot so the backing array doesn't retain record pointers
	q.pending[0] = pendingAppend{}
	if len(q.pending) == 1 {
		q.pending = q.pending[:0]
	} else {
		q.pending = q.pending[1:]
	}

	return p, true
}

// Wait returns a channel that signals when an append may be available.
func (q *appendQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of pending appends.
func (q *appendQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close marks the queue closed and wakes any waiter. Pending entries remain
// drainable via TryDequeue.
func (q *appendQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
