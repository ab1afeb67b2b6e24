package engine

import (
	"context"
	"log/slog"
	"time"
)

// Run drains the pending-append queue until the context is cancelled or
// Stop() is called. Appends that failed after their balance commit are
// retried here; the correlation-id protocol makes every retry idempotent,
// so a retry racing an earlier partial write cannot duplicate history.
//
// ERROR HANDLING: a failed retry is logged and re-queued after a delay -
// the log entry must eventually land, and reconciliation covers the window
// until it does.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("ledger engine retry loop starting")

	for {
		p, ok := e.pending.TryDequeue()
		if ok {
			if err := e.retryAppend(ctx, p); err != nil {
				slog.Warn("pending log append failed, re-queueing",
					"correlation_id", p.Record.CorrelationID,
					"account_id", p.Record.AccountID,
					"error", err,
				)
				select {
				case <-ctx.Done():
					e.pending.Close()
					return ctx.Err()
				case <-time.After(e.backoffBase):
				}
				e.pending.Enqueue(p)
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("retry loop stopping: context cancelled",
				"pending", e.pending.Len(),
			)
			e.pending.Close()
			return ctx.Err()

		case <-e.pending.Wait():
			// Signal received - loop back to TryDequeue. The signal
			// channel closes when the queue is closed, making this case
			// fire immediately.
			if e.pending.Len() == 0 {
				slog.Info("retry loop stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop gracefully shuts down the retry loop.
// Closes the pending queue, which will cause Run() to return.
func (e *Engine) Stop() {
	e.pending.Close()
}

// PendingAppends returns the number of queued log appends awaiting retry.
// Useful for monitoring and tests.
func (e *Engine) PendingAppends() int {
	return e.pending.Len()
}

// retryAppend replays one pending append. Idempotent via correlation ids.
func (e *Engine) retryAppend(ctx context.Context, p pendingAppend) error {
	if p.Pair != nil {
		_, _, _, err := e.log.AppendTransferPair(ctx, p.Record, *p.Pair)
		return err
	}
	_, _, err := e.log.AppendRecord(ctx, p.Record)
	return err
}
