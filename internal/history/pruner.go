package history

// pruner.go runs retention for stored history.
//
// The job runs once at start and then every interval, deleting entries
// older than the retention period. Failures are logged and retried on the
// next tick; they never stop the application.

import (
	"context"
	"log/slog"
	"time"
)

// Pruner deletes entries older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// StartPruner blocks, pruning entries older than retention every interval,
// until ctx is cancelled.
func StartPruner(ctx context.Context, p Pruner, retention, interval time.Duration) {
	slog.Info("history pruner started", "retention", retention, "interval", interval)

	prune(ctx, p, retention)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("history pruner stopped")
			return
		case <-ticker.C:
			prune(ctx, p, retention)
		}
	}
}

func prune(ctx context.Context, p Pruner, retention time.Duration) {
	start := time.Now()
	n, err := p.Prune(ctx, start.Add(-retention))
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("history prune failed", "error", err)
		}
		return
	}
	if n > 0 {
		slog.Info("history pruned", "deleted", n, "duration_ms", time.Since(start).Milliseconds())
	}
}
