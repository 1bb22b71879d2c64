// Package janitor periodically prunes expired rows from stores that support it.
// Expiry is enforced at read time, so pruning only reclaims space.
package janitor

import (
	"context"
	"log/slog"
	"time"
)

// Pruner deletes rows older than cutoff and reports how many were removed.
type Pruner interface {
	PruneExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type Janitor struct {
	codes     Pruner
	sessions  Pruner
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// New returns a janitor. Codes are kept for retention after they expire or
// are used; sessions are pruned as soon as they expire. Either pruner may be nil.
func New(codes, sessions Pruner, retention, interval time.Duration, now func() time.Time) *Janitor {
	if now == nil {
		now = time.Now
	}
	return &Janitor{codes: codes, sessions: sessions, retention: retention, interval: interval, now: now}
}

// Run sweeps every interval until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	slog.Info("janitor started", "interval", j.interval, "code_retention", j.retention)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs one pruning pass.
func (j *Janitor) Sweep(ctx context.Context) {
	now := j.now()
	if j.codes != nil {
		if n, err := j.codes.PruneExpired(ctx, now.Add(-j.retention)); err != nil {
			slog.ErrorContext(ctx, "prune verification codes", "error", err)
		} else if n > 0 {
			slog.InfoContext(ctx, "pruned verification codes", "count", n)
		}
	}
	if j.sessions != nil {
		if n, err := j.sessions.PruneExpired(ctx, now); err != nil {
			slog.ErrorContext(ctx, "prune sessions", "error", err)
		} else if n > 0 {
			slog.InfoContext(ctx, "pruned sessions", "count", n)
		}
	}
}
