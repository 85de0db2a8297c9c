package entitlement

import (
	"context"
	"log/slog"
	"time"
)

// Janitor periodically removes entitlement rows whose expiration has passed.
// Expired rows are already harmless (the evaluator treats them as expired on
// read); cleanup only keeps the table from growing unbounded.
type Janitor struct {
	store    Store
	interval time.Duration
	logger   *slog.Logger
}

func NewJanitor(store Store, interval time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{store: store, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed, err := j.store.DeleteExpired(ctx, time.Now())
			if err != nil {
				j.logger.ErrorContext(ctx, "expired entitlement sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				j.logger.InfoContext(ctx, "removed expired entitlements", "count", removed)
			}
		}
	}
}
