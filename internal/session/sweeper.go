package session

import (
	"context"
	"log/slog"
	"time"

	"kioskgate/internal/session/metrics"
)

// Sweeper aborts sessions with no kiosk activity inside the idle window.
// Stores with native expiry report nothing and the sweeper idles. Aborted
// sessions leave no ledger entry.
type Sweeper struct {
	store    Store
	idle     time.Duration
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewSweeper(store Store, idle, interval time.Duration, m *metrics.Metrics, logger *slog.Logger) *Sweeper {
	return &Sweeper{store: store, idle: idle, interval: interval, metrics: m, logger: logger}
}

// Run sweeps on the interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.idle)
	idle, err := s.store.ListIdleSince(ctx, cutoff)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "list idle sessions", "error", err)
		}
		return
	}

	for _, sess := range idle {
		if err := s.store.Delete(ctx, sess.ID); err != nil {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "abort idle session", "session_id", sess.ID, "error", err)
			}
			continue
		}
		if s.metrics != nil {
			s.metrics.IncrementAborted()
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "idle session aborted",
				"session_id", sess.ID,
				"last_activity_at", sess.LastActivityAt,
			)
		}
	}
}
