package session

import (
	"context"
	"time"

	id "kioskgate/pkg/domain"
)

// Store holds in-flight sessions keyed by session ID. This is the only
// mutable state the engine owns; everything else is read from collaborator
// stores.
//
// Update is a compare-and-swap: it succeeds only when the stored version
// equals the version the caller read, and increments it. A lost race returns
// sentinel.ErrConflict so the caller can re-read and converge on the
// idempotent no-op path.
type Store interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, sessionID id.SessionID) (*Session, error)
	Update(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, sessionID id.SessionID) error
	// ListIdleSince returns non-terminal sessions with no activity since
	// cutoff, for the inactivity sweeper. Stores that expire sessions
	// natively (Redis TTL) may return nothing.
	ListIdleSince(ctx context.Context, cutoff time.Time) ([]Session, error)
}
