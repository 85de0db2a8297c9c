package ledger

import (
	"context"
	"time"

	id "kioskgate/pkg/domain"
)

// Store persists ledger entries. Append-only by construction: the interface
// exposes no update or delete, and implementations reject a second entry with
// the same content hash with sentinel.ErrConflict.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	FindByID(ctx context.Context, entryID id.EntryID) (*Entry, error)
	FindByHash(ctx context.Context, hash string) (*Entry, error)
	ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]Entry, error)
	// ListByTimeRange returns entries with from <= Timestamp < to, oldest
	// first.
	ListByTimeRange(ctx context.Context, from, to time.Time) ([]Entry, error)
}
