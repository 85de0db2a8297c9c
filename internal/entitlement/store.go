package entitlement

import (
	"context"
	"time"

	id "kioskgate/pkg/domain"
)

// Store persists entitlement rows. The evaluator reads them live; writes are
// owned by the external admin collaborator through ReplaceForIdentity, which
// must be all-or-nothing so a concurrent permission check never observes a
// partial set.
type Store interface {
	Find(ctx context.Context, identityID id.IdentityID, locationID id.LocationID) (*Entitlement, error)
	ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]Entitlement, error)
	// ReplaceForIdentity atomically deletes the identity's rows and inserts
	// the given set.
	ReplaceForIdentity(ctx context.Context, identityID id.IdentityID, entitlements []Entitlement) error
	// DeleteExpired removes rows whose expiration is strictly before cutoff
	// and returns how many were removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}
