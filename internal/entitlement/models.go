package entitlement

import (
	"time"

	id "kioskgate/pkg/domain"
)

// Entitlement records that an identity is permitted at a location, optionally
// until ExpiresAt. At most one row exists per (identity, location); absence
// means no access; a nil ExpiresAt means no expiration.
type Entitlement struct {
	IdentityID id.IdentityID
	LocationID id.LocationID
	ExpiresAt  *time.Time
}

// ExpiredAt reports whether the entitlement is expired at the given instant.
// Expiration is strict: a row expiring exactly now is still valid.
func (e Entitlement) ExpiredAt(now time.Time) bool {
	return e.ExpiresAt != nil && e.ExpiresAt.Before(now)
}

// Decision is the outcome of one permission check. Allowed is true iff a row
// exists; Expired is true iff the row exists and has lapsed.
type Decision struct {
	Allowed bool
	Expired bool
}

// Granted reports whether the identity may proceed.
func (d Decision) Granted() bool {
	return d.Allowed && !d.Expired
}
