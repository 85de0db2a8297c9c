// Package kiosk is the registry of physical devices allowed to drive access
// sessions. A kiosk enrolls once, receives a secret, and exchanges it for a
// short-lived bearer token on boot.
package kiosk

import (
	"time"

	id "kioskgate/pkg/domain"
)

// Kiosk is one registered device, pinned to the location it fronts.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - SecretHash holds a bcrypt hash; the plaintext is returned once at
//     enrollment and never stored
//   - LocationID is immutable after enrollment
type Kiosk struct {
	ID         id.KioskID    `json:"id"`
	Name       string        `json:"name"`
	LocationID id.LocationID `json:"location_id"`
	SecretHash string        `json:"-"`
	Active     bool          `json:"active"`
	LastSeenAt time.Time     `json:"last_seen_at"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Clone returns an independent copy.
func (k *Kiosk) Clone() *Kiosk {
	out := *k
	return &out
}
