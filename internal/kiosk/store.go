package kiosk

import (
	"context"
	"time"

	id "kioskgate/pkg/domain"
)

// Store persists registered kiosks.
//
// Implementations return sentinel.ErrNotFound for missing kiosks and
// sentinel.ErrConflict for duplicate registrations.
type Store interface {
	Create(ctx context.Context, k *Kiosk) error
	FindByID(ctx context.Context, kioskID id.KioskID) (*Kiosk, error)
	List(ctx context.Context) ([]Kiosk, error)
	// Touch records a heartbeat, moving LastSeenAt forward.
	Touch(ctx context.Context, kioskID id.KioskID, seenAt time.Time) error
	// DeactivateUnseenSince marks kiosks inactive whose last heartbeat is
	// older than cutoff. Returns the number deactivated.
	DeactivateUnseenSince(ctx context.Context, cutoff time.Time) (int, error)
}
