// Package policy derives the ordered verification requirements for one access
// attempt. This is pure domain logic - no I/O, no side effects.
package policy

import (
	"kioskgate/internal/location"
	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
)

// Resolver turns a location's per-direction method flags into the ordered
// list of methods a session must complete.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve filters the location's configured methods for the direction and
// returns them in canonical precedence order (QR, PIN, PHOTO). A location
// with no enabled method for the direction must never grant access, so the
// empty case fails closed with an invalid-policy error.
func (r *Resolver) Resolve(loc location.Location, direction id.Direction) ([]id.MethodKind, error) {
	configured := loc.MethodsFor(direction)

	ordered := make([]id.MethodKind, 0, configured.Len())
	for _, kind := range id.MethodOrder {
		if configured.Has(kind) {
			ordered = append(ordered, kind)
		}
	}

	if len(ordered) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidPolicy, "location has no verification methods configured for this direction")
	}
	return ordered, nil
}
