package location

import (
	id "kioskgate/pkg/domain"
)

// Location is one controlled emplacement with per-direction method flags.
// A location in actual use must have at least one method per used direction;
// policy resolution fails closed when a set is empty.
type Location struct {
	ID           id.LocationID
	Name         string
	Type         string
	EntryMethods id.MethodSet
	ExitMethods  id.MethodSet
}

// MethodsFor returns the configured method set for a direction.
func (l Location) MethodsFor(direction id.Direction) id.MethodSet {
	if direction == id.DirectionExit {
		return l.ExitMethods
	}
	return l.EntryMethods
}
