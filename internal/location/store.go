package location

import (
	"context"

	id "kioskgate/pkg/domain"
)

// Store is the read surface the engine needs from the location subsystem.
// Location administration belongs to the external admin collaborator.
type Store interface {
	FindByID(ctx context.Context, locationID id.LocationID) (*Location, error)
}
