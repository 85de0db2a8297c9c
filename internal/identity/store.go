package identity

import (
	"context"

	id "kioskgate/pkg/domain"
)

// Store is the read surface the engine needs from the identity subsystem.
// Enrollment and administration are owned by an external collaborator; the
// engine only resolves credentials. Token and PIN lookups must only return
// active identities.
type Store interface {
	FindByID(ctx context.Context, identityID id.IdentityID) (*Identity, error)
	FindByQRToken(ctx context.Context, token string) (*Identity, error)
	FindByPIN(ctx context.Context, pin string) (*Identity, error)
	// ListActiveWithEmbeddings returns every active identity that has a face
	// enrollment. The face verifier scans this set linearly; replace with an
	// indexed nearest-neighbor search if the population grows materially.
	ListActiveWithEmbeddings(ctx context.Context) ([]Identity, error)
}
