package identity

import (
	id "kioskgate/pkg/domain"
)

// Identity is one enrolled person. QRToken and PIN are unique among active
// identities; FaceEmbedding is the enrolled face vector (empty when the person
// has no face enrollment). Inactive identities never resolve from a verifier.
type Identity struct {
	ID            id.IdentityID
	NationalID    string
	FirstName     string
	LastName      string
	QRToken       string
	PIN           string
	FaceEmbedding []float64
	Active        bool
}

// HasEmbedding reports whether the identity can participate in face matching.
func (i Identity) HasEmbedding() bool {
	return len(i.FaceEmbedding) > 0
}
