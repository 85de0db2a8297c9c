// Package verify resolves submitted credentials to identities, one strategy
// per method kind. The session state machine dispatches through the Registry
// so method-specific logic never leaks into the flow.
package verify

import (
	"context"

	"kioskgate/internal/identity"
	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
)

// Credential is the payload a kiosk submits for one method. Exactly one field
// group is meaningful per method kind; each verifier validates its own.
type Credential struct {
	// Token is the scanned QR token (MethodQR).
	Token string
	// PIN is the entered numeric PIN (MethodPIN).
	PIN string
	// Image is the captured frame for face matching (MethodPhoto). The
	// embedding extractor collaborator turns it into a probe vector.
	Image []byte
}

// Verifier resolves a credential to an identity or fails with a coded error.
// Failures are recoverable at the session level: the attempt stays in its
// current awaiting state and the kiosk may retry.
type Verifier interface {
	Kind() id.MethodKind
	Verify(ctx context.Context, cred Credential) (*identity.Identity, error)
}

// Registry dispatches submissions to the verifier for their method kind.
type Registry struct {
	verifiers map[id.MethodKind]Verifier
}

func NewRegistry(verifiers ...Verifier) *Registry {
	byKind := make(map[id.MethodKind]Verifier, len(verifiers))
	for _, v := range verifiers {
		byKind[v.Kind()] = v
	}
	return &Registry{verifiers: byKind}
}

// For returns the verifier for a method kind.
func (r *Registry) For(kind id.MethodKind) (Verifier, error) {
	v, ok := r.verifiers[kind]
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "no verifier registered for method "+kind.String())
	}
	return v, nil
}
