package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kioskgate/internal/identity"
	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
	"kioskgate/pkg/platform/sentinel"
)

// PINVerifier resolves an entered PIN by exact match against active
// identities.
type PINVerifier struct {
	identities identity.Store
}

func NewPINVerifier(identities identity.Store) *PINVerifier {
	return &PINVerifier{identities: identities}
}

func (v *PINVerifier) Kind() id.MethodKind { return id.MethodPIN }

func (v *PINVerifier) Verify(ctx context.Context, cred Credential) (*identity.Identity, error) {
	pin := strings.TrimSpace(cred.PIN)
	if pin == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "pin is required")
	}
	ident, err := v.identities.FindByPIN(ctx, pin)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no active identity matches this pin")
		}
		return nil, fmt.Errorf("pin lookup: %w", err)
	}
	return ident, nil
}
