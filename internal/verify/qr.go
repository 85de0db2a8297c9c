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

// QRVerifier resolves a scanned token by exact match against active
// identities.
type QRVerifier struct {
	identities identity.Store
}

func NewQRVerifier(identities identity.Store) *QRVerifier {
	return &QRVerifier{identities: identities}
}

func (v *QRVerifier) Kind() id.MethodKind { return id.MethodQR }

func (v *QRVerifier) Verify(ctx context.Context, cred Credential) (*identity.Identity, error) {
	token := strings.TrimSpace(cred.Token)
	if token == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "qr token is required")
	}
	ident, err := v.identities.FindByQRToken(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no active identity matches this qr token")
		}
		return nil, fmt.Errorf("qr lookup: %w", err)
	}
	return ident, nil
}
