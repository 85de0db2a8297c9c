package token

import (
	"kioskgate/pkg/platform/middleware/auth"
)

// ValidateBearer implements auth.TokenValidator so the manager plugs straight
// into the route middleware.
func (m *Manager) ValidateBearer(tokenString string) (*auth.Claims, error) {
	claims, err := m.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.Claims{KioskID: claims.KioskID, Role: claims.Role}, nil
}
