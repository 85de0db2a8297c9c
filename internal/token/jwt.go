// Package token issues and validates the HS256 bearer tokens kiosks and
// auditors present on protected endpoints.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "kioskgate/pkg/domain-errors"
)

// Role scopes what a token may reach.
type Role string

const (
	// RoleKiosk allows driving access sessions.
	RoleKiosk Role = "kiosk"
	// RoleAuditor allows reading the ledger.
	RoleAuditor Role = "auditor"
)

// Claims represents the JWT claims for our access tokens.
type Claims struct {
	KioskID string `json:"kiosk_id,omitempty"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// Manager handles JWT creation and validation.
type Manager struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewManager(signingKey string, ttl time.Duration) *Manager {
	return &Manager{
		signingKey: []byte(signingKey),
		issuer:     "kioskgate",
		ttl:        ttl,
	}
}

// Issue signs a token for the role. kioskID is empty for auditor tokens.
func (m *Manager) Issue(role Role, kioskID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(m.ttl)
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		KioskID: kioskID,
		Role:    string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    m.issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := newToken.SignedString(m.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate parses and verifies a token string.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return m.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
