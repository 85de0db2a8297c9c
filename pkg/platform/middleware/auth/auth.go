// Package auth gates protected routes behind bearer tokens. Kiosk tokens
// drive sessions; auditor tokens read the ledger and manage the registry.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
	"kioskgate/pkg/platform/httputil"
	"kioskgate/pkg/requestcontext"
)

// Claims are the token fields the middleware needs.
type Claims struct {
	KioskID string
	Role    string
}

// TokenValidator validates a raw bearer token and returns its claims.
type TokenValidator interface {
	ValidateBearer(tokenString string) (*Claims, error)
}

// RequireRole rejects requests without a valid bearer token carrying the
// role. The kiosk ID from kiosk tokens is stored in the request context for
// handlers and logs.
func RequireRole(validator TokenValidator, role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "bearer token required"))
				return
			}

			claims, err := validator.ValidateBearer(raw)
			if err != nil {
				if logger != nil {
					logger.WarnContext(ctx, "invalid bearer token",
						"request_id", requestcontext.RequestID(ctx),
						"error", err,
					)
				}
				httputil.WriteError(w, err)
				return
			}
			if claims.Role != role {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token role is not permitted here"))
				return
			}

			if claims.KioskID != "" {
				if kioskID, err := id.ParseKioskID(claims.KioskID); err == nil {
					ctx = requestcontext.WithKioskID(ctx, kioskID)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
