// Package http assembles the route tree. Handlers own their endpoints; this
// package only decides which middleware guards which group.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	entitlementhandler "kioskgate/internal/entitlement/handler"
	kioskhandler "kioskgate/internal/kiosk/handler"
	ledgerhandler "kioskgate/internal/ledger/handler"
	sessionhandler "kioskgate/internal/session/handler"
	"kioskgate/internal/token"
	"kioskgate/pkg/platform/middleware/auth"
	"kioskgate/pkg/platform/middleware/requestid"
	"kioskgate/pkg/platform/middleware/requesttime"
)

// HealthChecker reports whether a backing resource is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the route tree mounts.
type Deps struct {
	Sessions     *sessionhandler.Handler
	Ledger       *ledgerhandler.Handler
	Kiosks       *kioskhandler.Handler
	Entitlements *entitlementhandler.Handler
	Tokens       auth.TokenValidator
	Logger       *slog.Logger
	Health       []HealthChecker
}

// NewRouter builds the full route tree.
//
// Route groups:
//   - public: health, metrics, kiosk token exchange
//   - kiosk token: session lifecycle, heartbeat
//   - auditor token: ledger queries, registry and entitlement administration
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", healthHandler(deps.Health))
	r.Handle("/metrics", promhttp.Handler())
	deps.Kiosks.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(deps.Tokens, string(token.RoleKiosk), deps.Logger))
		deps.Sessions.Register(r)
		deps.Kiosks.RegisterAuthed(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(deps.Tokens, string(token.RoleAuditor), deps.Logger))
		deps.Ledger.Register(r)
		deps.Kiosks.RegisterAdmin(r)
		deps.Entitlements.Register(r)
	})

	return r
}

func healthHandler(checks []HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
