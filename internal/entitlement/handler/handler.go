package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"kioskgate/internal/entitlement"
	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
	"kioskgate/pkg/platform/httputil"
	"kioskgate/pkg/requestcontext"
)

// Store defines the entitlement persistence the admin endpoints need.
type Store interface {
	ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]entitlement.Entitlement, error)
	ReplaceForIdentity(ctx context.Context, identityID id.IdentityID, entitlements []entitlement.Entitlement) error
}

// Handler wires the entitlement admin endpoints to the store. These endpoints
// belong to the external administration collaborator; the access engine only
// ever reads.
type Handler struct {
	store  Store
	logger *slog.Logger
}

// New constructs an entitlement handler with its dependencies.
func New(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts entitlement endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/identities/{identityID}/entitlements", h.HandleList)
	r.Put("/identities/{identityID}/entitlements", h.HandleReplace)
}

// EntitlementPayload is the HTTP shape of one entitlement row.
type EntitlementPayload struct {
	LocationID string     `json:"location_id"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// ReplaceRequest is the HTTP request body for PUT
// /identities/{identityID}/entitlements. The set replaces the identity's rows
// wholesale; an empty set revokes everything.
type ReplaceRequest struct {
	Entitlements []EntitlementPayload `json:"entitlements"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ReplaceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	seen := make(map[string]struct{}, len(r.Entitlements))
	for i := range r.Entitlements {
		r.Entitlements[i].LocationID = strings.TrimSpace(r.Entitlements[i].LocationID)
		if r.Entitlements[i].LocationID == "" {
			return dErrors.New(dErrors.CodeValidation, "entitlements[].location_id is required")
		}
		if _, dup := seen[r.Entitlements[i].LocationID]; dup {
			return dErrors.New(dErrors.CodeValidation, "entitlements contain a duplicate location")
		}
		seen[r.Entitlements[i].LocationID] = struct{}{}
	}
	return nil
}

// HandleList handles GET /identities/{identityID}/entitlements requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identityID, err := id.ParseIdentityID(chi.URLParam(r, "identityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rows, err := h.store.ListByIdentity(ctx, identityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]EntitlementPayload, len(rows))
	for i, row := range rows {
		out[i] = EntitlementPayload{
			LocationID: row.LocationID.String(),
			ExpiresAt:  row.ExpiresAt,
		}
	}
	httputil.WriteJSON(w, http.StatusOK, ReplaceRequest{Entitlements: out})
}

// HandleReplace handles PUT /identities/{identityID}/entitlements requests.
func (h *Handler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	identityID, err := id.ParseIdentityID(chi.URLParam(r, "identityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ReplaceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rows := make([]entitlement.Entitlement, 0, len(req.Entitlements))
	for _, payload := range req.Entitlements {
		locationID, err := id.ParseLocationID(payload.LocationID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		rows = append(rows, entitlement.Entitlement{
			IdentityID: identityID,
			LocationID: locationID,
			ExpiresAt:  payload.ExpiresAt,
		})
	}

	if err := h.store.ReplaceForIdentity(ctx, identityID, rows); err != nil {
		h.logger.ErrorContext(ctx, "replace entitlements failed",
			"request_id", requestID,
			"identity_id", identityID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "entitlements replaced",
		"request_id", requestID,
		"identity_id", identityID,
		"count", len(rows),
	)
	w.WriteHeader(http.StatusNoContent)
}
