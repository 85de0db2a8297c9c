package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kioskgate/internal/kiosk"
	id "kioskgate/pkg/domain"
	"kioskgate/pkg/platform/httputil"
	"kioskgate/pkg/requestcontext"
)

// Service defines the interface for kiosk registry operations.
type Service interface {
	Register(ctx context.Context, name string, locationID id.LocationID) (*kiosk.Enrollment, error)
	Authenticate(ctx context.Context, kioskID id.KioskID, secret string) (*kiosk.Grant, error)
	Heartbeat(ctx context.Context, kioskID id.KioskID) error
	List(ctx context.Context) ([]kiosk.Kiosk, error)
}

// Handler wires kiosk registry endpoints to the kiosk service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a kiosk handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the registry management endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/kiosks", h.HandleRegister)
	r.Get("/kiosks", h.HandleList)
}

// RegisterPublic mounts the endpoints a kiosk reaches before it has a token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/kiosks/token", h.HandleToken)
}

// RegisterAuthed mounts the endpoints behind kiosk token auth.
func (h *Handler) RegisterAuthed(r chi.Router) {
	r.Post("/kiosks/{kioskID}/heartbeat", h.HandleHeartbeat)
}

// RegisterResponse is the HTTP response for POST /kiosks. Secret appears here
// and nowhere else.
type RegisterResponse struct {
	KioskID    string `json:"kiosk_id"`
	Name       string `json:"name"`
	LocationID string `json:"location_id"`
	Secret     string `json:"secret"`
}

// TokenResponse is the HTTP response for POST /kiosks/token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// KioskResponse is the HTTP shape of one registered kiosk.
type KioskResponse struct {
	KioskID    string    `json:"kiosk_id"`
	Name       string    `json:"name"`
	LocationID string    `json:"location_id"`
	Active     bool      `json:"active"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// HandleRegister handles POST /kiosks requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	enrollment, err := h.service.Register(ctx, req.Name, req.ParsedLocationID())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, RegisterResponse{
		KioskID:    enrollment.Kiosk.ID.String(),
		Name:       enrollment.Kiosk.Name,
		LocationID: enrollment.Kiosk.LocationID.String(),
		Secret:     enrollment.Secret,
	})
}

// HandleToken handles POST /kiosks/token requests.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	grant, err := h.service.Authenticate(ctx, req.ParsedKioskID(), req.Secret)
	if err != nil {
		h.logger.WarnContext(ctx, "kiosk authentication failed",
			"request_id", requestID,
			"kiosk_id", req.KioskID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, TokenResponse{
		Token:     grant.Token,
		ExpiresAt: grant.ExpiresAt,
	})
}

// HandleHeartbeat handles POST /kiosks/{kioskID}/heartbeat requests.
func (h *Handler) HandleHeartbeat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kioskID, err := id.ParseKioskID(chi.URLParam(r, "kioskID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Heartbeat(ctx, kioskID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleList handles GET /kiosks requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kiosks, err := h.service.List(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]KioskResponse, len(kiosks))
	for i, k := range kiosks {
		out[i] = KioskResponse{
			KioskID:    k.ID.String(),
			Name:       k.Name,
			LocationID: k.LocationID.String(),
			Active:     k.Active,
			LastSeenAt: k.LastSeenAt,
		}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
