package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kioskgate/internal/session"
	"kioskgate/internal/verify"
	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
	"kioskgate/pkg/platform/httputil"
	"kioskgate/pkg/requestcontext"
)

// Service defines the interface for session operations.
type Service interface {
	Start(ctx context.Context, locationID id.LocationID, direction id.Direction) (*session.Session, error)
	Submit(ctx context.Context, sessionID id.SessionID, kind id.MethodKind, cred verify.Credential) (*session.SubmitResult, error)
	Reset(ctx context.Context, sessionID id.SessionID) error
	Get(ctx context.Context, sessionID id.SessionID) (*session.Session, error)
}

// Handler wires session endpoints to the session service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a session handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts session endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/sessions", h.HandleStart)
	r.Get("/sessions/{sessionID}", h.HandleGet)
	r.Post("/sessions/{sessionID}/submit", h.HandleSubmit)
	r.Post("/sessions/{sessionID}/reset", h.HandleReset)
}

// HandleStart handles POST /sessions requests.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[StartRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	sess, err := h.service.Start(ctx, req.ParsedLocationID(), req.ParsedDirection())
	if err != nil {
		h.logger.WarnContext(ctx, "session start failed",
			"request_id", requestID,
			"location_id", req.LocationID,
			"direction", req.Direction,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromSession(sess))
}

// HandleGet handles GET /sessions/{sessionID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sess, err := h.service.Get(ctx, sessionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromSession(sess))
}

// HandleSubmit handles POST /sessions/{sessionID}/submit requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Submit(ctx, sessionID, req.ParsedMethod(), req.ParsedCredential())
	if err != nil {
		level := slog.LevelWarn
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			level = slog.LevelError
		}
		h.logger.Log(ctx, level, "credential submission failed",
			"request_id", requestID,
			"session_id", sessionID,
			"method", req.Method,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "credential submitted",
		"request_id", requestID,
		"session_id", sessionID,
		"method", req.Method,
		"status", result.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleReset handles POST /sessions/{sessionID}/reset requests.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Reset(ctx, sessionID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "session reset",
		"request_id", requestID,
		"session_id", sessionID,
	)
	w.WriteHeader(http.StatusNoContent)
}
