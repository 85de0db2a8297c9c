package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"kioskgate/internal/ledger"
	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
	"kioskgate/pkg/platform/httputil"
	"kioskgate/pkg/requestcontext"
)

// Service defines the read-only interface for ledger queries. Entries are
// appended by the session engine; nothing here can write.
type Service interface {
	GetByID(ctx context.Context, entryID id.EntryID) (*ledger.Entry, error)
	GetByHash(ctx context.Context, hash string) (*ledger.Entry, error)
	ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]ledger.Entry, error)
	ListByTimeRange(ctx context.Context, from, to time.Time) ([]ledger.Entry, error)
}

// Handler wires ledger query endpoints to the ledger service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a ledger handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts ledger endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/ledger", h.HandleList)
	r.Get("/ledger/{entryID}", h.HandleGet)
}

// HandleGet handles GET /ledger/{entryID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entryID, err := id.ParseEntryID(chi.URLParam(r, "entryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.service.GetByID(ctx, entryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromEntry(entry))
}

// HandleList handles GET /ledger requests. Exactly one filter is accepted:
// identity_id, hash, or a from/to time range.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	q := r.URL.Query()

	identityParam := strings.TrimSpace(q.Get("identity_id"))
	hashParam := strings.TrimSpace(q.Get("hash"))
	fromParam := strings.TrimSpace(q.Get("from"))
	toParam := strings.TrimSpace(q.Get("to"))

	switch {
	case hashParam != "":
		entry, err := h.service.GetByHash(ctx, hashParam)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, FromEntries([]ledger.Entry{*entry}))

	case identityParam != "":
		identityID, err := id.ParseIdentityID(identityParam)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		entries, err := h.service.ListByIdentity(ctx, identityID)
		if err != nil {
			h.logger.ErrorContext(ctx, "list ledger entries failed",
				"request_id", requestID,
				"identity_id", identityID,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, FromEntries(entries))

	case fromParam != "" || toParam != "":
		from, err := time.Parse(time.RFC3339, fromParam)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "from must be an RFC 3339 timestamp"))
			return
		}
		to, err := time.Parse(time.RFC3339, toParam)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "to must be an RFC 3339 timestamp"))
			return
		}
		entries, err := h.service.ListByTimeRange(ctx, from, to)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, FromEntries(entries))

	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "a filter is required: identity_id, hash, or from/to"))
	}
}
