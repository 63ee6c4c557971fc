package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kyc/internal/audit"
	"kyc/pkg/httputil"
	"kyc/pkg/kycerrors"
	"kyc/pkg/requestcontext"
)

// Handler exposes the audit trail read endpoints. Entries are written only by
// the background worker; there is no write surface here.
type Handler struct {
	store  audit.Store
	logger *slog.Logger
}

func New(store audit.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Register mounts audit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit-trail", h.HandleList)
	r.Get("/audit-trail/{id}", h.HandleGet)
}

// HandleList handles GET /audit-trail requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	organisationID := requestcontext.OrganisationID(ctx)
	if organisationID == "" {
		httputil.WriteError(w, kycerrors.New(kycerrors.CodeUnauthorized, "authentication required"))
		return
	}

	entries, err := h.store.ListByOrganisation(ctx, organisationID)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit list failed",
			"organisation_id", organisationID,
			"error", err)
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

// HandleGet handles GET /audit-trail/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	organisationID := requestcontext.OrganisationID(ctx)
	if organisationID == "" {
		httputil.WriteError(w, kycerrors.New(kycerrors.CodeUnauthorized, "authentication required"))
		return
	}

	entry, err := h.store.Get(ctx, chi.URLParam(r, "id"), organisationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}
