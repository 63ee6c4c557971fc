// Package handler exposes liveness session endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kyc/internal/liveness"
	"kyc/pkg/httputil"
	"kyc/pkg/kycerrors"
	"kyc/pkg/requestcontext"
)

// Service is the liveness surface the handler depends on.
type Service interface {
	CreateSession(ctx context.Context, customerID string) (liveness.Session, error)
	Result(ctx context.Context, customerID, sessionID string) (liveness.Result, error)
}

// Handler wires liveness endpoints to the liveness service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts liveness endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/customers/{customerID}/liveness-session", h.HandleCreateSession)
	r.Get("/customers/{customerID}/liveness-session/{sessionID}", h.HandleResult)
}

// HandleCreateSession handles POST /customers/{customerID}/liveness-session.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := chi.URLParam(r, "customerID")

	session, err := h.service.CreateSession(ctx, customerID)
	if err != nil {
		h.writeError(ctx, w, "liveness session creation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, session)
}

// HandleResult handles GET /customers/{customerID}/liveness-session/{sessionID}.
func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := chi.URLParam(r, "customerID")
	sessionID := chi.URLParam(r, "sessionID")

	result, err := h.service.Result(ctx, customerID, sessionID)
	if err != nil {
		h.writeError(ctx, w, "liveness session result failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if kycerrors.CodeOf(err) == kycerrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err)
	}
	httputil.WriteError(w, err)
}
