// Package handler exposes the customer lifecycle over HTTP. Authentication
// middleware has already resolved the organisation before these handlers run.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kyc/internal/customer/models"
	"kyc/internal/customer/service"
	"kyc/pkg/httputil"
	"kyc/pkg/kycerrors"
	"kyc/pkg/requestcontext"
)

// uploads larger than this are rejected before they reach blob storage
const maxUploadBytes = 10 << 20

// Service is the customer lifecycle surface the handler depends on.
type Service interface {
	Create(ctx context.Context, params service.CreateParams) (*models.Customer, error)
	Get(ctx context.Context, customerID string) (*models.Customer, error)
	List(ctx context.Context) ([]*models.Customer, error)
	Update(ctx context.Context, customerID string, params service.UpdateParams) (*models.Customer, error)
	Delete(ctx context.Context, customerID string) error
	Verify(ctx context.Context, customerID string) (*models.Customer, error)
}

// DocumentService uploads and previews verification documents.
type DocumentService interface {
	Upload(ctx context.Context, customerID, organisationID string, documentType models.DocumentType, fileName string, data []byte) (*models.Document, error)
	Preview(ctx context.Context, customerID, organisationID string, documentType models.DocumentType) (string, error)
}

// Handler wires customer endpoints to the customer and document services.
type Handler struct {
	service   Service
	documents DocumentService
	logger    *slog.Logger
}

// New constructs a customer handler with its dependencies.
func New(service Service, documents DocumentService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, documents: documents, logger: logger}
}

// Register mounts customer endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Route("/{customerID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Patch("/", h.HandleUpdate)
			r.Delete("/", h.HandleDelete)
			r.Post("/verify", h.HandleVerify)
			r.Post("/documents/{documentType}", h.HandleUploadDocument)
			r.Get("/documents/{documentType}/preview", h.HandlePreviewDocument)
		})
	})
}

// HandleCreate handles POST /customers.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[CreateCustomerRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	customer, err := h.service.Create(ctx, req.ToParams())
	if err != nil {
		h.writeError(ctx, w, "customer creation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, customer)
}

// HandleList handles GET /customers.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customers, err := h.service.List(ctx)
	if err != nil {
		h.writeError(ctx, w, "customer list failed", err)
		return
	}
	if customers == nil {
		customers = []*models.Customer{}
	}
	httputil.WriteJSON(w, http.StatusOK, customers)
}

// HandleGet handles GET /customers/{customerID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customer, err := h.service.Get(ctx, chi.URLParam(r, "customerID"))
	if err != nil {
		h.writeError(ctx, w, "customer fetch failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, customer)
}

// HandleUpdate handles PATCH /customers/{customerID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := httputil.Decode[UpdateCustomerRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	customer, err := h.service.Update(ctx, chi.URLParam(r, "customerID"), req.ToParams())
	if err != nil {
		h.writeError(ctx, w, "customer update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, customer)
}

// HandleDelete handles DELETE /customers/{customerID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.Delete(ctx, chi.URLParam(r, "customerID")); err != nil {
		h.writeError(ctx, w, "customer deletion failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleVerify handles POST /customers/{customerID}/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customer, err := h.service.Verify(ctx, chi.URLParam(r, "customerID"))
	if err != nil {
		h.writeError(ctx, w, "verification run failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, customer)
}

// HandleUploadDocument handles POST /customers/{customerID}/documents/{documentType}.
// The image arrives either as a multipart "file" part or as the raw body.
func (h *Handler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := chi.URLParam(r, "customerID")
	documentType := models.DocumentType(chi.URLParam(r, "documentType"))

	fileName, data, err := readUpload(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	doc, err := h.documents.Upload(ctx, customerID, requestcontext.OrganisationID(ctx), documentType, fileName, data)
	if err != nil {
		h.writeError(ctx, w, "document upload failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

// HandlePreviewDocument handles GET /customers/{customerID}/documents/{documentType}/preview.
// The response carries a short-lived signed URL, never the binary itself.
func (h *Handler) HandlePreviewDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := chi.URLParam(r, "customerID")
	documentType := models.DocumentType(chi.URLParam(r, "documentType"))

	url, err := h.documents.Preview(ctx, customerID, requestcontext.OrganisationID(ctx), documentType)
	if err != nil {
		h.writeError(ctx, w, "document preview failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

func readUpload(r *http.Request) (fileName string, data []byte, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	if file, header, ferr := r.FormFile("file"); ferr == nil {
		defer file.Close()
		data, err = io.ReadAll(file)
		if err != nil {
			return "", nil, kycerrors.Wrap(err, kycerrors.CodeInvalidInput, "could not read uploaded file")
		}
		return header.Filename, data, nil
	}

	data, err = io.ReadAll(r.Body)
	if err != nil {
		return "", nil, kycerrors.Wrap(err, kycerrors.CodeInvalidInput, "could not read request body")
	}
	if len(data) == 0 {
		return "", nil, kycerrors.New(kycerrors.CodeInvalidInput, "Missing input: file")
	}
	return r.Header.Get("X-File-Name"), data, nil
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if kycerrors.CodeOf(err) == kycerrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err)
	}
	httputil.WriteError(w, err)
}
