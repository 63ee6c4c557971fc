package document

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"kyc/internal/audit"
	"kyc/internal/customer/metrics"
	"kyc/internal/customer/models"
	"kyc/internal/customer/store"
	"kyc/internal/progress"
	"kyc/pkg/kycerrors"
	"kyc/pkg/requestcontext"
)

// previewTTL bounds how long a signed preview link stays usable.
const previewTTL = 60 * time.Second

// Service uploads documents into the blob store and folds their bookkeeping
// into the customer record.
type Service struct {
	customers store.Store
	blobs     BlobStore
	audit     *audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(customers store.Store, blobs BlobStore, publisher *audit.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		customers: customers,
		blobs:     blobs,
		audit:     publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Upload stores the file and records it on the customer, replacing any
// previous document of the same type. Progress is recomputed immediately so a
// subsequent read reflects the upload without a verification run.
func (s *Service) Upload(ctx context.Context, customerID, organisationID string, documentType models.DocumentType, fileName string, data []byte) (*models.Document, error) {
	if !models.KnownDocumentType(documentType) {
		return nil, kycerrors.New(kycerrors.CodeInvalidInput,
			"Invalid input: documentType (%s) is not recognised", documentType)
	}

	customer, err := s.customers.Get(ctx, customerID, organisationID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	ext := fileExtension(fileName)
	key := models.StorageKey(organisationID, customerID, documentType, ext)

	if err := s.blobs.Put(ctx, key, data); err != nil {
		s.logger.ErrorContext(ctx, "document upload failed",
			"customer_id", customerID,
			"document_type", documentType,
			"error", err)
		return nil, kycerrors.Wrap(err, kycerrors.CodeInternal, "could not store document")
	}

	doc := models.Document{
		DocumentType:     documentType,
		DocumentStatus:   models.DocumentUploaded,
		FileExtension:    ext,
		OriginalFileName: fileName,
		StorageKey:       key,
		DateUploaded:     now,
	}

	before := append([]models.Document(nil), customer.Documents...)
	customer.PutDocument(doc)
	customer.Progress = progress.Calculate(customer).OverallProgressPercent
	customer.DateUpdated = now

	if err := s.customers.Put(ctx, customer); err != nil {
		return nil, kycerrors.Wrap(err, kycerrors.CodeInternal, "could not save customer")
	}

	s.audit.Emit(ctx, audit.Request{
		CustomerID:     customerID,
		OrganisationID: organisationID,
		CreatedBy:      requestcontext.RequestedBy(ctx),
		Action:         audit.ActionDocumentUploaded,
		PreChange:      map[string]any{"documents": before},
		PostChange:     map[string]any{"documents": customer.Documents},
	})
	if s.metrics != nil {
		s.metrics.IncrementDocumentsUploaded()
	}

	s.logger.InfoContext(ctx, "document uploaded",
		"customer_id", customerID,
		"document_type", documentType,
		"storage_key", key)
	return &doc, nil
}

// Preview returns a short-lived signed URL for an uploaded document.
func (s *Service) Preview(ctx context.Context, customerID, organisationID string, documentType models.DocumentType) (string, error) {
	if !models.KnownDocumentType(documentType) {
		return "", kycerrors.New(kycerrors.CodeInvalidInput,
			"Invalid input: documentType (%s) is not recognised", documentType)
	}

	customer, err := s.customers.Get(ctx, customerID, organisationID)
	if err != nil {
		return "", err
	}

	doc := customer.DocumentOfType(documentType)
	if doc == nil || doc.StorageKey == "" {
		return "", kycerrors.New(kycerrors.CodeNotFound,
			"Customer with id (%s) does not have a document of type (%s)", customerID, documentType)
	}

	url, err := s.blobs.SignedReadURL(ctx, doc.StorageKey, previewTTL)
	if err != nil {
		return "", kycerrors.Wrap(err, kycerrors.CodeInternal, "could not create preview link")
	}
	return url, nil
}

// DeleteAll removes every stored binary for the customer. Used when the
// customer record itself is removed.
func (s *Service) DeleteAll(ctx context.Context, customer *models.Customer) error {
	var keys []string
	for _, doc := range customer.Documents {
		if doc.StorageKey != "" {
			keys = append(keys, doc.StorageKey)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.blobs.DeleteMany(ctx, keys); err != nil {
		return kycerrors.Wrap(err, kycerrors.CodeInternal, "could not delete documents")
	}
	return nil
}

func fileExtension(fileName string) string {
	if i := strings.LastIndex(fileName, "."); i >= 0 && i < len(fileName)-1 {
		return fileName[i+1:]
	}
	return "unk"
}
