package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyc/internal/customer/models"
	"kyc/internal/customer/service"
	"kyc/pkg/kycerrors"
	"kyc/pkg/requestcontext"
)

type fakeService struct {
	customer *models.Customer
	err      error

	createParams *service.CreateParams
	updateParams *service.UpdateParams
	deletedID    string
	verifiedID   string
}

func (f *fakeService) Create(_ context.Context, params service.CreateParams) (*models.Customer, error) {
	f.createParams = &params
	return f.customer, f.err
}

func (f *fakeService) Get(context.Context, string) (*models.Customer, error) {
	return f.customer, f.err
}

func (f *fakeService) List(context.Context) ([]*models.Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.customer == nil {
		return nil, nil
	}
	return []*models.Customer{f.customer}, nil
}

func (f *fakeService) Update(_ context.Context, _ string, params service.UpdateParams) (*models.Customer, error) {
	f.updateParams = &params
	return f.customer, f.err
}

func (f *fakeService) Delete(_ context.Context, customerID string) error {
	f.deletedID = customerID
	return f.err
}

func (f *fakeService) Verify(_ context.Context, customerID string) (*models.Customer, error) {
	f.verifiedID = customerID
	return f.customer, f.err
}

type fakeDocuments struct {
	doc *models.Document
	url string
	err error

	uploadedType models.DocumentType
	uploadedName string
	uploadedData []byte
	uploadedOrg  string
}

func (f *fakeDocuments) Upload(_ context.Context, _, organisationID string, documentType models.DocumentType, fileName string, data []byte) (*models.Document, error) {
	f.uploadedOrg = organisationID
	f.uploadedType = documentType
	f.uploadedName = fileName
	f.uploadedData = data
	return f.doc, f.err
}

func (f *fakeDocuments) Preview(context.Context, string, string, models.DocumentType) (string, error) {
	return f.url, f.err
}

func newRouter(svc Service, docs DocumentService) chi.Router {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithOrganisationID(req.Context(), "ORG-001")
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	New(svc, docs, nil).Register(r)
	return r
}

func sampleCustomer() *models.Customer {
	return models.NewCustomer("CUST-001", "ORG-001",
		[]models.DocumentType{models.DocNationalID}, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
}

func TestHandleCreate(t *testing.T) {
	svc := &fakeService{customer: sampleCustomer()}
	router := newRouter(svc, &fakeDocuments{})

	body, _ := json.Marshal(validCreateRequest())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers", bytes.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.createParams)
	assert.Equal(t, "CUST-001", svc.createParams.ID)
	assert.Equal(t, models.GenderFemale, svc.createParams.Gender)

	var got models.Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "CUST-001", got.ID)
}

func TestHandleCreateValidationFailure(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(svc, &fakeDocuments{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(`{"id":"CUST-001"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing input: firstName")
	assert.Nil(t, svc.createParams, "service never called on invalid input")
}

func TestHandleCreateRejectsUnknownFields(t *testing.T) {
	router := newRouter(&fakeService{}, &fakeDocuments{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(`{"surprise":true}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateConflict(t *testing.T) {
	svc := &fakeService{err: kycerrors.New(kycerrors.CodeConflict, "Duplicate customer found with id (CUST-001)")}
	router := newRouter(svc, &fakeDocuments{})

	body, _ := json.Marshal(validCreateRequest())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers", bytes.NewReader(body)))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Duplicate customer found with id (CUST-001)")
}

func TestHandleGet(t *testing.T) {
	router := newRouter(&fakeService{customer: sampleCustomer()}, &fakeDocuments{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/CUST-001", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"CUST-001"`)
}

func TestHandleGetNotFound(t *testing.T) {
	svc := &fakeService{err: kycerrors.New(kycerrors.CodeNotFound, "customer not found")}
	router := newRouter(svc, &fakeDocuments{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/CUST-404", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleList(t *testing.T) {
	t.Run("with customers", func(t *testing.T) {
		router := newRouter(&fakeService{customer: sampleCustomer()}, &fakeDocuments{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var got []models.Customer
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		router := newRouter(&fakeService{}, &fakeDocuments{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String())
	})
}

func TestHandleUpdate(t *testing.T) {
	svc := &fakeService{customer: sampleCustomer()}
	router := newRouter(svc, &fakeDocuments{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/customers/CUST-001",
		strings.NewReader(`{"manuallyVerified":true}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.updateParams)
	require.NotNil(t, svc.updateParams.ManuallyVerified)
	assert.True(t, *svc.updateParams.ManuallyVerified)
	assert.Nil(t, svc.updateParams.FirstName)
}

func TestHandleDelete(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(svc, &fakeDocuments{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/customers/CUST-001", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "CUST-001", svc.deletedID)
}

func TestHandleVerify(t *testing.T) {
	customer := sampleCustomer()
	customer.SetStatus(models.StatusVerified, "Automatically verified by system.")
	customer.Progress = 100
	svc := &fakeService{customer: customer}
	router := newRouter(svc, &fakeDocuments{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers/CUST-001/verify", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CUST-001", svc.verifiedID)
	assert.Contains(t, rec.Body.String(), `"progress":100`)
}

func TestHandleVerifyMissingDocuments(t *testing.T) {
	svc := &fakeService{err: kycerrors.New(kycerrors.CodePreconditionFailed,
		"Please upload all required documents: NATIONAL_ID, SELFIE")}
	router := newRouter(svc, &fakeDocuments{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers/CUST-001/verify", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please upload all required documents")
}

func TestHandleUploadDocumentMultipart(t *testing.T) {
	docs := &fakeDocuments{doc: &models.Document{
		DocumentType:   models.DocNationalID,
		DocumentStatus: models.DocumentUploaded,
		StorageKey:     "ORG-001_CUST-001_NATIONAL_ID.png",
	}}
	router := newRouter(&fakeService{}, docs)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "front scan.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("img"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/customers/CUST-001/documents/NATIONAL_ID", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ORG-001", docs.uploadedOrg)
	assert.Equal(t, models.DocNationalID, docs.uploadedType)
	assert.Equal(t, "front scan.png", docs.uploadedName)
	assert.Equal(t, []byte("img"), docs.uploadedData)
}

func TestHandleUploadDocumentRawBody(t *testing.T) {
	docs := &fakeDocuments{doc: &models.Document{DocumentType: models.DocSelfie}}
	router := newRouter(&fakeService{}, docs)

	req := httptest.NewRequest(http.MethodPost, "/customers/CUST-001/documents/SELFIE",
		bytes.NewReader([]byte("selfie-bytes")))
	req.Header.Set("X-File-Name", "face.jpg")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "face.jpg", docs.uploadedName)
	assert.Equal(t, []byte("selfie-bytes"), docs.uploadedData)
}

func TestHandleUploadDocumentEmptyBody(t *testing.T) {
	docs := &fakeDocuments{}
	router := newRouter(&fakeService{}, docs)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers/CUST-001/documents/SELFIE", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing input: file")
	assert.Empty(t, docs.uploadedData)
}

func TestHandlePreviewDocument(t *testing.T) {
	docs := &fakeDocuments{url: "https://signed.example/doc"}
	router := newRouter(&fakeService{}, docs)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/CUST-001/documents/SELFIE/preview", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://signed.example/doc")
}

func TestInternalErrorHidesDetails(t *testing.T) {
	svc := &fakeService{err: kycerrors.New(kycerrors.CodeInternal, "connection string leaked")}
	router := newRouter(svc, &fakeDocuments{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/CUST-001", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection string leaked")
}
