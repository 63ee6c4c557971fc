package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"kyc/pkg/kycerrors"
	"kyc/pkg/requestcontext"
)

type fakeAuth struct {
	err error

	organisationID string
	apiKey         string
}

func (f *fakeAuth) Authenticate(_ context.Context, organisationID, apiKey string) error {
	f.organisationID = organisationID
	f.apiKey = apiKey
	return f.err
}

func protected(auth Authenticator) (http.Handler, *context.Context) {
	var captured context.Context
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Context()
		w.WriteHeader(http.StatusOK)
	})
	return RequireAuth(auth, slog.Default())(inner), &captured
}

func TestRequireAuth(t *testing.T) {
	auth := &fakeAuth{}
	handler, captured := protected(auth)

	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	req.SetBasicAuth("ORG-001", "key-123")
	req.Header.Set("X-Requested-By", "agent@example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ORG-001", auth.organisationID)
	assert.Equal(t, "key-123", auth.apiKey)
	assert.Equal(t, "ORG-001", requestcontext.OrganisationID(*captured))
	assert.Equal(t, "agent@example.com", requestcontext.RequestedBy(*captured))
}

func TestRequireAuthMissingCredentials(t *testing.T) {
	handler, _ := protected(&fakeAuth{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Confirm your ID and APIKey are valid")
}

func TestRequireAuthBadCredentials(t *testing.T) {
	auth := &fakeAuth{err: kycerrors.New(kycerrors.CodeUnauthorized,
		"Unauthorized. Confirm your ID and APIKey are valid.")}
	handler, _ := protected(auth)

	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	req.SetBasicAuth("ORG-001", "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthMissingRequestedBy(t *testing.T) {
	handler, _ := protected(&fakeAuth{})

	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	req.SetBasicAuth("ORG-001", "key-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "X-Requested-By")
}

func TestRequestID(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestcontext.RequestID(r.Context())
	}))

	t.Run("minted when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, captured)
		assert.Equal(t, captured, rec.Header().Get("X-Request-Id"))
	})

	t.Run("caller value kept", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-Id", "req-42")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "req-42", captured)
	})
}
