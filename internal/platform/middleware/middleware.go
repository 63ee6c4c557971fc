// Package middleware carries request-scoped values onto the context and
// authenticates the calling organisation before any handler runs.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"kyc/pkg/httputil"
	"kyc/pkg/kycerrors"
	"kyc/pkg/requestcontext"
)

const (
	requestIDHeader   = "X-Request-Id"
	requestedByHeader = "X-Requested-By"
)

// Authenticator verifies organisation credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, organisationID, apiKey string) error
}

// RequestID tags every request with a correlation ID, minting one when the
// caller did not send it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth authenticates the caller with basic auth holding the
// organisation ID and API key, then records the organisation and the
// requesting actor on the context.
func RequireAuth(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			organisationID, apiKey, ok := r.BasicAuth()
			if !ok {
				logger.WarnContext(ctx, "request without credentials",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path)
				httputil.WriteError(w, kycerrors.New(kycerrors.CodeUnauthorized,
					"Unauthorized. Confirm your ID and APIKey are valid."))
				return
			}

			if err := auth.Authenticate(ctx, organisationID, apiKey); err != nil {
				logger.WarnContext(ctx, "organisation authentication failed",
					"request_id", requestcontext.RequestID(ctx),
					"organisation_id", organisationID)
				httputil.WriteError(w, err)
				return
			}

			requestedBy := r.Header.Get(requestedByHeader)
			if requestedBy == "" {
				httputil.WriteError(w, kycerrors.New(kycerrors.CodeInvalidInput,
					"Missing input: %s header", requestedByHeader))
				return
			}

			ctx = requestcontext.WithOrganisationID(ctx, organisationID)
			ctx = requestcontext.WithRequestedBy(ctx, requestedBy)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
