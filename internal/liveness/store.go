package liveness

import (
	"context"
	"time"

	"kyc/pkg/kycerrors"
)

// ErrSessionNotFound marks an unknown or expired liveness session.
var ErrSessionNotFound = kycerrors.New(kycerrors.CodeNotFound, "liveness session not found or expired")

// Binding ties a provider session to the customer it was opened for. Results
// are only released to the same customer and organisation.
type Binding struct {
	CustomerID     string `json:"customerId"`
	OrganisationID string `json:"organisationId"`
}

// SessionStore holds session bindings for the lifetime of one liveness check.
type SessionStore interface {
	Bind(ctx context.Context, sessionID string, binding Binding, ttl time.Duration) error
	Lookup(ctx context.Context, sessionID string) (Binding, error)
}
