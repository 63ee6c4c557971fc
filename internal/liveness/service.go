// Package liveness runs provider-backed face liveness sessions. A passing
// session yields a reference image that feeds the facial recognition checks
// as the LIVENESS document.
package liveness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kyc/internal/customer/models"
	"kyc/internal/customer/store"
	"kyc/pkg/requestcontext"
)

const (
	// confidenceThreshold is the minimum provider confidence for a session
	// to count as a live person.
	confidenceThreshold = 90

	statusSucceeded = "SUCCEEDED"

	// sessionTTL bounds how long a session binding stays claimable.
	sessionTTL = 15 * time.Minute

	referenceImageName = "LIVENESS.jpg"
)

// Uploader stores the reference image of a passing session.
type Uploader interface {
	Upload(ctx context.Context, customerID, organisationID string, documentType models.DocumentType, fileName string, data []byte) (*models.Document, error)
}

// Session is the response to a session creation request.
type Session struct {
	SessionID string `json:"sessionId"`
}

// Result is the outcome of a completed liveness session.
type Result struct {
	SessionID  string  `json:"sessionId"`
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
	Passed     bool    `json:"passed"`
}

// Service binds provider sessions to customers and claims their results.
type Service struct {
	provider  Provider
	sessions  SessionStore
	customers store.Store
	documents Uploader
	logger    *slog.Logger
}

func NewService(provider Provider, sessions SessionStore, customers store.Store, documents Uploader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider:  provider,
		sessions:  sessions,
		customers: customers,
		documents: documents,
		logger:    logger,
	}
}

// CreateSession opens a provider session for the customer. The client token
// makes retried creation requests idempotent on the provider side.
func (s *Service) CreateSession(ctx context.Context, customerID string) (Session, error) {
	organisationID := requestcontext.OrganisationID(ctx)

	if _, err := s.customers.Get(ctx, customerID, organisationID); err != nil {
		return Session{}, err
	}

	token := fmt.Sprintf("%s_%s", organisationID, customerID)
	sessionID, err := s.provider.CreateSession(ctx, token)
	if err != nil {
		return Session{}, err
	}

	binding := Binding{CustomerID: customerID, OrganisationID: organisationID}
	if err := s.sessions.Bind(ctx, sessionID, binding, sessionTTL); err != nil {
		return Session{}, err
	}

	s.logger.InfoContext(ctx, "liveness session created",
		"customer_id", customerID,
		"organisation_id", organisationID,
		"session_id", sessionID)
	return Session{SessionID: sessionID}, nil
}

// Result claims a session outcome for the customer it was opened for. A
// passing session stores the reference image as the LIVENESS document.
func (s *Service) Result(ctx context.Context, customerID, sessionID string) (Result, error) {
	organisationID := requestcontext.OrganisationID(ctx)

	binding, err := s.sessions.Lookup(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	if binding.CustomerID != customerID || binding.OrganisationID != organisationID {
		return Result{}, ErrSessionNotFound
	}

	outcome, err := s.provider.SessionResult(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		SessionID:  sessionID,
		Status:     outcome.Status,
		Confidence: outcome.Confidence,
		Passed:     outcome.Status == statusSucceeded && outcome.Confidence > confidenceThreshold,
	}

	if result.Passed && len(outcome.ReferenceImage) > 0 {
		if _, err := s.documents.Upload(ctx, customerID, organisationID, models.DocLiveness, referenceImageName, outcome.ReferenceImage); err != nil {
			return Result{}, err
		}
	}

	s.logger.InfoContext(ctx, "liveness session result claimed",
		"customer_id", customerID,
		"organisation_id", organisationID,
		"session_id", sessionID,
		"status", outcome.Status,
		"passed", result.Passed)
	return result, nil
}
