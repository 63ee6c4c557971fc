package service

import (
	"context"
	"time"

	"kyc/internal/audit"
	"kyc/internal/customer/models"
	"kyc/pkg/kycerrors"
	"kyc/pkg/requestcontext"
)

// Verify runs the full validator battery for one customer and persists the
// outcome. The audit entry captures the state before and after the run.
func (s *Service) Verify(ctx context.Context, customerID string) (*models.Customer, error) {
	organisationID := requestcontext.OrganisationID(ctx)
	start := time.Now()

	customer, err := s.store.Get(ctx, customerID, organisationID)
	if err != nil {
		return nil, err
	}
	before := customer.Clone()

	required, err := s.directory.RequiredValidations(organisationID)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Run(ctx, customer, required); err != nil {
		return nil, err
	}
	customer.DateUpdated = requestcontext.Now(ctx)

	if err := s.store.Put(ctx, customer); err != nil {
		return nil, kycerrors.Wrap(err, kycerrors.CodeInternal, "could not save customer")
	}

	s.audit.Emit(ctx, audit.Request{
		CustomerID:     customer.ID,
		OrganisationID: organisationID,
		CreatedBy:      requestcontext.RequestedBy(ctx),
		Action:         audit.ActionValidation,
		PreChange:      before,
		PostChange:     customer,
	})
	if s.metrics != nil {
		s.metrics.IncrementVerification(string(customer.CustomerStatus))
		s.metrics.ObserveVerify(start)
	}

	s.logger.InfoContext(ctx, "verification run completed",
		"customer_id", customer.ID,
		"organisation_id", organisationID,
		"status", customer.CustomerStatus,
		"progress", customer.Progress,
		"results", len(customer.VerificationResults))
	return customer, nil
}
