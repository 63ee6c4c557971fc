// Package service implements the customer lifecycle: creation, reads, profile
// updates with manual verification overrides, removal, and the verification
// run that drives progress and status.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"kyc/internal/audit"
	"kyc/internal/customer/metrics"
	"kyc/internal/customer/models"
	"kyc/internal/customer/store"
	"kyc/pkg/kycerrors"
	"kyc/pkg/requestcontext"
)

// Directory supplies per-organisation configuration.
type Directory interface {
	RequiredValidations(organisationID string) ([]models.DocumentType, error)
}

// Documents removes stored binaries when a customer is deleted.
type Documents interface {
	DeleteAll(ctx context.Context, customer *models.Customer) error
}

// Engine runs the registered validators against a customer in place.
type Engine interface {
	Run(ctx context.Context, customer *models.Customer, required []models.DocumentType) error
}

// Service owns customer records. All operations are tenant-scoped through the
// organisation ID carried on the request context by authentication.
type Service struct {
	store     store.Store
	engine    Engine
	directory Directory
	documents Documents
	audit     *audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(st store.Store, engine Engine, directory Directory, documents Documents, publisher *audit.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     st,
		engine:    engine,
		directory: directory,
		documents: documents,
		audit:     publisher,
		metrics:   m,
		logger:    logger,
	}
}

// CreateParams carries the validated profile for a new customer. The caller
// assigns the ID; the same external system may hold it as a reference.
type CreateParams struct {
	ID          string
	FirstName   string
	MiddleNames string
	LastName    string
	Gender      models.Gender
	DateOfBirth string

	Email     string
	CellPhone string
	HomePhone string
	WorkPhone string

	PhysicalAddressLine1   string
	PhysicalAddressLine2   string
	PhysicalAddressLine3   string
	PhysicalAddressCity    string
	PhysicalAddressRegion  string
	PhysicalAddressCountry string
	PhysicalAddressCode    string
	PostalAddressLine1     string
	PostalAddressLine2     string
	PostalAddressLine3     string
	PostalAddressCity      string
	PostalAddressRegion    string
	PostalAddressCountry   string
	PostalAddressCode      string

	IdentityDocumentNumber  string
	IdentityDocumentType    models.IDDocumentType
	IdentityDocumentCountry models.Country
	CountryOfBirth          models.Country
}

// Create registers a new customer with one MISSING document slot per type the
// organisation requires. Duplicate IDs within the organisation are rejected.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Customer, error) {
	organisationID := requestcontext.OrganisationID(ctx)

	if _, err := s.store.Get(ctx, params.ID, organisationID); err == nil {
		return nil, kycerrors.New(kycerrors.CodeConflict,
			"Duplicate customer found with id (%s)", params.ID)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	required, err := s.directory.RequiredValidations(organisationID)
	if err != nil {
		return nil, err
	}

	customer := models.NewCustomer(params.ID, organisationID, required, requestcontext.Now(ctx))
	applyProfile(customer, params)

	if err := s.store.Put(ctx, customer); err != nil {
		return nil, kycerrors.Wrap(err, kycerrors.CodeInternal, "could not save customer")
	}

	s.audit.Emit(ctx, audit.Request{
		CustomerID:     customer.ID,
		OrganisationID: organisationID,
		CreatedBy:      requestcontext.RequestedBy(ctx),
		Action:         audit.ActionCustomerCreated,
		PostChange:     customer,
	})
	if s.metrics != nil {
		s.metrics.IncrementCustomersCreated()
	}

	s.logger.InfoContext(ctx, "customer created",
		"customer_id", customer.ID,
		"organisation_id", organisationID,
		"required_documents", len(customer.Documents))
	return customer, nil
}

// Get returns one customer.
func (s *Service) Get(ctx context.Context, customerID string) (*models.Customer, error) {
	return s.store.Get(ctx, customerID, requestcontext.OrganisationID(ctx))
}

// List returns all customers of the calling organisation.
func (s *Service) List(ctx context.Context) ([]*models.Customer, error) {
	return s.store.ListByOrganisation(ctx, requestcontext.OrganisationID(ctx))
}

// UpdateParams carries a partial profile update. Nil fields are untouched.
// ManuallyVerified carries the manual override tri-state: nil leaves the
// automatic outcome in place, true forces VERIFIED, false forces REJECTED.
type UpdateParams struct {
	FirstName   *string
	MiddleNames *string
	LastName    *string
	Gender      *models.Gender
	DateOfBirth *string

	Email     *string
	CellPhone *string
	HomePhone *string
	WorkPhone *string

	PhysicalAddressLine1   *string
	PhysicalAddressLine2   *string
	PhysicalAddressLine3   *string
	PhysicalAddressCity    *string
	PhysicalAddressRegion  *string
	PhysicalAddressCountry *string
	PhysicalAddressCode    *string
	PostalAddressLine1     *string
	PostalAddressLine2     *string
	PostalAddressLine3     *string
	PostalAddressCity      *string
	PostalAddressRegion    *string
	PostalAddressCountry   *string
	PostalAddressCode      *string

	IdentityDocumentNumber  *string
	IdentityDocumentType    *models.IDDocumentType
	IdentityDocumentCountry *models.Country
	CountryOfBirth          *models.Country

	ManuallyVerified *bool
}

// Update applies a partial profile update and, when requested, the manual
// verification override.
func (s *Service) Update(ctx context.Context, customerID string, params UpdateParams) (*models.Customer, error) {
	organisationID := requestcontext.OrganisationID(ctx)
	requestedBy := requestcontext.RequestedBy(ctx)
	now := requestcontext.Now(ctx)

	customer, err := s.store.Get(ctx, customerID, organisationID)
	if err != nil {
		return nil, err
	}
	before := customer.Clone()

	applyUpdate(customer, params)

	if params.ManuallyVerified != nil {
		customer.ManuallyVerified = *params.ManuallyVerified
		customer.ManuallyVerifiedBy = requestedBy
		customer.DateVerified = now
		if *params.ManuallyVerified {
			customer.Verified = true
			customer.SetStatus(models.StatusVerified, "Manually verified by "+requestedBy+".")
		} else {
			customer.Verified = false
			customer.SetStatus(models.StatusRejected, "Manually rejected by "+requestedBy+".")
		}
	}
	customer.DateUpdated = now

	if err := s.store.Put(ctx, customer); err != nil {
		return nil, kycerrors.Wrap(err, kycerrors.CodeInternal, "could not save customer")
	}

	s.audit.Emit(ctx, audit.Request{
		CustomerID:     customer.ID,
		OrganisationID: organisationID,
		CreatedBy:      requestedBy,
		Action:         audit.ActionCustomerUpdated,
		PreChange:      before,
		PostChange:     customer,
	})
	return customer, nil
}

// Delete removes the customer's stored documents and tombstones the record.
func (s *Service) Delete(ctx context.Context, customerID string) error {
	organisationID := requestcontext.OrganisationID(ctx)

	customer, err := s.store.Get(ctx, customerID, organisationID)
	if err != nil {
		return err
	}

	if err := s.documents.DeleteAll(ctx, customer); err != nil {
		s.logger.ErrorContext(ctx, "customer document cleanup failed",
			"customer_id", customerID,
			"error", err)
		return err
	}

	if err := s.store.Delete(ctx, customerID, organisationID); err != nil {
		return err
	}

	s.audit.Emit(ctx, audit.Request{
		CustomerID:     customerID,
		OrganisationID: organisationID,
		CreatedBy:      requestcontext.RequestedBy(ctx),
		Action:         audit.ActionCustomerDeleted,
	})

	s.logger.InfoContext(ctx, "customer deleted",
		"customer_id", customerID,
		"organisation_id", organisationID)
	return nil
}

func applyProfile(c *models.Customer, p CreateParams) {
	c.FirstName = strings.TrimSpace(p.FirstName)
	c.MiddleNames = strings.TrimSpace(p.MiddleNames)
	c.LastName = strings.TrimSpace(p.LastName)
	c.Gender = p.Gender
	c.DateOfBirth = strings.TrimSpace(p.DateOfBirth)
	c.Email = strings.ToLower(strings.TrimSpace(p.Email))
	c.CellPhone = p.CellPhone
	c.HomePhone = p.HomePhone
	c.WorkPhone = p.WorkPhone
	c.PhysicalAddressLine1 = p.PhysicalAddressLine1
	c.PhysicalAddressLine2 = p.PhysicalAddressLine2
	c.PhysicalAddressLine3 = p.PhysicalAddressLine3
	c.PhysicalAddressCity = p.PhysicalAddressCity
	c.PhysicalAddressRegion = p.PhysicalAddressRegion
	c.PhysicalAddressCountry = p.PhysicalAddressCountry
	c.PhysicalAddressCode = p.PhysicalAddressCode
	c.PostalAddressLine1 = p.PostalAddressLine1
	c.PostalAddressLine2 = p.PostalAddressLine2
	c.PostalAddressLine3 = p.PostalAddressLine3
	c.PostalAddressCity = p.PostalAddressCity
	c.PostalAddressRegion = p.PostalAddressRegion
	c.PostalAddressCountry = p.PostalAddressCountry
	c.PostalAddressCode = p.PostalAddressCode
	c.IdentityDocumentNumber = strings.ToUpper(strings.TrimSpace(p.IdentityDocumentNumber))
	c.IdentityDocumentType = p.IdentityDocumentType
	c.IdentityDocumentCountry = p.IdentityDocumentCountry
	c.CountryOfBirth = p.CountryOfBirth
}

func applyUpdate(c *models.Customer, p UpdateParams) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&c.FirstName, p.FirstName)
	setString(&c.MiddleNames, p.MiddleNames)
	setString(&c.LastName, p.LastName)
	if p.Gender != nil {
		c.Gender = *p.Gender
	}
	setString(&c.DateOfBirth, p.DateOfBirth)
	setString(&c.Email, p.Email)
	setString(&c.CellPhone, p.CellPhone)
	setString(&c.HomePhone, p.HomePhone)
	setString(&c.WorkPhone, p.WorkPhone)
	setString(&c.PhysicalAddressLine1, p.PhysicalAddressLine1)
	setString(&c.PhysicalAddressLine2, p.PhysicalAddressLine2)
	setString(&c.PhysicalAddressLine3, p.PhysicalAddressLine3)
	setString(&c.PhysicalAddressCity, p.PhysicalAddressCity)
	setString(&c.PhysicalAddressRegion, p.PhysicalAddressRegion)
	setString(&c.PhysicalAddressCountry, p.PhysicalAddressCountry)
	setString(&c.PhysicalAddressCode, p.PhysicalAddressCode)
	setString(&c.PostalAddressLine1, p.PostalAddressLine1)
	setString(&c.PostalAddressLine2, p.PostalAddressLine2)
	setString(&c.PostalAddressLine3, p.PostalAddressLine3)
	setString(&c.PostalAddressCity, p.PostalAddressCity)
	setString(&c.PostalAddressRegion, p.PostalAddressRegion)
	setString(&c.PostalAddressCountry, p.PostalAddressCountry)
	setString(&c.PostalAddressCode, p.PostalAddressCode)
	if p.IdentityDocumentNumber != nil {
		c.IdentityDocumentNumber = strings.ToUpper(strings.TrimSpace(*p.IdentityDocumentNumber))
	}
	if p.IdentityDocumentType != nil {
		c.IdentityDocumentType = *p.IdentityDocumentType
	}
	if p.IdentityDocumentCountry != nil {
		c.IdentityDocumentCountry = *p.IdentityDocumentCountry
	}
	if p.CountryOfBirth != nil {
		c.CountryOfBirth = *p.CountryOfBirth
	}
}
