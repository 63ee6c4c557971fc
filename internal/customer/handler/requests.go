package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"kyc/internal/customer/models"
	"kyc/internal/customer/service"
	"kyc/pkg/kycerrors"
)

// validate is shared across requests. Field names in error messages come from
// the json tag so they match what the caller actually sent.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError collapses every field failure into one INVALID_INPUT error
// so the caller sees all problems at once, not just the first.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return kycerrors.Wrap(err, kycerrors.CodeInvalidInput, "invalid request body")
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			messages = append(messages, fmt.Sprintf("Missing input: %s", fe.Field()))
			continue
		}
		messages = append(messages, fmt.Sprintf("Invalid input: %s", fe.Field()))
	}
	return kycerrors.New(kycerrors.CodeInvalidInput, "%s", strings.Join(messages, ", "))
}

// CreateCustomerRequest is the body for POST /customers.
type CreateCustomerRequest struct {
	ID          string `json:"id" validate:"required"`
	FirstName   string `json:"firstName" validate:"required,min=2"`
	MiddleNames string `json:"middleNames" validate:"omitempty,min=2"`
	LastName    string `json:"lastName" validate:"required,min=2"`
	Gender      string `json:"gender" validate:"required,oneof=MALE FEMALE"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`

	Email     string `json:"email" validate:"omitempty,email"`
	CellPhone string `json:"cellPhone" validate:"omitempty,e164"`
	HomePhone string `json:"homePhone" validate:"omitempty,e164"`
	WorkPhone string `json:"workPhone" validate:"omitempty,e164"`

	PhysicalAddressLine1   string `json:"physicalAddressLine1"`
	PhysicalAddressLine2   string `json:"physicalAddressLine2"`
	PhysicalAddressLine3   string `json:"physicalAddressLine3"`
	PhysicalAddressCity    string `json:"physicalAddressCity"`
	PhysicalAddressRegion  string `json:"physicalAddressRegion"`
	PhysicalAddressCountry string `json:"physicalAddressCountry" validate:"omitempty,iso3166_1_alpha2"`
	PhysicalAddressCode    string `json:"physicalAddressCode"`
	PostalAddressLine1     string `json:"postalAddressLine1"`
	PostalAddressLine2     string `json:"postalAddressLine2"`
	PostalAddressLine3     string `json:"postalAddressLine3"`
	PostalAddressCity      string `json:"postalAddressCity"`
	PostalAddressRegion    string `json:"postalAddressRegion"`
	PostalAddressCountry   string `json:"postalAddressCountry" validate:"omitempty,iso3166_1_alpha2"`
	PostalAddressCode      string `json:"postalAddressCode"`

	IdentityDocumentNumber  string `json:"identityDocumentNumber" validate:"required,min=6"`
	IdentityDocumentType    string `json:"identityDocumentType" validate:"required,oneof=NATIONAL_ID PASSPORT"`
	IdentityDocumentCountry string `json:"identityDocumentCountry" validate:"required,iso3166_1_alpha2"`
	CountryOfBirth          string `json:"countryOfBirth" validate:"omitempty,iso3166_1_alpha2"`
}

// Validate reports every invalid field in one error.
func (r *CreateCustomerRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	return nil
}

// ToParams maps the request onto service-level creation parameters.
func (r *CreateCustomerRequest) ToParams() service.CreateParams {
	return service.CreateParams{
		ID:          r.ID,
		FirstName:   r.FirstName,
		MiddleNames: r.MiddleNames,
		LastName:    r.LastName,
		Gender:      models.Gender(r.Gender),
		DateOfBirth: r.DateOfBirth,

		Email:     r.Email,
		CellPhone: r.CellPhone,
		HomePhone: r.HomePhone,
		WorkPhone: r.WorkPhone,

		PhysicalAddressLine1:   r.PhysicalAddressLine1,
		PhysicalAddressLine2:   r.PhysicalAddressLine2,
		PhysicalAddressLine3:   r.PhysicalAddressLine3,
		PhysicalAddressCity:    r.PhysicalAddressCity,
		PhysicalAddressRegion:  r.PhysicalAddressRegion,
		PhysicalAddressCountry: r.PhysicalAddressCountry,
		PhysicalAddressCode:    r.PhysicalAddressCode,
		PostalAddressLine1:     r.PostalAddressLine1,
		PostalAddressLine2:     r.PostalAddressLine2,
		PostalAddressLine3:     r.PostalAddressLine3,
		PostalAddressCity:      r.PostalAddressCity,
		PostalAddressRegion:    r.PostalAddressRegion,
		PostalAddressCountry:   r.PostalAddressCountry,
		PostalAddressCode:      r.PostalAddressCode,

		IdentityDocumentNumber:  r.IdentityDocumentNumber,
		IdentityDocumentType:    models.IDDocumentType(r.IdentityDocumentType),
		IdentityDocumentCountry: models.Country(r.IdentityDocumentCountry),
		CountryOfBirth:          models.Country(r.CountryOfBirth),
	}
}

// UpdateCustomerRequest is the body for PATCH /customers/{id}. Omitted fields
// leave the stored value untouched; ManuallyVerified drives the manual
// verification override.
type UpdateCustomerRequest struct {
	FirstName   *string `json:"firstName" validate:"omitempty,min=2"`
	MiddleNames *string `json:"middleNames" validate:"omitempty,min=2"`
	LastName    *string `json:"lastName" validate:"omitempty,min=2"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=MALE FEMALE"`
	DateOfBirth *string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`

	Email     *string `json:"email" validate:"omitempty,email"`
	CellPhone *string `json:"cellPhone" validate:"omitempty,e164"`
	HomePhone *string `json:"homePhone" validate:"omitempty,e164"`
	WorkPhone *string `json:"workPhone" validate:"omitempty,e164"`

	PhysicalAddressLine1   *string `json:"physicalAddressLine1"`
	PhysicalAddressLine2   *string `json:"physicalAddressLine2"`
	PhysicalAddressLine3   *string `json:"physicalAddressLine3"`
	PhysicalAddressCity    *string `json:"physicalAddressCity"`
	PhysicalAddressRegion  *string `json:"physicalAddressRegion"`
	PhysicalAddressCountry *string `json:"physicalAddressCountry" validate:"omitempty,iso3166_1_alpha2"`
	PhysicalAddressCode    *string `json:"physicalAddressCode"`
	PostalAddressLine1     *string `json:"postalAddressLine1"`
	PostalAddressLine2     *string `json:"postalAddressLine2"`
	PostalAddressLine3     *string `json:"postalAddressLine3"`
	PostalAddressCity      *string `json:"postalAddressCity"`
	PostalAddressRegion    *string `json:"postalAddressRegion"`
	PostalAddressCountry   *string `json:"postalAddressCountry" validate:"omitempty,iso3166_1_alpha2"`
	PostalAddressCode      *string `json:"postalAddressCode"`

	IdentityDocumentNumber  *string `json:"identityDocumentNumber" validate:"omitempty,min=6"`
	IdentityDocumentType    *string `json:"identityDocumentType" validate:"omitempty,oneof=NATIONAL_ID PASSPORT"`
	IdentityDocumentCountry *string `json:"identityDocumentCountry" validate:"omitempty,iso3166_1_alpha2"`
	CountryOfBirth          *string `json:"countryOfBirth" validate:"omitempty,iso3166_1_alpha2"`

	ManuallyVerified *bool `json:"manuallyVerified"`
}

// Validate reports every invalid field in one error.
func (r *UpdateCustomerRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	return nil
}

// ToParams maps the request onto service-level update parameters.
func (r *UpdateCustomerRequest) ToParams() service.UpdateParams {
	return service.UpdateParams{
		FirstName:   r.FirstName,
		MiddleNames: r.MiddleNames,
		LastName:    r.LastName,
		Gender:      genderPtr(r.Gender),
		DateOfBirth: r.DateOfBirth,

		Email:     r.Email,
		CellPhone: r.CellPhone,
		HomePhone: r.HomePhone,
		WorkPhone: r.WorkPhone,

		PhysicalAddressLine1:   r.PhysicalAddressLine1,
		PhysicalAddressLine2:   r.PhysicalAddressLine2,
		PhysicalAddressLine3:   r.PhysicalAddressLine3,
		PhysicalAddressCity:    r.PhysicalAddressCity,
		PhysicalAddressRegion:  r.PhysicalAddressRegion,
		PhysicalAddressCountry: r.PhysicalAddressCountry,
		PhysicalAddressCode:    r.PhysicalAddressCode,
		PostalAddressLine1:     r.PostalAddressLine1,
		PostalAddressLine2:     r.PostalAddressLine2,
		PostalAddressLine3:     r.PostalAddressLine3,
		PostalAddressCity:      r.PostalAddressCity,
		PostalAddressRegion:    r.PostalAddressRegion,
		PostalAddressCountry:   r.PostalAddressCountry,
		PostalAddressCode:      r.PostalAddressCode,

		IdentityDocumentNumber:  r.IdentityDocumentNumber,
		IdentityDocumentType:    idDocTypePtr(r.IdentityDocumentType),
		IdentityDocumentCountry: countryPtr(r.IdentityDocumentCountry),
		CountryOfBirth:          countryPtr(r.CountryOfBirth),

		ManuallyVerified: r.ManuallyVerified,
	}
}

func genderPtr(s *string) *models.Gender {
	if s == nil {
		return nil
	}
	g := models.Gender(*s)
	return &g
}

func idDocTypePtr(s *string) *models.IDDocumentType {
	if s == nil {
		return nil
	}
	t := models.IDDocumentType(*s)
	return &t
}

func countryPtr(s *string) *models.Country {
	if s == nil {
		return nil
	}
	c := models.Country(*s)
	return &c
}
