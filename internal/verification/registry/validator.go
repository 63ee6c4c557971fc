package registry

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"kyc/internal/customer/models"
	"kyc/internal/secrets"
	"kyc/internal/verification"
	"kyc/pkg/requestcontext"
)

const fallbackDetails = "There was a system error during the Secure Citizen verification process. " +
	"A request for manual verification will be sent."

// BlobPutter stores the government-sourced facial image. Narrow on purpose;
// the document store satisfies it.
type BlobPutter interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Validator runs the Secure Citizen civil-registry check.
//
// Atomicity: when anything past the jurisdiction gate fails (secret fetch,
// login, transport, decode, image storage) the outcome carries the
// jurisdiction result plus exactly one fallback warning; partial registry
// results are discarded.
type Validator struct {
	client  Client
	secrets secrets.Provider
	blobs   BlobPutter
	logger  *slog.Logger
}

func New(client Client, provider secrets.Provider, blobs BlobPutter, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{client: client, secrets: provider, blobs: blobs, logger: logger}
}

func (v *Validator) Name() string { return "secure-citizen" }

func (v *Validator) Validate(ctx context.Context, customer *models.Customer) (verification.Outcome, error) {
	now := requestcontext.Now(ctx)

	if customer.IdentityDocumentCountry != models.CountryZA {
		return verification.Outcome{Results: []models.VerificationResult{{
			VerificationName: "Secure Citizen verification possible",
			Passed:           true,
			Warning:          true,
			Details:          "Not a South African citizen",
			DateCreated:      now,
		}}}, nil
	}

	results := []models.VerificationResult{{
		VerificationName: "Secure Citizen verification possible",
		Passed:           true,
		DateCreated:      now,
	}}

	registryResults, govIDPhoto, err := v.check(ctx, customer, now)
	if err != nil {
		v.logger.Error("registry verification failed",
			"customer_id", customer.ID, "error", err)
		results = append(results, models.VerificationResult{
			VerificationName: "Secure Citizen verification process successful",
			Passed:           false,
			Warning:          true,
			Details:          fallbackDetails,
			DateCreated:      now,
		})
		return verification.Outcome{Results: results}, nil
	}

	return verification.Outcome{
		Results:    append(results, registryResults...),
		GovIDPhoto: govIDPhoto,
	}, nil
}

func (v *Validator) check(ctx context.Context, customer *models.Customer, now time.Time) ([]models.VerificationResult, *models.Document, error) {
	creds, err := v.secrets.GetSecrets(ctx)
	if err != nil {
		return nil, nil, err
	}

	token, err := v.client.Login(ctx, creds.Registry)
	if err != nil {
		return nil, nil, err
	}

	result, err := v.client.VerifyID(ctx, creds.Registry, token, customer)
	if err != nil {
		return nil, nil, err
	}

	var govIDPhoto *models.Document
	if result.FacialImage != "" {
		govIDPhoto, err = v.storeFacialImage(ctx, customer, result.FacialImage, now)
		if err != nil {
			return nil, nil, err
		}
	}

	var results []models.VerificationResult

	if result.DeadIndicator {
		results = append(results, models.VerificationResult{
			VerificationName: "Secure Citizen not listed as deceased",
			Passed:           false,
			Details:          fmt.Sprintf("This person is listed as being deceased as of %s.", result.DateOfDeath),
			DateCreated:      now,
		})
	} else {
		results = append(results, models.VerificationResult{
			VerificationName: "Secure Citizen not listed as deceased",
			Passed:           true,
			DateCreated:      now,
		})
	}

	if result.IDBlocked {
		results = append(results, models.VerificationResult{
			VerificationName: "Secure Citizen ID not blocked",
			Passed:           false,
			Details:          "This ID number has been blocked by the Department of Home Affairs.",
			DateCreated:      now,
		})
	} else {
		results = append(results, models.VerificationResult{
			VerificationName: "Secure Citizen ID not blocked",
			Passed:           true,
			DateCreated:      now,
		})
	}

	// Both similarity scores must be the registry maximum; "close" is a
	// failure.
	if result.FirstNameResult != 100 || result.LastNameResult != 100 {
		results = append(results, models.VerificationResult{
			VerificationName: "Secure Citizen names match",
			Passed:           false,
			Details:          "The first name(s) or last name verification failed. Check spelling.",
			DateCreated:      now,
		})
	} else {
		results = append(results, models.VerificationResult{
			VerificationName: "Secure Citizen names match",
			Passed:           true,
			DateCreated:      now,
		})
	}

	// Register presence checks warn rather than fail: absence needs a human
	// decision, not an automatic rejection.
	results = append(results, presenceResult("Secure Citizen NPR", result.OnNPR,
		"This ID number is on the National Population Register.",
		"This ID number is missing from the National Population Register.", now))
	results = append(results, presenceResult("Secure Citizen HANIS", result.OnHANIS,
		"This ID number is on the Home Affairs National Identification System.",
		"This ID number is missing from the Home Affairs National Identification System.", now))

	if len(result.SAFPSResults) > 0 {
		results = append(results, models.VerificationResult{
			VerificationName: "Secure Citizen SAFPS",
			Passed:           true,
			Warning:          true,
			Details:          "This ID number has been found on the South African Fraud Prevention Service.",
			DateCreated:      now,
		})
	} else {
		results = append(results, models.VerificationResult{
			VerificationName: "Secure Citizen SAFPS",
			Passed:           true,
			Details:          "This ID number has not been found on the South African Fraud Prevention Service.",
			DateCreated:      now,
		})
	}

	return results, govIDPhoto, nil
}

// storeFacialImage decodes the registry image and writes it under the
// deterministic GOVERNMENT_ID_PHOTO key, so re-verification overwrites the
// previous copy.
func (v *Validator) storeFacialImage(ctx context.Context, customer *models.Customer, encoded string, now time.Time) (*models.Document, error) {
	if i := strings.Index(encoded, ";base64,"); i >= 0 {
		encoded = encoded[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode facial image: %w", err)
	}

	key := models.StorageKey(customer.OrganisationID, customer.ID, models.DocGovernmentPhoto, "jpg")
	if err := v.blobs.Put(ctx, key, data); err != nil {
		return nil, fmt.Errorf("store facial image: %w", err)
	}

	return &models.Document{
		DocumentType:     models.DocGovernmentPhoto,
		DocumentStatus:   models.DocumentUploaded,
		FileExtension:    "jpg",
		OriginalFileName: "HANIS.jpg",
		StorageKey:       key,
		DateUploaded:     now,
	}, nil
}

func presenceResult(name string, present bool, presentDetails, absentDetails string, now time.Time) models.VerificationResult {
	r := models.VerificationResult{
		VerificationName: name,
		Passed:           true,
		Details:          presentDetails,
		DateCreated:      now,
	}
	if !present {
		r.Warning = true
		r.Details = absentDetails
	}
	return r
}
