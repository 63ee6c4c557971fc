package recognition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"kyc/internal/customer/models"
	"kyc/internal/verification"
	"kyc/pkg/requestcontext"
)

// likenessThreshold is the minimum face similarity, in percent, for a photo
// comparison to pass.
const likenessThreshold = 94

const fallbackDetails = "There was a system error during the document/facial recognition process. " +
	"A request for manual verification will be sent."

// Validator runs the vision checks against the customer's uploaded images.
// Presence results for the three required images are always emitted; remote
// calls happen only when all three are present. On any provider failure the
// presence results are kept and everything past them collapses to a single
// fallback warning.
type Validator struct {
	vision VisionClient
	logger *slog.Logger
}

func New(vision VisionClient, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{vision: vision, logger: logger}
}

func (v *Validator) Name() string { return "document-recognition" }

func (v *Validator) Validate(ctx context.Context, customer *models.Customer) (verification.Outcome, error) {
	now := requestcontext.Now(ctx)

	idImage := uploadedDocument(customer, models.DocNationalID)
	selfieImage := uploadedDocument(customer, models.DocSelfie)
	livenessImage := uploadedDocument(customer, models.DocLiveness)

	results := []models.VerificationResult{
		presenceResult("National ID document uploaded", idImage,
			"Please upload an image of your National ID", now),
		presenceResult("Selfie image uploaded", selfieImage,
			"Please upload an image of your face.", now),
		presenceResult("Liveness reference image uploaded", livenessImage,
			"Please perform the liveness verification.", now),
	}

	if idImage == nil || selfieImage == nil || livenessImage == nil {
		return verification.Outcome{Results: results}, nil
	}

	visionResults, err := v.check(ctx, customer, idImage, selfieImage, livenessImage, now)
	if err != nil {
		v.logger.Error("image recognition failed",
			"customer_id", customer.ID, "error", err)
		results = append(results, models.VerificationResult{
			VerificationName: "Recognition verification process successful",
			Passed:           false,
			Warning:          true,
			Details:          fallbackDetails,
			DateCreated:      now,
		})
		return verification.Outcome{Results: results}, nil
	}

	return verification.Outcome{Results: append(results, visionResults...)}, nil
}

func (v *Validator) check(ctx context.Context, customer *models.Customer, idImage, selfieImage, livenessImage *models.Document, now time.Time) ([]models.VerificationResult, error) {
	labels, err := v.vision.DetectLabels(ctx, idImage.StorageKey)
	if err != nil {
		return nil, err
	}
	results := []models.VerificationResult{{
		VerificationName: "Image recognised as ID document",
		Passed:           containsLabel(labels, "Id Cards"),
		DateCreated:      now,
	}}

	texts, err := v.vision.DetectText(ctx, idImage.StorageKey)
	if err != nil {
		return nil, err
	}
	results = append(results,
		models.VerificationResult{
			VerificationName: "ID number recognised in ID document",
			Passed:           containsIDNumber(texts, customer.IdentityDocumentNumber),
			DateCreated:      now,
		},
		models.VerificationResult{
			VerificationName: "First name(s) recognised in ID document",
			Passed:           containsFold(texts, customer.FirstName),
			DateCreated:      now,
		},
		models.VerificationResult{
			VerificationName: "Last name recognised in ID document",
			Passed:           containsFold(texts, customer.LastName),
			DateCreated:      now,
		},
		models.VerificationResult{
			VerificationName: "Date of birth recognised in ID document",
			Passed:           containsDateOfBirth(texts, customer.DateOfBirth),
			DateCreated:      now,
		},
	)

	for _, cmp := range []struct {
		against models.DocumentType
		source  *models.Document
	}{
		{models.DocSelfie, selfieImage},
		{models.DocLiveness, livenessImage},
	} {
		similarity, err := v.vision.CompareFaces(ctx, cmp.source.StorageKey, idImage.StorageKey)
		if err != nil {
			return nil, err
		}
		results = append(results, likenessResult(cmp.against, similarity, now))
	}

	if govImage := uploadedDocument(customer, models.DocGovernmentPhoto); govImage != nil {
		similarity, err := v.vision.CompareFaces(ctx, govImage.StorageKey, idImage.StorageKey)
		if err != nil {
			return nil, err
		}
		results = append(results, likenessResult(models.DocGovernmentPhoto, similarity, now))
	} else {
		results = append(results, models.VerificationResult{
			VerificationName: fmt.Sprintf("%s photo matches %s", models.DocNationalID, models.DocGovernmentPhoto),
			Passed:           true,
			Warning:          true,
			Details:          fmt.Sprintf("%s not found.", models.DocGovernmentPhoto),
			DateCreated:      now,
		})
	}

	return results, nil
}

func likenessResult(against models.DocumentType, similarity float64, now time.Time) models.VerificationResult {
	r := models.VerificationResult{
		VerificationName: fmt.Sprintf("%s photo matches %s", models.DocNationalID, against),
		Passed:           similarity >= likenessThreshold,
		DateCreated:      now,
	}
	if r.Passed {
		r.Details = fmt.Sprintf("%s photo sufficiently matches %s (%.2f %%)", models.DocNationalID, against, similarity)
	} else {
		r.Details = fmt.Sprintf("%s photo does not sufficiently match %s (%.2f %%)", models.DocNationalID, against, similarity)
	}
	return r
}

func uploadedDocument(customer *models.Customer, docType models.DocumentType) *models.Document {
	doc := customer.DocumentOfType(docType)
	if doc == nil || doc.DocumentStatus != models.DocumentUploaded {
		return nil
	}
	return doc
}

func presenceResult(name string, doc *models.Document, missingDetails string, now time.Time) models.VerificationResult {
	r := models.VerificationResult{
		VerificationName: name,
		Passed:           doc != nil,
		DateCreated:      now,
	}
	if doc == nil {
		r.Details = missingDetails
	}
	return r
}

func containsLabel(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}

// containsIDNumber accepts the number either prefixed with the printed
// "I.D.No." label or bare, comparing with all whitespace stripped.
func containsIDNumber(texts []string, idNumber string) bool {
	want := stripSpaces(idNumber)
	for _, t := range texts {
		stripped := stripSpaces(t)
		if stripped == want || stripped == "I.D.No."+want {
			return true
		}
	}
	return false
}

func containsFold(texts []string, want string) bool {
	for _, t := range texts {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

// containsDateOfBirth accepts the ISO form or the printed uppercase form,
// e.g. "1995-01-01" or "01 JAN 1995".
func containsDateOfBirth(texts []string, dateOfBirth string) bool {
	dob, err := time.Parse("2006-01-02", dateOfBirth)
	if err != nil {
		return false
	}
	iso := dob.Format("2006-01-02")
	printed := strings.ToUpper(dob.Format("02 Jan 2006"))
	for _, t := range texts {
		if t == iso || t == printed {
			return true
		}
	}
	return false
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
