// Package nationalid implements the structural South African national-ID
// check: a pure, local validator that cross-checks the 13-digit ID number
// against the customer's captured gender, country of birth, and date of
// birth. No I/O, no provider calls.
package nationalid

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"kyc/internal/customer/models"
	"kyc/internal/verification"
	"kyc/pkg/requestcontext"
)

// ZA ID layout: YYMMDD SSSS C A Z
//   - positions 0-5: date of birth (century taken from the captured DoB)
//   - positions 6-9: sequence; >= 5000 encodes male, below encodes female
//   - position 10: citizenship; 0 means citizen
type Validator struct{}

func New() *Validator { return &Validator{} }

func (v *Validator) Name() string { return "za-national-id" }

// Validate emits one warning result for non-ZA identity documents, a single
// failing result for malformed numbers, and otherwise three independent
// pass/fail results. Mismatches in the ZA branch are hard failures, never
// warnings.
func (v *Validator) Validate(ctx context.Context, customer *models.Customer) (verification.Outcome, error) {
	now := requestcontext.Now(ctx)

	if customer.IdentityDocumentCountry != models.CountryZA {
		return verification.Outcome{Results: []models.VerificationResult{{
			VerificationName: "South African ID captured",
			Passed:           false,
			Warning:          true,
			Details:          "Not a South African citizen.",
			DateCreated:      now,
		}}}, nil
	}

	idNumber := customer.IdentityDocumentNumber
	if !isNumeric(idNumber) || len(idNumber) != 13 {
		return verification.Outcome{Results: []models.VerificationResult{{
			VerificationName: "South African ID captured",
			Passed:           false,
			Warning:          true,
			Details:          "Not a valid ID number.",
			DateCreated:      now,
		}}}, nil
	}

	var results []models.VerificationResult

	gender := models.GenderFemale
	if seq, _ := strconv.Atoi(idNumber[6:10]); seq >= 5000 {
		gender = models.GenderMale
	}
	results = append(results, models.VerificationResult{
		VerificationName: "ID number matches captured gender",
		Passed:           customer.Gender == gender,
		DateCreated:      now,
	})

	isCitizen := idNumber[10] == '0'
	citizenshipOK := !(customer.CountryOfBirth == models.CountryZA && !isCitizen)
	results = append(results, models.VerificationResult{
		VerificationName: "ID number matches country of birth",
		Passed:           citizenshipOK,
		DateCreated:      now,
	})

	results = append(results, models.VerificationResult{
		VerificationName: "ID number matches date of birth",
		Passed:           dateOfBirthMatches(idNumber, customer.DateOfBirth),
		DateCreated:      now,
	})

	return verification.Outcome{Results: results}, nil
}

// dateOfBirthMatches interprets the embedded YYMMDD against the century
// claimed by the captured date of birth and requires exact calendar-date
// equality after normalising both sides.
func dateOfBirthMatches(idNumber, dateOfBirth string) bool {
	captured, err := time.Parse("2006-01-02", dateOfBirth)
	if err != nil {
		return false
	}
	century := captured.Year() / 100
	embedded := fmt.Sprintf("%02d%s-%s-%s", century, idNumber[0:2], idNumber[2:4], idNumber[4:6])
	decoded, err := time.Parse("2006-01-02", embedded)
	if err != nil {
		return false
	}
	return decoded.Format("2006-01-02") == captured.Format("2006-01-02")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
