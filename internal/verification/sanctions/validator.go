package sanctions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"kyc/internal/customer/models"
	"kyc/internal/secrets"
	"kyc/internal/verification"
	"kyc/pkg/requestcontext"
)

const fallbackDetails = "There was a system error during the OFAC verification process. " +
	"A request for manual verification will be sent."

// Validator screens the customer's full name against the sanctions sources.
// A listed customer is a warning for manual review, never an automatic
// rejection.
type Validator struct {
	client  Client
	secrets secrets.Provider
	logger  *slog.Logger
}

func New(client Client, provider secrets.Provider, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{client: client, secrets: provider, logger: logger}
}

func (v *Validator) Name() string { return "ofac-screening" }

func (v *Validator) Validate(ctx context.Context, customer *models.Customer) (verification.Outcome, error) {
	now := requestcontext.Now(ctx)
	name := customer.SearchName()

	result, err := v.search(ctx, customer, name)
	if err != nil {
		v.logger.Error("sanctions screening failed",
			"customer_id", customer.ID, "error", err)
		return verification.Outcome{Results: []models.VerificationResult{{
			VerificationName: "OFAC verification process successful",
			Passed:           false,
			Warning:          true,
			Details:          fallbackDetails,
			DateCreated:      now,
		}}}, nil
	}

	results := []models.VerificationResult{{
		VerificationName: "OFAC verification process successful",
		Passed:           true,
		DateCreated:      now,
	}}

	matches := result.Matches[name]
	if len(matches) == 0 {
		results = append(results, models.VerificationResult{
			VerificationName: "Customer not flagged on OFAC",
			Passed:           true,
			Details:          fmt.Sprintf("There were no results found for (%s) on the OFAC source databases.", name),
			DateCreated:      now,
		})
	} else {
		results = append(results, models.VerificationResult{
			VerificationName: "Customer not flagged on OFAC",
			Passed:           false,
			Warning:          true,
			Details: fmt.Sprintf("One or more results were found for (%s) on the OFAC source databases (%s).",
				name, strings.Join(programNames(matches), ", ")),
			DateCreated: now,
		})
	}

	return verification.Outcome{Results: results}, nil
}

func (v *Validator) search(ctx context.Context, customer *models.Customer, name string) (*SearchResult, error) {
	creds, err := v.secrets.GetSecrets(ctx)
	if err != nil {
		return nil, err
	}
	result, err := v.client.Search(ctx, creds.Sanctions, Query{
		Name:        name,
		DateOfBirth: customer.DateOfBirth,
		Gender:      string(customer.Gender),
	})
	if err != nil {
		return nil, err
	}
	if result.Error {
		return nil, fmt.Errorf("screening provider reported an error for %q", name)
	}
	return result, nil
}

func programNames(matches []Match) []string {
	var programs []string
	seen := make(map[string]struct{})
	for _, m := range matches {
		for _, p := range m.Programs {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			programs = append(programs, p)
		}
	}
	return programs
}
