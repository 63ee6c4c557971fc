// Package verification defines the pluggable check capability and the engine
// that sequences checks, merges their outcomes into the customer record, and
// derives lifecycle status.
package verification

import (
	"context"

	"kyc/internal/customer/models"
)

// Outcome is what a single validator produces for one customer snapshot.
type Outcome struct {
	Results []models.VerificationResult
	// GovIDPhoto is an optional side artifact: a government-sourced facial
	// image stored during the check, merged into the customer's documents by
	// the engine under the at-most-one-per-type rule.
	GovIDPhoto *models.Document
}

// Validator is one automated identity check. Implementations must honour the
// never-throws contract: provider/transport failures are converted into a
// warning-tagged result, never returned as an error. A non-nil error is
// treated as a defect and aborts the run.
type Validator interface {
	Name() string
	Validate(ctx context.Context, customer *models.Customer) (Outcome, error)
}

// Predicate gates a validator on the organisation's required document types.
type Predicate func(required []models.DocumentType) bool

// Always runs the validator for every organisation.
func Always([]models.DocumentType) bool { return true }

// RequiresAll runs the validator only when every listed type is required.
func RequiresAll(types ...models.DocumentType) Predicate {
	return func(required []models.DocumentType) bool {
		for _, t := range types {
			if !containsType(required, t) {
				return false
			}
		}
		return true
	}
}

// RequiresAny runs the validator when at least one listed type is required.
func RequiresAny(types ...models.DocumentType) Predicate {
	return func(required []models.DocumentType) bool {
		for _, t := range types {
			if containsType(required, t) {
				return true
			}
		}
		return false
	}
}

// And combines predicates conjunctively.
func And(preds ...Predicate) Predicate {
	return func(required []models.DocumentType) bool {
		for _, p := range preds {
			if !p(required) {
				return false
			}
		}
		return true
	}
}

func containsType(list []models.DocumentType, t models.DocumentType) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}
