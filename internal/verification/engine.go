package verification

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"kyc/internal/customer/models"
	"kyc/internal/progress"
	"kyc/pkg/kycerrors"
	"kyc/pkg/requestcontext"
)

// Engine runs an ordered list of validators against a customer snapshot and
// folds the aggregate into the record. Order is a visible contract: later
// validators may depend on documents produced by earlier ones, so execution
// is strictly sequential and registration order is preserved.
type Engine struct {
	entries []entry
	logger  *slog.Logger
	tracer  trace.Tracer
}

type entry struct {
	validator Validator
	applies   Predicate
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger: logger,
		tracer: otel.Tracer("kyc/verification"),
	}
}

// Register appends a validator with its gating predicate. The engine never
// needs modification to support new jurisdiction- or provider-specific
// checks; callers compose them at wiring time.
func (e *Engine) Register(v Validator, applies Predicate) {
	if applies == nil {
		applies = Always
	}
	e.entries = append(e.entries, entry{validator: v, applies: applies})
}

// Run verifies a customer in place.
//
// Precondition: every document on the record must be UPLOADED; otherwise the
// run fails before any validator executes, naming the missing types.
//
// On success the customer carries freshly accumulated verification results
// (prior results are discarded, not appended to), recomputed progress, and a
// derived status. A non-nil error other than the precondition failure marks a
// defect in a validator and is fatal for this request only.
func (e *Engine) Run(ctx context.Context, customer *models.Customer, required []models.DocumentType) error {
	ctx, span := e.tracer.Start(ctx, "verification.Run",
		trace.WithAttributes(attribute.String("customer.id", customer.ID)))
	defer span.End()

	if missing := customer.MissingDocumentTypes(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = string(m)
		}
		return kycerrors.New(kycerrors.CodePreconditionFailed,
			"Please upload all required documents: %s", strings.Join(names, ", "))
	}

	customer.VerificationResults = []models.VerificationResult{}

	for _, ent := range e.entries {
		if !ent.applies(required) {
			continue
		}
		vCtx, vSpan := e.tracer.Start(ctx, "validator."+ent.validator.Name())
		outcome, err := ent.validator.Validate(vCtx, customer)
		vSpan.End()
		if err != nil {
			// Validators convert provider failures into warning results; an
			// error here is a defect, fatal for this request.
			return kycerrors.Wrap(err, kycerrors.CodeInternal, "validator "+ent.validator.Name()+" failed")
		}

		customer.VerificationResults = append(customer.VerificationResults, outcome.Results...)
		if outcome.GovIDPhoto != nil {
			customer.PutDocument(*outcome.GovIDPhoto)
		}
		e.logger.Debug("validator completed",
			"validator", ent.validator.Name(),
			"customer_id", customer.ID,
			"results", len(outcome.Results))
	}

	summary := progress.Calculate(customer)
	customer.Progress = summary.OverallProgressPercent
	e.deriveStatus(ctx, customer, summary)

	span.SetAttributes(
		attribute.Int("verification.progress", summary.OverallProgressPercent),
		attribute.Int("verification.failures", summary.FailureCount),
		attribute.Int("verification.warnings", summary.WarningCount),
	)
	return nil
}

// deriveStatus applies the status rules in priority order; later rules
// override earlier ones. The verified branch is unreachable when any warning
// or failure occurred, because those force progress below 100 or trip their
// own branches first.
func (e *Engine) deriveStatus(ctx context.Context, customer *models.Customer, summary progress.Summary) {
	if summary.WarningCount > 0 {
		customer.ManualVerificationRequested = true
		customer.SetStatus(models.StatusNotVerified,
			"One or more warnings occurred during the verification process.")
	}
	if summary.FailureCount > 0 {
		customer.SetStatus(models.StatusFailed,
			"One or more failures occurred during the verification process.")
	}
	if summary.OverallProgressPercent == 100 && summary.WarningCount == 0 && summary.FailureCount == 0 {
		customer.Verified = true
		customer.ManuallyVerifiedBy = ""
		customer.DateVerified = requestcontext.Now(ctx)
		customer.SetStatus(models.StatusVerified, "Automatically verified by system.")
	}
}
