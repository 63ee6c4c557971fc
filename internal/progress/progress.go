// Package progress computes the weighted completion percentage of a KYC
// application from document completeness and verification outcomes.
package progress

import (
	"math"

	"kyc/internal/customer/models"
)

const (
	documentWeight     = 0.5
	verificationWeight = 0.5
)

// Summary is the aggregate the orchestrator folds into the customer record.
//
// FailureCount counts results that did not pass, independent of whether a
// failing result also carries Warning=true; the two counters overlap.
type Summary struct {
	OverallProgressPercent int
	FailureCount           int
	WarningCount           int
}

// Calculate derives the progress summary for a customer. Pure: no I/O, no
// errors. Empty document or result lists contribute exactly 0 to their term.
func Calculate(c *models.Customer) Summary {
	var overall float64

	if n := len(c.Documents); n > 0 {
		uploaded := 0
		for _, d := range c.Documents {
			if d.DocumentStatus == models.DocumentUploaded {
				uploaded++
			}
		}
		overall += float64(uploaded) / float64(n) * documentWeight
	}

	var failures, warnings int
	if n := len(c.VerificationResults); n > 0 {
		passed := 0
		for _, r := range c.VerificationResults {
			if r.Passed {
				passed++
			}
			if r.Warning {
				warnings++
			}
		}
		failures = n - passed
		overall += float64(passed) / float64(n) * verificationWeight
	}

	return Summary{
		OverallProgressPercent: int(math.Round(overall * 100)),
		FailureCount:           failures,
		WarningCount:           warnings,
	}
}
