package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the customer module.
// Tracks onboarding volume, verification outcomes, and critical path durations.
type Metrics struct {
	CustomersCreated  prometheus.Counter
	DocumentsUploaded prometheus.Counter
	Verifications     *prometheus.CounterVec
	VerifyDuration    prometheus.Histogram
}

// New creates a new Metrics instance with all customer module metrics registered.
func New() *Metrics {
	return &Metrics{
		CustomersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyc_customers_created_total",
			Help: "Total number of customers created",
		}),
		DocumentsUploaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyc_documents_uploaded_total",
			Help: "Total number of customer documents uploaded",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_verifications_total",
			Help: "Total number of completed verification runs by resulting status",
		}, []string{"status"}),
		VerifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kyc_verify_duration_seconds",
			Help:    "Duration of full verification runs across all validators",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// IncrementCustomersCreated records a successful customer creation.
func (m *Metrics) IncrementCustomersCreated() {
	m.CustomersCreated.Inc()
}

// IncrementDocumentsUploaded records a successful document upload.
func (m *Metrics) IncrementDocumentsUploaded() {
	m.DocumentsUploaded.Inc()
}

// IncrementVerification records a completed verification run and the status
// it derived.
func (m *Metrics) IncrementVerification(status string) {
	m.Verifications.WithLabelValues(status).Inc()
}

// ObserveVerify records the duration of a verification run.
// Call with time.Now() at the start of the run.
func (m *Metrics) ObserveVerify(start time.Time) {
	m.VerifyDuration.Observe(time.Since(start).Seconds())
}
