package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the session module.
// Tracks session outcomes and the credential submission critical path.
type Metrics struct {
	SessionsStarted  prometheus.Counter
	SessionsGranted  prometheus.Counter
	SessionsDenied   *prometheus.CounterVec
	SessionsAborted  prometheus.Counter
	VerifierFailures *prometheus.CounterVec
	SubmitDuration   prometheus.Histogram
}

// New creates a new Metrics instance with all session module metrics registered.
func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kioskgate_sessions_started_total",
			Help: "Total number of access sessions started",
		}),
		SessionsGranted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kioskgate_sessions_granted_total",
			Help: "Total number of sessions that ended in an access grant",
		}),
		SessionsDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kioskgate_sessions_denied_total",
			Help: "Total number of sessions that ended in a denial, by reason",
		}, []string{"reason"}),
		SessionsAborted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kioskgate_sessions_aborted_total",
			Help: "Total number of sessions aborted by reset or inactivity",
		}),
		VerifierFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kioskgate_verifier_failures_total",
			Help: "Total number of non-terminal credential verification failures, by method and code",
		}, []string{"method", "code"}),
		SubmitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kioskgate_submit_duration_seconds",
			Help:    "Duration of credential submission handling (verification critical path)",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementStarted records a newly created session.
func (m *Metrics) IncrementStarted() {
	m.SessionsStarted.Inc()
}

// IncrementGranted records a session that reached the granted state.
func (m *Metrics) IncrementGranted() {
	m.SessionsGranted.Inc()
}

// IncrementDenied records a session that reached the denied state.
func (m *Metrics) IncrementDenied(reason string) {
	m.SessionsDenied.WithLabelValues(reason).Inc()
}

// IncrementAborted records a session abandoned by reset or inactivity.
func (m *Metrics) IncrementAborted() {
	m.SessionsAborted.Inc()
}

// IncrementVerifierFailure records a retryable credential failure.
func (m *Metrics) IncrementVerifierFailure(method, code string) {
	m.VerifierFailures.WithLabelValues(method, code).Inc()
}

// ObserveSubmit records the duration of a Submit operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}
