package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the assessment pipeline.
type Metrics struct {
	// End-to-end assessment latency, replays included
	AssessLatency prometheus.Histogram

	// Computed assessments by tier and whether any signal fell back
	Assessments *prometheus.CounterVec

	// Requests answered from the idempotency cache
	Replays prometheus.Counter

	// Assessments that could not be persisted
	PersistFailures prometheus.Counter
}

// New creates a new Metrics instance with all assessment metrics registered.
func New() *Metrics {
	return &Metrics{
		AssessLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "riskwatch_risk_assess_duration_seconds",
			Help:    "Duration of risk assessment requests",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),

		Assessments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskwatch_risk_assessments_total",
			Help: "Computed risk assessments by tier and partial flag",
		}, []string{"tier", "partial"}),

		Replays: promauto.NewCounter(prometheus.CounterOpts{
			Name: "riskwatch_risk_idempotent_replays_total",
			Help: "Assessment requests served from the idempotency cache",
		}),

		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "riskwatch_risk_persist_failures_total",
			Help: "Assessments that failed to persist",
		}),
	}
}

func (m *Metrics) ObserveAssessLatency(d time.Duration) {
	if m != nil {
		m.AssessLatency.Observe(d.Seconds())
	}
}

// IncrementAssessment counts one freshly computed assessment.
func (m *Metrics) IncrementAssessment(tier string, partial bool) {
	if m != nil {
		m.Assessments.WithLabelValues(tier, strconv.FormatBool(partial)).Inc()
	}
}

func (m *Metrics) IncrementReplay() {
	if m != nil {
		m.Replays.Inc()
	}
}

func (m *Metrics) IncrementPersistFailure() {
	if m != nil {
		m.PersistFailures.Inc()
	}
}
