package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the screening probes.
type Metrics struct {
	// Probe latency by signal and outcome
	ProbeLatency *prometheus.HistogramVec

	// Fallback substitutions by signal and failure reason
	Fallbacks *prometheus.CounterVec

	// Health probe status by signal (1 healthy, 0.5 degraded, 0 unhealthy)
	ProviderHealth *prometheus.GaugeVec
}

// New creates a new Metrics instance with all screening metrics registered.
func New() *Metrics {
	return &Metrics{
		ProbeLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "riskwatch_screening_probe_duration_seconds",
			Help:    "Duration of screening probes by signal and outcome",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"signal", "outcome"}), // outcome: "success", "fallback"

		Fallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskwatch_screening_fallbacks_total",
			Help: "Total fallback scores substituted by signal and failure reason",
		}, []string{"signal", "reason"}),

		ProviderHealth: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "riskwatch_screening_provider_health",
			Help: "Last observed provider health by signal",
		}, []string{"signal", "provider"}),
	}
}

// ObserveProbe records one probe's duration.
func (m *Metrics) ObserveProbe(signal string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "fallback"
	}
	m.ProbeLatency.WithLabelValues(signal, outcome).Observe(d.Seconds())
}

// IncrementFallback records a fallback substitution.
func (m *Metrics) IncrementFallback(signal, reason string) {
	if m != nil {
		m.Fallbacks.WithLabelValues(signal, reason).Inc()
	}
}

// SetHealth records the outcome of a health probe.
func (m *Metrics) SetHealth(signal, provider string, value float64) {
	if m != nil {
		m.ProviderHealth.WithLabelValues(signal, provider).Set(value)
	}
}
