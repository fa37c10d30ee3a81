package providers

import (
	"context"
	"fmt"
	"time"
)

// Signal identifies one of the independent risk inputs of an assessment.
type Signal string

const (
	SignalSanctions       Signal = "sanctions"
	SignalPEP             Signal = "pep"
	SignalAdverseMedia    Signal = "adverseMedia"
	SignalInternalHistory Signal = "internalHistory"
	SignalCountryBaseline Signal = "countryBaseline"
)

// AllSignals is the canonical probe order. Results are always reported in it.
var AllSignals = []Signal{
	SignalSanctions,
	SignalPEP,
	SignalAdverseMedia,
	SignalInternalHistory,
	SignalCountryBaseline,
}

// ParseSignal validates a signal name.
func ParseSignal(s string) (Signal, error) {
	for _, signal := range AllSignals {
		if string(signal) == s {
			return signal, nil
		}
	}
	return "", fmt.Errorf("unknown signal %q", s)
}

// FailureReason explains why a probe did not produce a real score.
type FailureReason string

const (
	FailureTimeout       FailureReason = "timeout"
	FailureUpstreamError FailureReason = "upstreamError"
	FailureNotConfigured FailureReason = "notConfigured"
)

// MatchKind tags a MatchRecord. Vendor payloads are normalized into one of
// these at the adapter boundary.
type MatchKind string

const (
	KindSanctionsListHit     MatchKind = "sanctionsListHit"
	KindPEPHit               MatchKind = "pepHit"
	KindAdverseMediaArticle  MatchKind = "adverseMediaArticle"
	KindCountryBaseline      MatchKind = "countryBaseline"
	KindHistoricalAssessment MatchKind = "historicalAssessment"
	KindNoHistory            MatchKind = "noHistory"
)

// MatchRecord is one normalized piece of evidence behind a score.
type MatchRecord struct {
	Kind        MatchKind  `json:"kind"`
	Source      string     `json:"source"`
	MatchedName string     `json:"matchedName,omitempty"`
	ListNames   []string   `json:"listNames,omitempty"`
	Category    string     `json:"category,omitempty"`
	Confidence  int        `json:"confidence"`
	URL         string     `json:"url,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Detail      string     `json:"detail,omitempty"`
}

// Query is the subject being screened.
type Query struct {
	SubjectName string
	CountryISO  string
	SubjectType string
}

// Result is the outcome of one probe. It is never mutated after creation.
type Result struct {
	Signal        Signal
	ProviderID    string
	Score         int
	Confidence    int
	Success       bool
	FailureReason FailureReason
	RawMatches    []MatchRecord
	Latency       time.Duration
}

// HealthStatus is the coarse state reported by a health probe.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthReport is the outcome of one adapter health probe.
type HealthReport struct {
	Status         HealthStatus `json:"status"`
	ResponseTimeMs int64        `json:"responseTimeMs"`
	Error          string       `json:"error,omitempty"`
}

// Adapter is the contract every signal source implements. Screen returns a
// *ProviderError on failure; the coordinator turns it into a fallback result.
type Adapter interface {
	// ID names the concrete implementation, e.g. "worldcheck".
	ID() string

	// Signal is the risk input this adapter serves.
	Signal() Signal

	// Timeout bounds a single Screen or HealthCheck call.
	Timeout() time.Duration

	Screen(ctx context.Context, q Query) (Result, error)

	HealthCheck(ctx context.Context) HealthReport
}

// Succeeded builds a successful result, copying matches so callers cannot
// mutate the result afterwards.
func Succeeded(signal Signal, providerID string, score, confidence int, matches []MatchRecord) Result {
	return Result{
		Signal:     signal,
		ProviderID: providerID,
		Score:      Clamp(score),
		Confidence: Clamp(confidence),
		Success:    true,
		RawMatches: append([]MatchRecord(nil), matches...),
	}
}

// Failed builds a fallback result for a failed probe.
func Failed(signal Signal, providerID string, reason FailureReason, fallbackScore int) Result {
	return Result{
		Signal:        signal,
		ProviderID:    providerID,
		Score:         Clamp(fallbackScore),
		Success:       false,
		FailureReason: reason,
	}
}

// HealthFromLatency grades a successful probe by its latency.
func HealthFromLatency(latency, degradedAfter time.Duration) HealthReport {
	status := HealthHealthy
	if degradedAfter > 0 && latency > degradedAfter {
		status = HealthDegraded
	}
	return HealthReport{Status: status, ResponseTimeMs: latency.Milliseconds()}
}
