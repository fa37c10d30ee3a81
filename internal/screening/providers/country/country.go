// Package country serves the country baseline signal from a static table.
package country

import (
	"context"
	"strings"
	"time"

	"riskwatch/internal/screening/providers"
)

const (
	ProviderID = "country-baseline"

	// DefaultScore applies to assigned codes missing from the table.
	DefaultScore = 50
)

// Adapter looks up per-country baseline scores.
type Adapter struct {
	baselines map[string]int
	timeout   time.Duration
}

// New copies baselines, upper-casing keys.
func New(baselines map[string]int, timeout time.Duration) *Adapter {
	table := make(map[string]int, len(baselines))
	for code, score := range baselines {
		table[strings.ToUpper(code)] = providers.Clamp(score)
	}
	return &Adapter{baselines: table, timeout: timeout}
}

func (a *Adapter) ID() string               { return ProviderID }
func (a *Adapter) Signal() providers.Signal { return providers.SignalCountryBaseline }
func (a *Adapter) Timeout() time.Duration   { return a.timeout }

func (a *Adapter) Screen(ctx context.Context, q providers.Query) (providers.Result, error) {
	if err := ctx.Err(); err != nil {
		return providers.Result{}, providers.NewProviderError(providers.ErrorTimeout, ProviderID, "lookup interrupted", err)
	}
	code := strings.ToUpper(q.CountryISO)
	score, ok := a.baselines[code]
	match := providers.MatchRecord{
		Kind:       providers.KindCountryBaseline,
		Source:     ProviderID,
		Category:   code,
		Confidence: 100,
		Detail:     "baseline table",
	}
	if !ok {
		score = DefaultScore
		match.Confidence = 50
		match.Detail = "no baseline for country; moderate default"
	}
	return providers.Succeeded(providers.SignalCountryBaseline, ProviderID, score, match.Confidence, []providers.MatchRecord{match}), nil
}

func (a *Adapter) HealthCheck(context.Context) providers.HealthReport {
	return providers.HealthReport{Status: providers.HealthHealthy}
}
