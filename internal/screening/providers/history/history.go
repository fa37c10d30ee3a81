// Package history serves the internal history signal: the mean of a
// subject's most recent stored assessments.
package history

import (
	"context"
	"fmt"
	"math"
	"time"

	"riskwatch/internal/risk/models"
	"riskwatch/internal/screening/providers"
)

const (
	ProviderID = "internal-history"

	// NoHistoryScore is reported for subjects never assessed before. It is
	// paired with zero confidence so it reads as unknown rather than clean.
	NoHistoryScore = 10
)

// Store reads prior assessments, newest first.
type Store interface {
	GetHistory(ctx context.Context, subjectName, countryISO string, limit int) ([]models.RiskAssessment, error)
}

// Pinger is implemented by stores that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Adapter serves the internal history signal.
type Adapter struct {
	store   Store
	depth   int
	timeout time.Duration
}

func New(store Store, depth int, timeout time.Duration) *Adapter {
	if depth < 1 {
		depth = 1
	}
	return &Adapter{store: store, depth: depth, timeout: timeout}
}

func (a *Adapter) ID() string               { return ProviderID }
func (a *Adapter) Signal() providers.Signal { return providers.SignalInternalHistory }
func (a *Adapter) Timeout() time.Duration   { return a.timeout }

func (a *Adapter) Screen(ctx context.Context, q providers.Query) (providers.Result, error) {
	prior, err := a.store.GetHistory(ctx, q.SubjectName, q.CountryISO, a.depth)
	if err != nil {
		if ctx.Err() != nil || providers.IsTimeout(err) {
			return providers.Result{}, providers.NewProviderError(providers.ErrorTimeout, ProviderID, "history lookup timed out", err)
		}
		return providers.Result{}, providers.NewProviderError(providers.ErrorInternal, ProviderID, "history lookup failed", err)
	}

	if len(prior) == 0 {
		marker := providers.MatchRecord{
			Kind:        providers.KindNoHistory,
			Source:      ProviderID,
			MatchedName: q.SubjectName,
			Detail:      "no prior assessments",
		}
		return providers.Succeeded(providers.SignalInternalHistory, ProviderID, NoHistoryScore, 0, []providers.MatchRecord{marker}), nil
	}
	if len(prior) > a.depth {
		prior = prior[:a.depth]
	}

	total := 0
	matches := make([]providers.MatchRecord, 0, len(prior))
	for _, p := range prior {
		total += p.OverallScore
		matches = append(matches, providers.MatchRecord{
			Kind:        providers.KindHistoricalAssessment,
			Source:      ProviderID,
			MatchedName: p.SubjectName,
			Category:    string(p.Tier),
			Confidence:  100,
			Detail:      fmt.Sprintf("assessment %s scored %d on %s", p.ID, p.OverallScore, p.GeneratedAt.Format(time.DateOnly)),
		})
	}
	mean := int(math.Round(float64(total) / float64(len(prior))))
	confidence := len(prior) * 100 / a.depth
	return providers.Succeeded(providers.SignalInternalHistory, ProviderID, mean, confidence, matches), nil
}

func (a *Adapter) HealthCheck(ctx context.Context) providers.HealthReport {
	p, ok := a.store.(Pinger)
	if !ok {
		return providers.HealthReport{Status: providers.HealthHealthy}
	}
	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		return providers.HealthReport{Status: providers.HealthUnhealthy, ResponseTimeMs: time.Since(start).Milliseconds(), Error: err.Error()}
	}
	return providers.HealthFromLatency(time.Since(start), a.timeout)
}
