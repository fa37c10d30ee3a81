// Package scoring combines per-signal probe results into a RiskAssessment.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"riskwatch/internal/platform/config"
	"riskwatch/internal/risk/models"
	"riskwatch/internal/screening/providers"
	"riskwatch/pkg/domain"
	dErrors "riskwatch/pkg/domain-errors"
)

// Policy is the scoring configuration in force for one assessment.
type Policy struct {
	Weights        map[providers.Signal]float64
	LowCut         int
	HighCut        int
	RulesetVersion int
	Validity       time.Duration
}

// PolicyFrom builds a policy from validated configuration.
func PolicyFrom(cfg config.Scoring) Policy {
	w := cfg.Weights
	return Policy{
		Weights: map[providers.Signal]float64{
			providers.SignalSanctions:       w.Sanctions,
			providers.SignalPEP:             w.PEP,
			providers.SignalAdverseMedia:    w.AdverseMedia,
			providers.SignalInternalHistory: w.InternalHistory,
			providers.SignalCountryBaseline: w.CountryBaseline,
		},
		LowCut:         cfg.LowCut,
		HighCut:        cfg.HighCut,
		RulesetVersion: cfg.RulesetVersion,
		Validity:       cfg.Validity,
	}
}

// TierFor classifies a score. It is monotonic in score.
func TierFor(score, lowCut, highCut int) models.Tier {
	switch {
	case score < lowCut:
		return models.TierLow
	case score < highCut:
		return models.TierMedium
	default:
		return models.TierHigh
	}
}

// OverallScore is the rounded weighted sum of breakdown, clamped to [0,100].
func (p Policy) OverallScore(breakdown map[providers.Signal]int) int {
	sum := 0.0
	for _, signal := range providers.AllSignals {
		sum += float64(breakdown[signal]) * p.Weights[signal]
	}
	return providers.Clamp(int(math.Round(sum)))
}

// Aggregate builds the assessment for req from exactly one result per signal.
// id and now are injected so the outcome is deterministic.
func (p Policy) Aggregate(req models.RiskCheckRequest, results []providers.Result, id domain.AssessmentID, now time.Time) (*models.RiskAssessment, error) {
	bySignal, err := indexResults(results)
	if err != nil {
		return nil, err
	}

	breakdown := make(map[providers.Signal]int, len(providers.AllSignals))
	var partial []providers.Signal
	for _, signal := range providers.AllSignals {
		r := bySignal[signal]
		breakdown[signal] = providers.Clamp(r.Score)
		if !r.Success {
			partial = append(partial, signal)
		}
	}
	sort.Slice(partial, func(i, j int) bool { return partial[i] < partial[j] })

	score := p.OverallScore(breakdown)
	tier := TierFor(score, p.LowCut, p.HighCut)
	country := req.CountryISO.String()
	in := narrativeInput{
		results: bySignal,
		weights: p.Weights,
		country: country,
		partial: partial,
		tier:    tier,
	}

	generatedAt := now.UTC()
	return &models.RiskAssessment{
		ID:              id,
		SubjectName:     req.SubjectName,
		CountryISO:      country,
		SubjectType:     string(req.SubjectType),
		OverallScore:    score,
		Tier:            tier,
		Breakdown:       breakdown,
		TopRisks:        topRisks(in),
		Recommendations: recommendations(in),
		PenaltyRange:    PenaltyRange(tier, country),
		PartialSources:  nonNil(partial),
		Warning:         warning(in),
		RulesetVersion:  p.RulesetVersion,
		GeneratedAt:     generatedAt,
		ExpiresAt:       generatedAt.Add(p.Validity),
	}, nil
}

func indexResults(results []providers.Result) (map[providers.Signal]providers.Result, error) {
	bySignal := make(map[providers.Signal]providers.Result, len(results))
	for _, r := range results {
		if _, dup := bySignal[r.Signal]; dup {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("duplicate result for signal %s", r.Signal))
		}
		bySignal[r.Signal] = r
	}
	for _, signal := range providers.AllSignals {
		if _, ok := bySignal[signal]; !ok {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("missing result for signal %s", signal))
		}
	}
	if len(bySignal) != len(providers.AllSignals) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unexpected signal in results")
	}
	return bySignal, nil
}

func nonNil(s []providers.Signal) []providers.Signal {
	if s == nil {
		return []providers.Signal{}
	}
	return s
}
