package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskwatch/internal/platform/config"
	"riskwatch/internal/risk/models"
	"riskwatch/internal/screening/providers"
	"riskwatch/pkg/domain"
	dErrors "riskwatch/pkg/domain-errors"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func defaultPolicy() Policy {
	return PolicyFrom(config.Default().Scoring)
}

func request(t *testing.T, country string) models.RiskCheckRequest {
	t.Helper()
	req, err := models.NewRiskCheckRequest("John Smith", country, "individual", "")
	require.NoError(t, err)
	return req
}

func cleanResults() []providers.Result {
	return []providers.Result{
		providers.Succeeded(providers.SignalSanctions, "watchlist", 5, 100, nil),
		providers.Succeeded(providers.SignalPEP, "watchlist", 10, 100, nil),
		providers.Succeeded(providers.SignalAdverseMedia, "adversemedia", 0, 100, nil),
		providers.Succeeded(providers.SignalInternalHistory, "internal-history", 5, 100, nil),
		providers.Succeeded(providers.SignalCountryBaseline, "country-baseline", 15, 100, nil),
	}
}

func replace(results []providers.Result, r providers.Result) []providers.Result {
	out := append([]providers.Result(nil), results...)
	for i := range out {
		if out[i].Signal == r.Signal {
			out[i] = r
		}
	}
	return out
}

func TestWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, w := range defaultPolicy().Weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, models.TierLow, TierFor(0, 20, 40))
	assert.Equal(t, models.TierLow, TierFor(19, 20, 40))
	assert.Equal(t, models.TierMedium, TierFor(20, 20, 40))
	assert.Equal(t, models.TierMedium, TierFor(39, 20, 40))
	assert.Equal(t, models.TierHigh, TierFor(40, 20, 40))
	assert.Equal(t, models.TierHigh, TierFor(100, 20, 40))

	prev := 0
	for score := 0; score <= 100; score++ {
		rank := map[models.Tier]int{models.TierLow: 0, models.TierMedium: 1, models.TierHigh: 2}[TierFor(score, 20, 40)]
		assert.GreaterOrEqual(t, rank, prev, "tier must not decrease at score %d", score)
		prev = rank
	}
}

func TestAggregateCleanSubject(t *testing.T) {
	id := domain.NewAssessmentID()
	a, err := defaultPolicy().Aggregate(request(t, "US"), cleanResults(), id, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, id, a.ID)
	assert.Equal(t, 6, a.OverallScore)
	assert.Equal(t, models.TierLow, a.Tier)
	assert.Empty(t, a.PartialSources)
	assert.NotNil(t, a.PartialSources)
	assert.Empty(t, a.Warning)
	assert.Equal(t, 15, a.Breakdown[providers.SignalCountryBaseline])
	assert.Equal(t, "USD 0 - 10,000", a.PenaltyRange)
	assert.Equal(t, 1, a.RulesetVersion)
	assert.Equal(t, fixedNow, a.GeneratedAt)
	assert.Equal(t, fixedNow.Add(30*24*time.Hour), a.ExpiresAt)

	require.GreaterOrEqual(t, len(a.TopRisks), 3)
	assert.Equal(t, "Jurisdiction Baseline", a.TopRisks[0].Title)
	assert.Equal(t, []string{"Schedule annual ongoing monitoring."}, a.Recommendations)
}

func TestAggregateSanctionsHit(t *testing.T) {
	hit := providers.Succeeded(providers.SignalSanctions, "watchlist", 90, 60, []providers.MatchRecord{
		{Kind: providers.KindSanctionsListHit, MatchedName: "Jon Smyth", ListNames: []string{"OFAC-SDN"}, Confidence: 60},
	})
	a, err := defaultPolicy().Aggregate(request(t, "US"), replace(cleanResults(), hit), domain.NewAssessmentID(), fixedNow)
	require.NoError(t, err)

	assert.Equal(t, 44, a.OverallScore)
	assert.Equal(t, models.TierHigh, a.Tier)
	require.NotEmpty(t, a.TopRisks)
	assert.Equal(t, "Sanctions List Match", a.TopRisks[0].Title)
	assert.Equal(t, models.SeverityHigh, a.TopRisks[0].Severity)
	assert.Contains(t, a.TopRisks[0].Description, "OFAC-SDN")
	assert.Contains(t, a.Recommendations[0], "enhanced due diligence")
	assert.Contains(t, a.Recommendations, "Schedule monthly ongoing monitoring.")
	assert.Equal(t, "USD 250,000 - 5,000,000", a.PenaltyRange)
}

func TestAggregateAdverseMediaTimeout(t *testing.T) {
	timeout := providers.Failed(providers.SignalAdverseMedia, "adversemedia", providers.FailureTimeout, 30)
	a, err := defaultPolicy().Aggregate(request(t, "US"), replace(cleanResults(), timeout), domain.NewAssessmentID(), fixedNow)
	require.NoError(t, err)

	assert.Equal(t, []providers.Signal{providers.SignalAdverseMedia}, a.PartialSources)
	assert.Equal(t, 30, a.Breakdown[providers.SignalAdverseMedia])
	assert.Contains(t, a.Warning, "adverseMedia (timeout)")
	assert.True(t, a.IsPartial())

	titles := make([]string, 0, len(a.TopRisks))
	for _, r := range a.TopRisks {
		titles = append(titles, r.Title)
	}
	assert.Contains(t, titles, "Incomplete Screening Data")
	assert.NotContains(t, titles, "Adverse Media Coverage")
	assert.Contains(t, a.Recommendations, "Screening data incomplete (adverseMedia); consider re-running the assessment.")
}

func TestFallbackScoresAreNotHits(t *testing.T) {
	results := replace(cleanResults(), providers.Failed(providers.SignalSanctions, "watchlist", providers.FailureUpstreamError, 95))
	a, err := defaultPolicy().Aggregate(request(t, "US"), results, domain.NewAssessmentID(), fixedNow)
	require.NoError(t, err)

	for _, r := range a.TopRisks {
		assert.NotEqual(t, "Sanctions List Match", r.Title)
	}
	assert.Equal(t, []providers.Signal{providers.SignalSanctions}, a.PartialSources)
}

func TestPartialSourcesAreSorted(t *testing.T) {
	results := replace(cleanResults(), providers.Failed(providers.SignalPEP, "x", providers.FailureTimeout, 30))
	results = replace(results, providers.Failed(providers.SignalAdverseMedia, "x", providers.FailureNotConfigured, 30))
	results = replace(results, providers.Failed(providers.SignalCountryBaseline, "x", providers.FailureUpstreamError, 50))

	a, err := defaultPolicy().Aggregate(request(t, "US"), results, domain.NewAssessmentID(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []providers.Signal{providers.SignalAdverseMedia, providers.SignalCountryBaseline, providers.SignalPEP}, a.PartialSources)
}

func TestNarrativesAreCapped(t *testing.T) {
	results := []providers.Result{
		providers.Succeeded(providers.SignalSanctions, "v", 100, 100, nil),
		providers.Succeeded(providers.SignalPEP, "v", 80, 100, nil),
		providers.Succeeded(providers.SignalAdverseMedia, "v", 90, 100, nil),
		providers.Succeeded(providers.SignalInternalHistory, "v", 70, 100, nil),
		providers.Succeeded(providers.SignalCountryBaseline, "v", 95, 100, nil),
	}
	results = replace(results, providers.Failed(providers.SignalInternalHistory, "v", providers.FailureTimeout, 20))

	a, err := defaultPolicy().Aggregate(request(t, "IR"), results, domain.NewAssessmentID(), fixedNow)
	require.NoError(t, err)

	assert.Len(t, a.TopRisks, 5)
	assert.Equal(t, models.SeverityHigh, a.TopRisks[0].Severity)
	for i := 1; i < len(a.TopRisks); i++ {
		assert.GreaterOrEqual(t, a.TopRisks[i-1].Severity.Rank(), a.TopRisks[i].Severity.Rank())
	}
	assert.LessOrEqual(t, len(a.Recommendations), 6)
	assert.Equal(t, "Perform enhanced due diligence before onboarding or continuing the relationship.", a.Recommendations[0])
}

func TestOverallScoreIsWeightedRoundedSum(t *testing.T) {
	p := defaultPolicy()
	for _, tc := range []struct {
		breakdown map[providers.Signal]int
		want      int
	}{
		{map[providers.Signal]int{}, 0},
		{map[providers.Signal]int{providers.SignalSanctions: 100, providers.SignalPEP: 100, providers.SignalAdverseMedia: 100, providers.SignalInternalHistory: 100, providers.SignalCountryBaseline: 100}, 100},
		{map[providers.Signal]int{providers.SignalSanctions: 60, providers.SignalPEP: 30, providers.SignalAdverseMedia: 30, providers.SignalInternalHistory: 20, providers.SignalCountryBaseline: 50}, 44},
	} {
		assert.Equal(t, tc.want, p.OverallScore(tc.breakdown))
	}
}

func TestAggregateRejectsIncompleteResults(t *testing.T) {
	_, err := defaultPolicy().Aggregate(request(t, "US"), cleanResults()[:4], domain.NewAssessmentID(), fixedNow)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	dup := append(cleanResults(), cleanResults()[0])
	_, err = defaultPolicy().Aggregate(request(t, "US"), dup, domain.NewAssessmentID(), fixedNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestAggregateIsDeterministic(t *testing.T) {
	id := domain.NewAssessmentID()
	a, err := defaultPolicy().Aggregate(request(t, "DE"), cleanResults(), id, fixedNow)
	require.NoError(t, err)
	b, err := defaultPolicy().Aggregate(request(t, "DE"), cleanResults(), id, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPenaltyRange(t *testing.T) {
	assert.Equal(t, "USD 250,000 - 5,000,000", PenaltyRange(models.TierHigh, "US"))
	assert.Equal(t, "EUR 9,000 - 230,000", PenaltyRange(models.TierMedium, "DE"))
	assert.Equal(t, "GBP 0 - 8,000", PenaltyRange(models.TierLow, "gb"))
	assert.Equal(t, "EUR 230,000 - 4,600,000", PenaltyRange(models.TierHigh, "FR"))
}

func TestCurrencyFor(t *testing.T) {
	assert.Equal(t, USD, CurrencyFor("JP"))
	assert.Equal(t, EUR, CurrencyFor("nl"))
	assert.Equal(t, GBP, CurrencyFor("GB"))
}
