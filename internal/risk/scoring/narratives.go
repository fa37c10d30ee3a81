package scoring

import (
	"fmt"
	"sort"
	"strings"

	"riskwatch/internal/risk/models"
	"riskwatch/internal/screening/providers"
	pkgstrings "riskwatch/pkg/platform/strings"
)

const (
	maxTopRisks        = 5
	minTopRisks        = 3
	maxRecommendations = 6

	sanctionsHitScore    = 70
	pepHitScore          = 50
	adverseMediaHitScore = 50
	historyHitScore      = 50
	highRiskCountryScore = 60
)

type narrativeInput struct {
	results map[providers.Signal]providers.Result
	weights map[providers.Signal]float64
	country string
	partial []providers.Signal
	tier    models.Tier
}

// hit reports a successful signal at or above threshold. Fallback scores
// never count as hits.
func (in narrativeInput) hit(signal providers.Signal, threshold int) bool {
	r := in.results[signal]
	return r.Success && r.Score >= threshold
}

func (in narrativeInput) contribution(signal providers.Signal) float64 {
	return float64(in.results[signal].Score) * in.weights[signal]
}

type rankedRisk struct {
	risk   models.TopRisk
	weight float64
}

func topRisks(in narrativeInput) []models.TopRisk {
	var ranked []rankedRisk
	add := func(signal providers.Signal, title, desc string, sev models.Severity) {
		ranked = append(ranked, rankedRisk{
			risk:   models.TopRisk{Title: title, Description: desc, Severity: sev},
			weight: in.contribution(signal),
		})
	}

	if in.hit(providers.SignalSanctions, sanctionsHitScore) {
		add(providers.SignalSanctions, "Sanctions List Match",
			describeMatch(in.results[providers.SignalSanctions], "sanctions screening"), models.SeverityHigh)
	}
	if in.hit(providers.SignalPEP, pepHitScore) {
		add(providers.SignalPEP, "Politically Exposed Person",
			describeMatch(in.results[providers.SignalPEP], "PEP screening"), models.SeverityMedium)
	}
	if in.hit(providers.SignalAdverseMedia, adverseMediaHitScore) {
		r := in.results[providers.SignalAdverseMedia]
		add(providers.SignalAdverseMedia, "Adverse Media Coverage",
			fmt.Sprintf("%d negative news item(s) found; strongest relevance score %d.", len(r.RawMatches), r.Score), models.SeverityMedium)
	}
	if in.hit(providers.SignalInternalHistory, historyHitScore) {
		add(providers.SignalInternalHistory, "Elevated Historical Risk",
			fmt.Sprintf("Prior assessments of this subject averaged a score of %d.", in.results[providers.SignalInternalHistory].Score), models.SeverityMedium)
	}

	countryScore := in.results[providers.SignalCountryBaseline].Score
	if in.hit(providers.SignalCountryBaseline, highRiskCountryScore) {
		add(providers.SignalCountryBaseline, "High-Risk Jurisdiction",
			fmt.Sprintf("%s carries an elevated jurisdiction baseline of %d.", in.country, countryScore), models.SeverityMedium)
	} else {
		add(providers.SignalCountryBaseline, "Jurisdiction Baseline",
			fmt.Sprintf("%s carries a jurisdiction baseline of %d.", in.country, countryScore), models.SeverityLow)
	}

	if len(in.partial) > 0 {
		ranked = append(ranked, rankedRisk{risk: models.TopRisk{
			Title:       "Incomplete Screening Data",
			Description: fmt.Sprintf("%s could not be screened; conservative fallback scores were applied.", joinSignals(in.partial)),
			Severity:    models.SeverityLow,
		}})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := ranked[i].risk.Severity.Rank(), ranked[j].risk.Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return ranked[i].weight > ranked[j].weight
	})

	out := make([]models.TopRisk, 0, maxTopRisks)
	for _, r := range ranked {
		if len(out) == maxTopRisks {
			break
		}
		out = append(out, r.risk)
	}
	for _, g := range genericRisks(in.tier) {
		if len(out) >= minTopRisks {
			break
		}
		out = append(out, g)
	}
	return out
}

func genericRisks(tier models.Tier) []models.TopRisk {
	return []models.TopRisk{
		{
			Title:       "Standard Compliance Exposure",
			Description: fmt.Sprintf("Overall profile is %s risk; standard KYC and record-keeping obligations apply.", tier),
			Severity:    models.SeverityLow,
		},
		{
			Title:       "Ongoing Monitoring Obligation",
			Description: "Screening results are point-in-time; lists and media coverage change over time.",
			Severity:    models.SeverityLow,
		},
	}
}

func describeMatch(r providers.Result, what string) string {
	if len(r.RawMatches) == 0 {
		return fmt.Sprintf("%s returned a strong match (score %d).", capitalize(what), r.Score)
	}
	best := r.RawMatches[0]
	for _, m := range r.RawMatches[1:] {
		if m.Confidence > best.Confidence {
			best = m
		}
	}
	desc := fmt.Sprintf("Matched %q with confidence %d", best.MatchedName, best.Confidence)
	if len(best.ListNames) > 0 {
		desc += " on " + strings.Join(best.ListNames, ", ")
	}
	return desc + "."
}

func recommendations(in narrativeInput) []string {
	sanctionsHit := in.hit(providers.SignalSanctions, sanctionsHitScore)
	pepHit := in.hit(providers.SignalPEP, pepHitScore)

	var recs []string
	if sanctionsHit || pepHit {
		recs = append(recs, "Perform enhanced due diligence before onboarding or continuing the relationship.")
	}
	if sanctionsHit {
		recs = append(recs, "Block transactions pending compliance review and escalate the sanctions match to the MLRO.")
	}
	if pepHit {
		recs = append(recs, "Obtain senior management approval and verify source of wealth and funds.")
	}
	if in.hit(providers.SignalAdverseMedia, adverseMediaHitScore) {
		recs = append(recs, "Review the adverse media coverage and document its relevance to the relationship.")
	}
	if in.hit(providers.SignalInternalHistory, historyHitScore) {
		recs = append(recs, "Review prior assessments and case notes for this subject.")
	}
	if in.hit(providers.SignalCountryBaseline, highRiskCountryScore) {
		recs = append(recs, fmt.Sprintf("Apply enhanced jurisdiction controls for %s.", in.country))
	}
	if len(in.partial) > 0 {
		recs = append(recs, fmt.Sprintf("Screening data incomplete (%s); consider re-running the assessment.", joinSignals(in.partial)))
	}
	switch in.tier {
	case models.TierHigh:
		recs = append(recs, "Schedule monthly ongoing monitoring.")
	case models.TierMedium:
		recs = append(recs, "Schedule quarterly ongoing monitoring.")
	default:
		recs = append(recs, "Schedule annual ongoing monitoring.")
	}
	return pkgstrings.FirstN(pkgstrings.DedupeAndTrim(recs), maxRecommendations)
}

func warning(in narrativeInput) string {
	if len(in.partial) == 0 {
		return ""
	}
	parts := make([]string, 0, len(in.partial))
	for _, s := range in.partial {
		parts = append(parts, fmt.Sprintf("%s (%s)", s, in.results[s].FailureReason))
	}
	return fmt.Sprintf("Partial assessment: %s unavailable; fallback scores were used.", strings.Join(parts, ", "))
}

func joinSignals(signals []providers.Signal) string {
	names := make([]string, len(signals))
	for i, s := range signals {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
