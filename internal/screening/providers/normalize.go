package providers

import (
	"math"
)

// Severity boosts applied to a match's scaled confidence.
const (
	BoostSanctionsHit = 1.5
	BoostPEPHit       = 1.2
	BoostMultiList    = 1.15
)

// Clamp bounds a score to [0,100].
func Clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// ScaleConfidence maps a raw vendor confidence in [0,max] onto 0-100.
func ScaleConfidence(raw, max float64) int {
	if max <= 0 || raw <= 0 {
		return 0
	}
	return Clamp(int(math.Round(raw / max * 100)))
}

// BoostedScore applies the severity boosts to one match and clamps at 100.
func BoostedScore(m MatchRecord) float64 {
	score := float64(m.Confidence)
	switch m.Kind {
	case KindSanctionsListHit:
		score *= BoostSanctionsHit
	case KindPEPHit:
		score *= BoostPEPHit
	}
	if distinctLists(m.ListNames) > 1 {
		score *= BoostMultiList
	}
	return math.Min(score, 100)
}

// MaxScore is the adapter score: the strongest boosted match, so one strong
// hit is never diluted by weak ones. With no matches it returns floor.
func MaxScore(matches []MatchRecord, floor int) int {
	if len(matches) == 0 {
		return Clamp(floor)
	}
	best := 0.0
	for _, m := range matches {
		best = math.Max(best, BoostedScore(m))
	}
	return Clamp(int(math.Round(best)))
}

// MaxConfidence returns the highest raw confidence among matches, or
// whenEmpty if there are none.
func MaxConfidence(matches []MatchRecord, whenEmpty int) int {
	if len(matches) == 0 {
		return whenEmpty
	}
	best := 0
	for _, m := range matches {
		if m.Confidence > best {
			best = m.Confidence
		}
	}
	return Clamp(best)
}

// FilterKind keeps matches of the given kinds, preserving order.
func FilterKind(matches []MatchRecord, kinds ...MatchKind) []MatchRecord {
	var out []MatchRecord
	for _, m := range matches {
		for _, k := range kinds {
			if m.Kind == k {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

func distinctLists(lists []string) int {
	seen := make(map[string]struct{}, len(lists))
	for _, l := range lists {
		if l != "" {
			seen[l] = struct{}{}
		}
	}
	return len(seen)
}
