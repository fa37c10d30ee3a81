package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-5))
	assert.Equal(t, 42, Clamp(42))
	assert.Equal(t, 100, Clamp(250))
}

func TestScaleConfidence(t *testing.T) {
	assert.Equal(t, 85, ScaleConfidence(0.85, 1))
	assert.Equal(t, 50, ScaleConfidence(5, 10))
	assert.Equal(t, 0, ScaleConfidence(1, 0))
	assert.Equal(t, 100, ScaleConfidence(3, 2))
}

func TestMaxScore(t *testing.T) {
	t.Run("no matches yields floor", func(t *testing.T) {
		assert.Equal(t, 0, MaxScore(nil, 0))
		assert.Equal(t, 10, MaxScore(nil, 10))
	})

	t.Run("sanctions hit is boosted and clamped", func(t *testing.T) {
		matches := []MatchRecord{{Kind: KindSanctionsListHit, Confidence: 60, ListNames: []string{"OFAC-SDN"}}}
		assert.Equal(t, 90, MaxScore(matches, 0))

		strong := []MatchRecord{{Kind: KindSanctionsListHit, Confidence: 95, ListNames: []string{"OFAC-SDN"}}}
		assert.Equal(t, 100, MaxScore(strong, 0))
	})

	t.Run("pep hit on several lists gets both boosts", func(t *testing.T) {
		matches := []MatchRecord{{Kind: KindPEPHit, Confidence: 50, ListNames: []string{"EU-PEP", "UK-PEP"}}}
		assert.Equal(t, 69, MaxScore(matches, 0))
	})

	t.Run("duplicate list names do not count as several lists", func(t *testing.T) {
		matches := []MatchRecord{{Kind: KindPEPHit, Confidence: 50, ListNames: []string{"EU-PEP", "EU-PEP"}}}
		assert.Equal(t, 60, MaxScore(matches, 0))
	})

	t.Run("strongest match wins", func(t *testing.T) {
		matches := []MatchRecord{
			{Kind: KindAdverseMediaArticle, Confidence: 20},
			{Kind: KindAdverseMediaArticle, Confidence: 70},
			{Kind: KindAdverseMediaArticle, Confidence: 10},
		}
		assert.Equal(t, 70, MaxScore(matches, 0))
	})
}

func TestFilterKind(t *testing.T) {
	matches := []MatchRecord{
		{Kind: KindSanctionsListHit, MatchedName: "a"},
		{Kind: KindPEPHit, MatchedName: "b"},
		{Kind: KindSanctionsListHit, MatchedName: "c"},
	}
	got := FilterKind(matches, KindSanctionsListHit)
	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].MatchedName)
	assert.Equal(t, "c", got[1].MatchedName)
	assert.Empty(t, FilterKind(matches, KindNoHistory))
}

func TestSucceededCopiesMatches(t *testing.T) {
	matches := []MatchRecord{{Kind: KindPEPHit, Confidence: 10}}
	res := Succeeded(SignalPEP, "watchlist", 130, 90, matches)
	matches[0].Confidence = 99

	assert.Equal(t, 100, res.Score)
	assert.True(t, res.Success)
	assert.Equal(t, 10, res.RawMatches[0].Confidence)
}
