// Package watchlist is a credential-free sanctions vendor backed by a local
// JSON list. Names are matched exactly, by alias, or by Levenshtein
// similarity above a threshold.
package watchlist

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"riskwatch/internal/screening/providers"
	pkgstrings "riskwatch/pkg/platform/strings"
)

const (
	ProviderID = "watchlist"

	exactConfidence = 100
	aliasConfidence = 95

	// countryMismatchFactor scales confidence when the entry is tied to a
	// different country than the subject.
	countryMismatchFactor = 0.8

	CategorySanctions = "sanctions"
	CategoryPEP       = "pep"
)

//go:embed default_watchlist.json
var defaultList []byte

// Entry is one listed person or organisation.
type Entry struct {
	Name     string   `json:"name"`
	Aliases  []string `json:"aliases"`
	Country  string   `json:"country"`
	Category string   `json:"category"`
	Lists    []string `json:"lists"`
	Program  string   `json:"program"`
}

type file struct {
	Entries []Entry `json:"entries"`
}

type indexed struct {
	Entry
	name    string
	aliases []string
}

// List is an immutable, in-memory watchlist.
type List struct {
	entries   []indexed
	threshold float64
}

// Load reads the list at path, or the bundled list when path is empty.
func Load(path string, threshold float64) (*List, error) {
	raw := defaultList
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading watchlist %s: %w", path, err)
		}
		raw = b
	}
	var f file
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decoding watchlist: %w", err)
	}
	return New(f.Entries, threshold)
}

// New indexes entries. threshold is the minimum similarity in (0,1].
func New(entries []Entry, threshold float64) (*List, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("watchlist threshold %v out of range (0,1]", threshold)
	}
	l := &List{threshold: threshold, entries: make([]indexed, 0, len(entries))}
	for i, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("watchlist entry %d has no name", i)
		}
		switch e.Category {
		case CategorySanctions, CategoryPEP:
		default:
			return nil, fmt.Errorf("watchlist entry %q: unknown category %q", e.Name, e.Category)
		}
		ix := indexed{Entry: e, name: pkgstrings.NormalizeName(e.Name)}
		for _, a := range e.Aliases {
			ix.aliases = append(ix.aliases, pkgstrings.NormalizeName(a))
		}
		l.entries = append(l.entries, ix)
	}
	return l, nil
}

func (l *List) Len() int {
	return len(l.entries)
}

func (l *List) ID() string {
	return ProviderID
}

// ScreenPerson returns every entry matching the subject, strongest first.
func (l *List) ScreenPerson(ctx context.Context, q providers.Query) ([]providers.MatchRecord, error) {
	name := pkgstrings.NormalizeName(q.SubjectName)
	country := strings.ToUpper(q.CountryISO)

	var out []providers.MatchRecord
	for _, e := range l.entries {
		if err := ctx.Err(); err != nil {
			return nil, providers.NewProviderError(providers.ErrorTimeout, ProviderID, "screening interrupted", err)
		}
		confidence, detail := l.score(name, e)
		if confidence == 0 {
			continue
		}
		if e.Country != "" && country != "" && !strings.EqualFold(e.Country, country) {
			confidence = int(float64(confidence) * countryMismatchFactor)
		}
		kind := providers.KindSanctionsListHit
		if e.Category == CategoryPEP {
			kind = providers.KindPEPHit
		}
		out = append(out, providers.MatchRecord{
			Kind:        kind,
			Source:      ProviderID,
			MatchedName: e.Name,
			ListNames:   append([]string(nil), e.Lists...),
			Category:    e.Program,
			Confidence:  providers.Clamp(confidence),
			Detail:      detail,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].MatchedName < out[j].MatchedName
	})
	return out, nil
}

func (l *List) score(name string, e indexed) (int, string) {
	if name == e.name {
		return exactConfidence, "exact name match"
	}
	for _, a := range e.aliases {
		if name == a {
			return aliasConfidence, "alias match"
		}
	}
	best := similarity(name, e.name)
	for _, a := range e.aliases {
		if s := similarity(name, a); s > best {
			best = s
		}
	}
	if best >= l.threshold {
		return int(best * 100), fmt.Sprintf("fuzzy match %.2f", best)
	}
	return 0, ""
}

// similarity is 1 - edit distance / longer length, in [0,1].
func similarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// HealthCheck always reports healthy; the list lives in memory.
func (l *List) HealthCheck(context.Context) providers.HealthReport {
	return providers.HealthReport{Status: providers.HealthHealthy}
}
