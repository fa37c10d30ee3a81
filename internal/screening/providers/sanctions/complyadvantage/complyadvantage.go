// Package complyadvantage screens subjects against the ComplyAdvantage
// search API.
package complyadvantage

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"riskwatch/internal/screening/providers"
)

const (
	ProviderID = "complyadvantage"

	searchPath = "/searches"
	healthPath = "/health"

	defaultFuzziness = 0.6
)

type searchRequest struct {
	SearchTerm string        `json:"search_term"`
	Fuzziness  float64       `json:"fuzziness"`
	Filters    searchFilters `json:"filters"`
}

type searchFilters struct {
	Types        []string `json:"types"`
	CountryCodes []string `json:"country_codes,omitempty"`
	EntityType   string   `json:"entity_type,omitempty"`
}

type searchResponse struct {
	Content struct {
		Data struct {
			Hits []hit `json:"hits"`
		} `json:"data"`
	} `json:"content"`
}

type hit struct {
	Doc struct {
		Name    string   `json:"name"`
		Types   []string `json:"types"`
		Sources []string `json:"sources"`
	} `json:"doc"`
	MatchTypes []string `json:"match_types"`
	Score      float64  `json:"score"`
}

// Client is the ComplyAdvantage vendor.
type Client struct {
	http          *providers.HTTPClient
	degradedAfter time.Duration
}

// New requires a base URL and an API key.
func New(baseURL, apiKey string, degradedAfter time.Duration, opts ...providers.HTTPOption) (*Client, error) {
	if baseURL == "" || apiKey == "" {
		return nil, errors.New("complyadvantage requires base_url and api_key")
	}
	opts = append(opts, providers.WithHeader("Authorization", "Bearer "+apiKey))
	return &Client{
		http:          providers.NewHTTPClient(ProviderID, baseURL, opts...),
		degradedAfter: degradedAfter,
	}, nil
}

func (c *Client) ID() string {
	return ProviderID
}

func (c *Client) ScreenPerson(ctx context.Context, q providers.Query) ([]providers.MatchRecord, error) {
	req := searchRequest{
		SearchTerm: q.SubjectName,
		Fuzziness:  defaultFuzziness,
		Filters: searchFilters{
			Types:      []string{"sanction", "pep"},
			EntityType: entityType(q.SubjectType),
		},
	}
	if q.CountryISO != "" {
		req.Filters.CountryCodes = []string{strings.ToUpper(q.CountryISO)}
	}

	var resp searchResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, searchPath, req, &resp); err != nil {
		return nil, err
	}

	var out []providers.MatchRecord
	for _, h := range resp.Content.Data.Hits {
		if h.Score < 0 || h.Score > 1 {
			return nil, providers.NewProviderError(providers.ErrorContractMismatch, ProviderID, "hit score outside [0,1]", nil)
		}
		confidence := providers.ScaleConfidence(h.Score, 1)
		for _, kind := range kindsOf(h.Doc.Types) {
			out = append(out, providers.MatchRecord{
				Kind:        kind,
				Source:      ProviderID,
				MatchedName: h.Doc.Name,
				ListNames:   append([]string(nil), h.Doc.Sources...),
				Category:    strings.Join(h.MatchTypes, ","),
				Confidence:  confidence,
			})
		}
	}
	return out, nil
}

func (c *Client) HealthCheck(ctx context.Context) providers.HealthReport {
	return c.http.Probe(ctx, healthPath, c.degradedAfter)
}

func kindsOf(types []string) []providers.MatchKind {
	var sanction, pep bool
	for _, t := range types {
		switch {
		case t == "sanction":
			sanction = true
		case strings.HasPrefix(t, "pep"):
			pep = true
		}
	}
	var kinds []providers.MatchKind
	if sanction {
		kinds = append(kinds, providers.KindSanctionsListHit)
	}
	if pep {
		kinds = append(kinds, providers.KindPEPHit)
	}
	return kinds
}

func entityType(subjectType string) string {
	if subjectType == "entity" {
		return "company"
	}
	return "person"
}
