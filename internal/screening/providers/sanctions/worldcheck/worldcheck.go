// Package worldcheck screens subjects against the World-Check One
// screening API.
package worldcheck

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"riskwatch/internal/screening/providers"
)

const (
	ProviderID = "worldcheck"

	screeningPath = "/v2/cases/screeningRequest"
	healthPath    = "/health"
)

// strengthConfidence maps vendor match strength onto a 0-100 confidence.
var strengthConfidence = map[string]int{
	"EXACT":  100,
	"STRONG": 85,
	"MEDIUM": 65,
	"WEAK":   40,
}

type screeningRequest struct {
	Name                string   `json:"name"`
	EntityType          string   `json:"entityType"`
	ProviderTypes       []string `json:"providerTypes"`
	CountryLocationCode string   `json:"countryLocationCode,omitempty"`
}

type screeningResponse struct {
	Results []result `json:"results"`
}

type result struct {
	MatchedTerm   string   `json:"matchedTerm"`
	PrimaryName   string   `json:"primaryName"`
	MatchStrength string   `json:"matchStrength"`
	Categories    []string `json:"categories"`
	Sources       []string `json:"sources"`
	Events        []struct {
		Type string `json:"type"`
	} `json:"events"`
}

// Client is the World-Check vendor.
type Client struct {
	http          *providers.HTTPClient
	degradedAfter time.Duration
}

// New requires a base URL, API key and API secret.
func New(baseURL, apiKey, apiSecret string, degradedAfter time.Duration, opts ...providers.HTTPOption) (*Client, error) {
	if baseURL == "" || apiKey == "" || apiSecret == "" {
		return nil, errors.New("worldcheck requires base_url, api_key and api_secret")
	}
	opts = append(opts,
		providers.WithHeader("X-Api-Key", apiKey),
		providers.WithHeader("X-Api-Secret", apiSecret),
	)
	return &Client{
		http:          providers.NewHTTPClient(ProviderID, baseURL, opts...),
		degradedAfter: degradedAfter,
	}, nil
}

func (c *Client) ID() string {
	return ProviderID
}

func (c *Client) ScreenPerson(ctx context.Context, q providers.Query) ([]providers.MatchRecord, error) {
	req := screeningRequest{
		Name:                q.SubjectName,
		EntityType:          entityType(q.SubjectType),
		ProviderTypes:       []string{"WATCHLIST"},
		CountryLocationCode: strings.ToUpper(q.CountryISO),
	}

	var resp screeningResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, screeningPath, req, &resp); err != nil {
		return nil, err
	}

	var out []providers.MatchRecord
	for _, r := range resp.Results {
		confidence, ok := strengthConfidence[strings.ToUpper(r.MatchStrength)]
		if !ok {
			return nil, providers.NewProviderError(providers.ErrorContractMismatch, ProviderID, "unknown match strength "+r.MatchStrength, nil)
		}
		name := r.PrimaryName
		if name == "" {
			name = r.MatchedTerm
		}
		for _, category := range r.Categories {
			kind, ok := kindOf(category)
			if !ok {
				continue
			}
			out = append(out, providers.MatchRecord{
				Kind:        kind,
				Source:      ProviderID,
				MatchedName: name,
				ListNames:   append([]string(nil), r.Sources...),
				Category:    category,
				Confidence:  confidence,
				Detail:      strings.ToLower(r.MatchStrength) + " match",
			})
		}
	}
	return out, nil
}

func (c *Client) HealthCheck(ctx context.Context) providers.HealthReport {
	return c.http.Probe(ctx, healthPath, c.degradedAfter)
}

func kindOf(category string) (providers.MatchKind, bool) {
	switch c := strings.ToLower(category); {
	case strings.Contains(c, "sanction"):
		return providers.KindSanctionsListHit, true
	case strings.HasPrefix(c, "pep"), strings.Contains(c, "politically exposed"):
		return providers.KindPEPHit, true
	default:
		return "", false
	}
}

func entityType(subjectType string) string {
	if subjectType == "entity" {
		return "ORGANISATION"
	}
	return "INDIVIDUAL"
}
