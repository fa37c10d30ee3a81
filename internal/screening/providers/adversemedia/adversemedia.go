// Package adversemedia scores subjects by negative news coverage returned
// from a news-screening API.
package adversemedia

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"riskwatch/internal/screening/providers"
)

const (
	ProviderID = "adversemedia"

	screenPath = "/v1/screen"
	healthPath = "/health"

	// nonNegativeWeight discounts articles whose sentiment is not negative.
	nonNegativeWeight = 0.25
)

type screenResponse struct {
	Articles []article `json:"articles"`
}

type article struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	Category    string     `json:"category"`
	Sentiment   string     `json:"sentiment"`
	Relevance   float64    `json:"relevance"`
	PublishedAt *time.Time `json:"publishedAt"`
}

// Adapter serves the adverse media signal.
type Adapter struct {
	http          *providers.HTTPClient
	retry         providers.RetryPolicy
	timeout       time.Duration
	degradedAfter time.Duration
}

func New(baseURL, apiKey string, timeout, degradedAfter time.Duration, retry providers.RetryPolicy, opts ...providers.HTTPOption) (*Adapter, error) {
	if baseURL == "" {
		return nil, errors.New("adverse media requires base_url")
	}
	if apiKey != "" {
		opts = append(opts, providers.WithHeader("X-Api-Key", apiKey))
	}
	return &Adapter{
		http:          providers.NewHTTPClient(ProviderID, baseURL, opts...),
		retry:         retry,
		timeout:       timeout,
		degradedAfter: degradedAfter,
	}, nil
}

func (a *Adapter) ID() string               { return ProviderID }
func (a *Adapter) Signal() providers.Signal { return providers.SignalAdverseMedia }
func (a *Adapter) Timeout() time.Duration   { return a.timeout }

func (a *Adapter) Screen(ctx context.Context, q providers.Query) (providers.Result, error) {
	params := url.Values{}
	params.Set("q", q.SubjectName)
	if q.CountryISO != "" {
		params.Set("country", strings.ToUpper(q.CountryISO))
	}

	var resp screenResponse
	err := a.retry.Do(ctx, ProviderID, func(ctx context.Context) error {
		resp = screenResponse{}
		return a.http.DoJSON(ctx, http.MethodGet, screenPath+"?"+params.Encode(), nil, &resp)
	})
	if err != nil {
		return providers.Result{}, err
	}

	matches := make([]providers.MatchRecord, 0, len(resp.Articles))
	for _, art := range resp.Articles {
		if art.Relevance < 0 || art.Relevance > 1 {
			return providers.Result{}, providers.NewProviderError(providers.ErrorContractMismatch, ProviderID, "article relevance outside [0,1]", nil)
		}
		matches = append(matches, providers.MatchRecord{
			Kind:        providers.KindAdverseMediaArticle,
			Source:      art.Source,
			MatchedName: q.SubjectName,
			Category:    art.Category,
			Confidence:  articleConfidence(art),
			URL:         art.URL,
			PublishedAt: art.PublishedAt,
			Detail:      art.Title,
		})
	}
	return providers.Succeeded(providers.SignalAdverseMedia, ProviderID, providers.MaxScore(matches, 0), providers.MaxConfidence(matches, 100), matches), nil
}

func (a *Adapter) HealthCheck(ctx context.Context) providers.HealthReport {
	return a.http.Probe(ctx, healthPath, a.degradedAfter)
}

func articleConfidence(a article) int {
	weight := 1.0
	if !strings.EqualFold(a.Sentiment, "negative") {
		weight = nonNegativeWeight
	}
	return providers.ScaleConfidence(a.Relevance*weight, 1)
}
