package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"riskwatch/pkg/platform/circuit"
)

const maxVendorResponseBytes = 4 << 20

// HTTPClient is the JSON transport shared by vendor adapters. Each call is
// gated by a circuit breaker and a rate limiter, and every failure comes back
// as a *ProviderError.
type HTTPClient struct {
	providerID string
	baseURL    string
	client     *http.Client
	breaker    *circuit.Breaker
	limiter    *rate.Limiter
	headers    map[string]string
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if client != nil {
			c.client = client
		}
	}
}

func WithBreaker(b *circuit.Breaker) HTTPOption {
	return func(c *HTTPClient) { c.breaker = b }
}

func WithLimiter(l *rate.Limiter) HTTPOption {
	return func(c *HTTPClient) { c.limiter = l }
}

// WithHeader adds a header sent on every request, typically a credential.
func WithHeader(key, value string) HTTPOption {
	return func(c *HTTPClient) { c.headers[key] = value }
}

func NewHTTPClient(providerID, baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		providerID: providerID,
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     &http.Client{},
		headers:    map[string]string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DoJSON sends body (if non-nil) as JSON and decodes a 2xx response into out.
func (c *HTTPClient) DoJSON(ctx context.Context, method, path string, body, out any) error {
	if c.breaker != nil && !c.breaker.Allow() {
		return &ProviderError{
			Category:   ErrorProviderOutage,
			ProviderID: c.providerID,
			Message:    "circuit open",
			Underlying: ErrCircuitOpen,
		}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return NewProviderError(ErrorTimeout, c.providerID, "rate limiter wait", err)
		}
	}

	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		c.recordFailure()
		return err
	}
	defer resp.Body.Close()

	if err := c.classifyStatus(resp); err != nil {
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			c.recordFailure()
		}
		return err
	}
	c.recordSuccess()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxVendorResponseBytes)).Decode(out); err != nil {
		if IsTimeout(err) {
			return NewProviderError(ErrorTimeout, c.providerID, "reading response", err)
		}
		return NewProviderError(ErrorBadData, c.providerID, "decoding response", err)
	}
	return nil
}

// Probe performs a lightweight GET against path and grades the outcome. An
// open breaker reports degraded without touching the network.
func (c *HTTPClient) Probe(ctx context.Context, path string, degradedAfter time.Duration) HealthReport {
	if c.breaker != nil && c.breaker.IsOpen() {
		return HealthReport{Status: HealthDegraded, Error: ErrCircuitOpen.Error()}
	}
	start := time.Now()
	err := c.DoJSON(ctx, http.MethodGet, path, nil, nil)
	latency := time.Since(start)
	if err != nil {
		return HealthReport{Status: HealthUnhealthy, ResponseTimeMs: latency.Milliseconds(), Error: err.Error()}
	}
	return HealthFromLatency(latency, degradedAfter)
}

func (c *HTTPClient) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, NewProviderError(ErrorInternal, c.providerID, "encoding request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, NewProviderError(ErrorInternal, c.providerID, "building request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if IsTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewProviderError(ErrorTimeout, c.providerID, "request timed out", err)
		}
		if errors.Is(err, context.Canceled) {
			return nil, NewProviderError(ErrorTimeout, c.providerID, "request cancelled", err)
		}
		return nil, NewProviderError(ErrorProviderOutage, c.providerID, "request failed", err)
	}
	return resp, nil
}

func (c *HTTPClient) classifyStatus(resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := fmt.Sprintf("unexpected status %d", code)
	underlying := fmt.Errorf("%s", strings.TrimSpace(string(snippet)))

	switch {
	case code == http.StatusTooManyRequests:
		return NewProviderError(ErrorRateLimited, c.providerID, msg, underlying)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return NewProviderError(ErrorAuthentication, c.providerID, msg, underlying)
	case code == http.StatusGatewayTimeout || code == http.StatusRequestTimeout:
		return NewProviderError(ErrorTimeout, c.providerID, msg, underlying)
	case code >= 500:
		return NewProviderError(ErrorProviderOutage, c.providerID, msg, underlying)
	case code == http.StatusNotFound || code == http.StatusGone:
		return NewProviderError(ErrorContractMismatch, c.providerID, msg, underlying)
	default:
		return NewProviderError(ErrorBadData, c.providerID, msg, underlying)
	}
}

func (c *HTTPClient) recordFailure() {
	if c.breaker != nil {
		c.breaker.RecordFailure()
	}
}

func (c *HTTPClient) recordSuccess() {
	if c.breaker != nil {
		c.breaker.RecordSuccess()
	}
}
