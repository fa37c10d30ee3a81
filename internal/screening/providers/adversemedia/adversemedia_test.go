package adversemedia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskwatch/internal/screening/providers"
	"riskwatch/internal/screening/providers/contract"
)

const articlesBody = `{"articles":[
 {"title":"Regulator fines trading firm","url":"https://news.example/a","source":"Example Times","category":"financial crime","sentiment":"negative","relevance":0.72,"publishedAt":"2025-03-01T00:00:00Z"},
 {"title":"Charity gala","url":"https://news.example/b","source":"Example Post","sentiment":"positive","relevance":0.8}
]}`

func newAdapter(t *testing.T, url string, retry providers.RetryPolicy) *Adapter {
	t.Helper()
	a, err := New(url, "key", time.Second, time.Second, retry)
	require.NoError(t, err)
	return a
}

func TestScreen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/screen", r.URL.Path)
		assert.Equal(t, "Jane Roe", r.URL.Query().Get("q"))
		assert.Equal(t, "GB", r.URL.Query().Get("country"))
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		_, _ = w.Write([]byte(articlesBody))
	}))
	defer srv.Close()

	res, err := newAdapter(t, srv.URL, providers.NoRetry).Screen(context.Background(), providers.Query{SubjectName: "Jane Roe", CountryISO: "gb"})
	require.NoError(t, err)
	assert.Equal(t, 72, res.Score)
	require.Len(t, res.RawMatches, 2)
	assert.Equal(t, 72, res.RawMatches[0].Confidence)
	assert.Equal(t, 20, res.RawMatches[1].Confidence)
	assert.NotNil(t, res.RawMatches[0].PublishedAt)
	assert.Equal(t, "https://news.example/a", res.RawMatches[0].URL)
}

func TestNoCoverageScoresZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"articles":[]}`))
	}))
	defer srv.Close()

	adapter := newAdapter(t, srv.URL, providers.NoRetry)
	suite := &contract.ContractSuite{
		ProviderID: ProviderID,
		Signal:     providers.SignalAdverseMedia,
		Tests: []contract.ContractTest{{
			Name:    "clean subject",
			Adapter: adapter,
			Query:   providers.Query{SubjectName: "John Smith", CountryISO: "US"},
			ValidateFunc: func(r providers.Result) error {
				if r.Score != 0 || len(r.RawMatches) != 0 {
					return assert.AnError
				}
				return nil
			},
		}},
	}
	suite.Run(t)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(articlesBody))
	}))
	defer srv.Close()

	retry := providers.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	res, err := newAdapter(t, srv.URL, retry).Screen(context.Background(), providers.Query{SubjectName: "Jane Roe"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int32(3), calls.Load())
}

func TestBadRequestIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	adapter := newAdapter(t, srv.URL, providers.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond})
	(&contract.ErrorContractTest{
		Name:          "bad request",
		Adapter:       adapter,
		Query:         providers.Query{SubjectName: "Jane Roe"},
		ExpectedError: providers.ErrorBadData,
		ExpectedRetry: false,
	}).Run(t)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("", "key", time.Second, time.Second, providers.NoRetry)
	assert.Error(t, err)
}
