package worldcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskwatch/internal/screening/providers"
	"riskwatch/internal/screening/providers/contract"
	"riskwatch/internal/screening/providers/sanctions"
)

func newServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == healthPath {
			w.WriteHeader(http.StatusOK)
			return
		}
		assert.Equal(t, screeningPath, r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Secret"))

		var req screeningRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ORGANISATION", req.EntityType)
		_, _ = w.Write([]byte(body))
	}))
}

func TestScreenPerson(t *testing.T) {
	srv := newServer(t, `{"results":[
		{"primaryName":"Kestrel Maritime Holdings","matchStrength":"STRONG","categories":["Sanctions"],"sources":["OFAC","UN"]},
		{"matchedTerm":"Kestrel","matchStrength":"weak","categories":["PEP - Former"],"sources":["PEP-LIST"]},
		{"primaryName":"Kestrel News","matchStrength":"MEDIUM","categories":["Crime - Financial"]}
	]}`)
	defer srv.Close()

	c, err := New(srv.URL, "key", "secret", time.Second)
	require.NoError(t, err)

	out, err := c.ScreenPerson(context.Background(), providers.Query{SubjectName: "Kestrel Maritime", CountryISO: "IR", SubjectType: "entity"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, providers.KindSanctionsListHit, out[0].Kind)
	assert.Equal(t, 85, out[0].Confidence)
	assert.Equal(t, "Kestrel Maritime Holdings", out[0].MatchedName)

	assert.Equal(t, providers.KindPEPHit, out[1].Kind)
	assert.Equal(t, 40, out[1].Confidence)
	assert.Equal(t, "Kestrel", out[1].MatchedName)
}

func TestUnknownStrengthIsContractMismatch(t *testing.T) {
	srv := newServer(t, `{"results":[{"primaryName":"x","matchStrength":"CERTAIN","categories":["Sanctions"]}]}`)
	defer srv.Close()

	c, err := New(srv.URL, "key", "secret", time.Second)
	require.NoError(t, err)
	_, err = c.ScreenPerson(context.Background(), providers.Query{SubjectName: "x", SubjectType: "entity"})
	assert.Equal(t, providers.ErrorContractMismatch, providers.GetCategory(err))
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New("http://vendor", "key", "", time.Second)
	assert.Error(t, err)
}

func TestSanctionsViewContract(t *testing.T) {
	srv := newServer(t, `{"results":[{"primaryName":"Kestrel Maritime Holdings","matchStrength":"EXACT","categories":["Sanctions"],"sources":["OFAC","UN"]}]}`)
	defer srv.Close()

	c, err := New(srv.URL, "key", "secret", time.Second)
	require.NoError(t, err)
	adapter := sanctions.NewSanctionsAdapter(sanctions.NewScreener(c, providers.NoRetry), 2*time.Second)

	suite := &contract.ContractSuite{
		ProviderID: ProviderID,
		Signal:     providers.SignalSanctions,
		Tests: []contract.ContractTest{
			{
				Name:    "multi-list exact hit saturates",
				Adapter: adapter,
				Query:   providers.Query{SubjectName: "Kestrel Maritime Holdings", SubjectType: "entity"},
				ValidateFunc: func(r providers.Result) error {
					if r.Score != 100 {
						return assert.AnError
					}
					return nil
				},
			},
		},
	}
	suite.Run(t)
	assert.Equal(t, providers.HealthHealthy, adapter.HealthCheck(context.Background()).Status)
}
