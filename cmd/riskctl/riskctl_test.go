package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig_Defaults(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, validateConfig(&out, ""))
	assert.Contains(t, out.String(), "configuration valid (vendor watchlist)")
	assert.Contains(t, out.String(), "sanctions=0.45")
}

func TestValidateConfig_UnsupportedVendor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "riskwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("screening:\n  vendor: acme\n"), 0o600))

	err := validateConfig(&bytes.Buffer{}, path)
	require.Error(t, err)
}

func TestValidateConfig_BadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "riskwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scoring:\n  weights:\n    sanctions: 0.9\n"), 0o600))

	err := validateConfig(&bytes.Buffer{}, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights sum")
}

func TestAPIClient_DecodesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","error_description":"unknown country code ZZ"}`))
	}))
	defer srv.Close()

	client := newAPIClient(srv.URL+"/", "tok")
	_, err := client.do(t.Context(), http.MethodPost, "/risk/assessments", nil, map[string]string{"countryIso": "ZZ"})
	require.Error(t, err)

	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "not_found", apiErr.Code)
	assert.Equal(t, "404 not_found: unknown country code ZZ", apiErr.Error())
}

func TestHealthCommand_FailsWhenAProviderIsUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"sanctions": {"status": "healthy", "responseTimeMs": 12},
			"adverseMedia": {"status": "unhealthy", "responseTimeMs": 8000, "error": "timeout"}
		}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	cmd := newHealthCmd()
	cmd.SetOut(&out)
	cmd.SetContext(t.Context())
	serverAddr = srv.URL

	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 provider(s) unhealthy")
	assert.Contains(t, out.String(), "sanctions")
	assert.Contains(t, out.String(), "timeout")
}
