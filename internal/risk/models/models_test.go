package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskwatch/pkg/domain"
	dErrors "riskwatch/pkg/domain-errors"
)

func TestNewRiskCheckRequest(t *testing.T) {
	t.Run("normalizes input", func(t *testing.T) {
		req, err := NewRiskCheckRequest("  John Smith ", "us", "Individual", " key-1 ")
		require.NoError(t, err)
		assert.Equal(t, "John Smith", req.SubjectName)
		assert.Equal(t, domain.CountryCode("US"), req.CountryISO)
		assert.Equal(t, domain.SubjectIndividual, req.SubjectType)
		assert.Equal(t, "key-1", req.IdempotencyKey)

		q := req.Query()
		assert.Equal(t, "US", q.CountryISO)
		assert.Equal(t, "individual", q.SubjectType)
	})

	cases := []struct {
		name                        string
		subject, country, kind, key string
		code                        dErrors.Code
	}{
		{"empty subject", " ", "US", "individual", "", dErrors.CodeValidation},
		{"malformed country", "John", "USA", "individual", "", dErrors.CodeValidation},
		{"numeric country", "John", "1A", "individual", "", dErrors.CodeValidation},
		{"unassigned country", "John", "ZZ", "individual", "", dErrors.CodeNotFound},
		{"unknown subject type", "John", "US", "trust", "", dErrors.CodeValidation},
		{"oversized key", "John", "US", "entity", strings.Repeat("k", 256), dErrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRiskCheckRequest(tc.subject, tc.country, tc.kind, tc.key)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestFingerprint(t *testing.T) {
	a, err := NewRiskCheckRequest("John  Smith", "US", "individual", "k1")
	require.NoError(t, err)
	b, err := NewRiskCheckRequest("john smith", "us", "individual", "k2")
	require.NoError(t, err)
	c, err := NewRiskCheckRequest("John Smith", "GB", "individual", "k1")
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)
}

func TestSeverityRank(t *testing.T) {
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Zero(t, Severity("").Rank())
}
