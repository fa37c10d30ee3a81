package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskwatch/internal/risk/models"
	"riskwatch/internal/screening/providers"
	"riskwatch/pkg/domain"
)

type fakeStore struct {
	prior   []models.RiskAssessment
	err     error
	pingErr error
	limit   int
}

func (f *fakeStore) GetHistory(_ context.Context, _, _ string, limit int) ([]models.RiskAssessment, error) {
	f.limit = limit
	return f.prior, f.err
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func assessment(score int) models.RiskAssessment {
	return models.RiskAssessment{
		ID:           domain.NewAssessmentID(),
		SubjectName:  "John Smith",
		OverallScore: score,
		Tier:         models.TierLow,
		GeneratedAt:  time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

var query = providers.Query{SubjectName: "John Smith", CountryISO: "US"}

func TestNoHistory(t *testing.T) {
	res, err := New(&fakeStore{}, 5, time.Second).Screen(context.Background(), query)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, NoHistoryScore, res.Score)
	assert.Zero(t, res.Confidence)
	require.Len(t, res.RawMatches, 1)
	assert.Equal(t, providers.KindNoHistory, res.RawMatches[0].Kind)
}

func TestMeanOfRecentScores(t *testing.T) {
	store := &fakeStore{prior: []models.RiskAssessment{assessment(4), assessment(5), assessment(7)}}
	res, err := New(store, 5, time.Second).Screen(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Score)
	assert.Equal(t, 60, res.Confidence)
	assert.Len(t, res.RawMatches, 3)
	assert.Equal(t, 5, store.limit)
}

func TestDepthIsEnforced(t *testing.T) {
	store := &fakeStore{prior: []models.RiskAssessment{assessment(10), assessment(20), assessment(90)}}
	res, err := New(store, 2, time.Second).Screen(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, 15, res.Score)
	assert.Equal(t, 100, res.Confidence)
}

func TestStoreFailure(t *testing.T) {
	_, err := New(&fakeStore{err: errors.New("connection refused")}, 5, time.Second).Screen(context.Background(), query)
	require.Error(t, err)
	assert.Equal(t, providers.FailureUpstreamError, providers.FailureReasonFor(err))

	_, err = New(&fakeStore{err: context.DeadlineExceeded}, 5, time.Second).Screen(context.Background(), query)
	assert.Equal(t, providers.FailureTimeout, providers.FailureReasonFor(err))
}

func TestHealthCheck(t *testing.T) {
	assert.Equal(t, providers.HealthHealthy, New(&fakeStore{}, 5, time.Second).HealthCheck(context.Background()).Status)

	report := New(&fakeStore{pingErr: errors.New("down")}, 5, time.Second).HealthCheck(context.Background())
	assert.Equal(t, providers.HealthUnhealthy, report.Status)
	assert.Equal(t, "down", report.Error)
}
