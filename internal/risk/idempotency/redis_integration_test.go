//go:build integration

package idempotency

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskwatch/internal/platform/config"
	"riskwatch/internal/risk/models"
	"riskwatch/pkg/domain"
	"riskwatch/pkg/platform/sentinel"
	"riskwatch/pkg/testutil/containers"
)

func newRedisCache(t *testing.T) *RedisCache {
	t.Helper()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(context.Background()))
	return NewRedisCache(rc.Client)
}

func TestRedisCache_GetPut(t *testing.T) {
	cache := newRedisCache(t)
	ctx := context.Background()

	_, err := cache.Get(ctx, "k1")
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, cache.Put(ctx, "k1", Entry{Fingerprint: "fp", Payload: []byte(`{"overallScore":6}`)}, time.Minute))
	got, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "fp", got.Fingerprint)
	assert.JSONEq(t, `{"overallScore":6}`, string(got.Payload))

	require.NoError(t, cache.Put(ctx, "k2", Entry{Payload: []byte(`{}`)}, 50*time.Millisecond))
	assert.Eventually(t, func() bool {
		_, err := cache.Get(ctx, "k2")
		return err != nil
	}, 2*time.Second, 20*time.Millisecond, "entry expires with its ttl")
}

func TestRedisCache_LockIsExclusiveAcrossClients(t *testing.T) {
	cache := newRedisCache(t)
	other := NewRedisCache(containers.GetManager().GetRedis(t).Client)
	ctx := context.Background()

	token, ok, err := cache.Acquire(ctx, "k1", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = other.Acquire(ctx, "k1", 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, other.Release(ctx, "k1", "stale-token"))
	_, ok, _ = other.Acquire(ctx, "k1", 5*time.Second)
	assert.False(t, ok, "a foreign token must not release the lock")

	require.NoError(t, cache.Release(ctx, "k1", token))
	_, ok, _ = other.Acquire(ctx, "k1", 5*time.Second)
	assert.True(t, ok)
}

func TestRedisCoalescer_TwoInstancesComputeOnce(t *testing.T) {
	cache := newRedisCache(t)
	cfg := config.NewStatic(&config.Config{Idempotency: config.Idempotency{TTL: time.Hour, LockTTL: 5 * time.Second, PollInterval: 10 * time.Millisecond}})
	instances := []*Coalescer{NewCoalescer(cache, cfg, nil), NewCoalescer(cache, cfg, nil)}

	var calls atomic.Int32
	compute := func(context.Context) (*models.RiskAssessment, error) {
		calls.Add(1)
		time.Sleep(100 * time.Millisecond)
		return &models.RiskAssessment{ID: domain.NewAssessmentID(), OverallScore: 44, Tier: models.TierHigh}, nil
	}

	var wg sync.WaitGroup
	ids := make([]domain.AssessmentID, 4)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, _, err := instances[i%2].Do(context.Background(), "shared-key", "fp", compute)
			if assert.NoError(t, err) {
				ids[i] = a.ID
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}
