package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskwatch/pkg/platform/sentinel"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time           { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestMemoryCache_GetPut(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewMemoryCache(WithClock(clock.Now))
	ctx := context.Background()

	_, err := cache.Get(ctx, "k1")
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	payload := []byte(`{"id":"a"}`)
	require.NoError(t, cache.Put(ctx, "k1", Entry{Fingerprint: "fp", Payload: payload}, time.Minute))
	payload[2] = 'X'

	got, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "fp", got.Fingerprint)
	assert.JSONEq(t, `{"id":"a"}`, string(got.Payload), "stored payload must not alias the caller's buffer")

	clock.Advance(time.Minute)
	_, err = cache.Get(ctx, "k1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound, "entry expires at its ttl")
}

func TestMemoryCache_AcquireRelease(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewMemoryCache(WithClock(clock.Now))
	ctx := context.Background()

	token, ok, err := cache.Acquire(ctx, "k1", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	_, ok, err = cache.Acquire(ctx, "k1", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire while held")

	t.Run("release with a foreign token keeps the lock", func(t *testing.T) {
		require.NoError(t, cache.Release(ctx, "k1", "not-mine"))
		_, ok, _ := cache.Acquire(ctx, "k1", 10*time.Second)
		assert.False(t, ok)
	})

	t.Run("owner release frees the lock", func(t *testing.T) {
		require.NoError(t, cache.Release(ctx, "k1", token))
		next, ok, _ := cache.Acquire(ctx, "k1", 10*time.Second)
		assert.True(t, ok)
		token = next
	})

	t.Run("expired lock can be taken over", func(t *testing.T) {
		clock.Advance(11 * time.Second)
		other, ok, _ := cache.Acquire(ctx, "k1", 10*time.Second)
		assert.True(t, ok)
		assert.NotEqual(t, token, other)
	})
}

func TestMemoryCache_Purge(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewMemoryCache(WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "short", Entry{Payload: []byte(`{}`)}, time.Second))
	require.NoError(t, cache.Put(ctx, "long", Entry{Payload: []byte(`{}`)}, time.Hour))

	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, cache.Purge())

	_, err := cache.Get(ctx, "long")
	assert.NoError(t, err)
}
