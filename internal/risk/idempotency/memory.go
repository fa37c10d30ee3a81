package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"riskwatch/pkg/platform/sentinel"
)

type memEntry struct {
	entry   Entry
	expires time.Time
}

type memLock struct {
	token   string
	expires time.Time
}

// MemoryCache is a single-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	locks   map[string]memLock
	now     func() time.Time
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) { c.now = now }
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]memEntry),
		locks:   make(map[string]memLock),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) (Entry, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, sentinel.ErrNotFound
	}
	if !c.now().Before(e.expires) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.expires.Equal(e.expires) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return Entry{}, sentinel.ErrNotFound
	}
	return e.entry, nil
}

func (c *MemoryCache) Put(_ context.Context, key string, entry Entry, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload := append([]byte(nil), entry.Payload...)
	c.entries[key] = memEntry{
		entry:   Entry{Fingerprint: entry.Fingerprint, Payload: payload},
		expires: c.now().Add(ttl),
	}
	return nil
}

func (c *MemoryCache) Acquire(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if l, ok := c.locks[key]; ok && now.Before(l.expires) {
		return "", false, nil
	}
	token := uuid.NewString()
	c.locks[key] = memLock{token: token, expires: now.Add(ttl)}
	return token, true, nil
}

func (c *MemoryCache) Release(_ context.Context, key, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.locks[key]; ok && l.token == token {
		delete(c.locks, key)
	}
	return nil
}

// Purge drops expired entries and locks. Callers may run it periodically.
func (c *MemoryCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
			removed++
		}
	}
	for k, l := range c.locks {
		if !now.Before(l.expires) {
			delete(c.locks, k)
		}
	}
	return removed
}
