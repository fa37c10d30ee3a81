// Package idempotency makes repeated submissions under one idempotency key
// return the first result. Duplicates are suppressed in-process with
// singleflight and across instances with a set-if-absent lock in the cache.
package idempotency

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is a cached assessment: the JSON body returned to the first caller
// and the fingerprint of the request that produced it.
type Entry struct {
	Fingerprint string          `json:"fingerprint"`
	Payload     json.RawMessage `json:"payload"`
}

// Cache is the storage contract shared by the memory and Redis backends.
type Cache interface {
	// Get returns sentinel.ErrNotFound on a miss or after expiry.
	Get(ctx context.Context, key string) (Entry, error)

	Put(ctx context.Context, key string, entry Entry, ttl time.Duration) error

	// Acquire takes the computation lock for key if nobody holds it. The
	// returned token must be passed to Release.
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)

	// Release drops the lock only if token still owns it.
	Release(ctx context.Context, key, token string) error
}
