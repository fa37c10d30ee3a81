package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"riskwatch/internal/platform/config"
	"riskwatch/internal/risk/models"
	dErrors "riskwatch/pkg/domain-errors"
	"riskwatch/pkg/platform/sentinel"
)

// Compute produces a fresh assessment. It runs at most once per key across
// concurrent callers of one process, and normally once across instances.
type Compute func(ctx context.Context) (*models.RiskAssessment, error)

// Coalescer layers duplicate suppression over a Cache. TTLs and the poll
// interval are read from the config source on every call so a reload applies
// to the next request.
type Coalescer struct {
	cache  Cache
	group  singleflight.Group
	source config.Source
	logger *slog.Logger
}

func NewCoalescer(cache Cache, source config.Source, logger *slog.Logger) *Coalescer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coalescer{
		cache:  cache,
		source: source,
		logger: logger,
	}
}

func (c *Coalescer) settings() config.Idempotency {
	cfg, _ := c.source.Current()
	return cfg.Idempotency
}

type flight struct {
	entry    Entry
	replayed bool
}

// GetIfPresent returns the cached assessment for key, if any.
func (c *Coalescer) GetIfPresent(ctx context.Context, key string) (*models.RiskAssessment, bool, error) {
	entry, found, err := c.lookup(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}
	a, err := decode(entry)
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

// Do returns the assessment stored under key, computing and caching it on a
// miss. replayed reports that the result came from an earlier computation.
// A stored result produced by a different request payload is a conflict.
func (c *Coalescer) Do(ctx context.Context, key, fingerprint string, compute Compute) (*models.RiskAssessment, bool, error) {
	if entry, found, err := c.lookup(ctx, key); err != nil {
		return nil, false, err
	} else if found {
		return finish(entry, fingerprint, true)
	}

	// The flight runs detached so one caller going away does not fail the
	// others waiting on the same key.
	ch := c.group.DoChan(key, func() (any, error) {
		return c.resolve(context.WithoutCancel(ctx), key, fingerprint, compute)
	})

	select {
	case <-ctx.Done():
		return nil, false, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "request cancelled while awaiting assessment")
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		f := res.Val.(flight)
		return finish(f.entry, fingerprint, f.replayed)
	}
}

func (c *Coalescer) resolve(ctx context.Context, key, fingerprint string, compute Compute) (flight, error) {
	settings := c.settings()
	if entry, found, err := c.lookup(ctx, key); err != nil {
		return flight{}, err
	} else if found {
		return flight{entry: entry, replayed: true}, nil
	}

	token, acquired, err := c.acquire(ctx, key, settings.LockTTL)
	if err != nil {
		return flight{}, err
	}
	if !acquired {
		entry, found, held, err := c.awaitOther(ctx, key, settings)
		if err != nil {
			return flight{}, err
		}
		if found {
			return flight{entry: entry, replayed: true}, nil
		}
		token = held
	}
	defer func() {
		if err := c.cache.Release(ctx, key, token); err != nil {
			c.logger.WarnContext(ctx, "idempotency lock release failed", "idempotency_key", key, "error", err)
		}
	}()

	a, err := compute(ctx)
	if err != nil {
		return flight{}, err
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return flight{}, dErrors.Wrap(err, dErrors.CodeInternal, "encoding assessment")
	}
	entry := Entry{Fingerprint: fingerprint, Payload: payload}
	if err := c.cache.Put(ctx, key, entry, settings.TTL); err != nil {
		c.logger.ErrorContext(ctx, "idempotency cache write failed", "idempotency_key", key, "assessment_id", a.ID.String(), "error", err)
	}
	return flight{entry: entry}, nil
}

// awaitOther polls while another instance holds the lock. It returns the
// other instance's result once written, or the lock token once the lock is
// free again (released without a result, or expired). A lock that stays
// taken past the lock TTL means the key is still being worked on elsewhere.
func (c *Coalescer) awaitOther(ctx context.Context, key string, settings config.Idempotency) (Entry, bool, string, error) {
	deadline := time.NewTimer(settings.LockTTL)
	defer deadline.Stop()
	ticker := time.NewTicker(settings.PollInterval)
	defer ticker.Stop()

	for {
		expired := false
		select {
		case <-deadline.C:
			expired = true
		case <-ticker.C:
		}

		entry, found, err := c.lookup(ctx, key)
		if err != nil || found {
			return entry, found, "", err
		}
		token, acquired, err := c.acquire(ctx, key, settings.LockTTL)
		if err != nil {
			return Entry{}, false, "", err
		}
		if acquired {
			c.logger.WarnContext(ctx, "idempotency lock freed without a result; computing", "idempotency_key", key)
			return Entry{}, false, token, nil
		}
		if expired {
			return Entry{}, false, "", dErrors.New(dErrors.CodeConflict, "an assessment for this idempotency key is still in progress")
		}
	}
}

func (c *Coalescer) acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token, acquired, err := c.cache.Acquire(ctx, key, ttl)
	if err != nil {
		return "", false, dErrors.Wrap(err, dErrors.CodeInternal, "idempotency lock unavailable")
	}
	return token, acquired, nil
}

func (c *Coalescer) lookup(ctx context.Context, key string) (Entry, bool, error) {
	entry, err := c.cache.Get(ctx, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "idempotency cache unavailable")
	}
	return entry, true, nil
}

func finish(entry Entry, fingerprint string, replayed bool) (*models.RiskAssessment, bool, error) {
	if entry.Fingerprint != fingerprint {
		return nil, false, dErrors.New(dErrors.CodeConflict, "idempotency key was already used with a different request")
	}
	a, err := decode(entry)
	if err != nil {
		return nil, false, err
	}
	return a, replayed, nil
}

func decode(entry Entry) (*models.RiskAssessment, error) {
	var a models.RiskAssessment
	if err := json.Unmarshal(entry.Payload, &a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decoding cached assessment")
	}
	return &a, nil
}
