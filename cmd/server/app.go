package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"riskwatch/internal/platform/config"
	"riskwatch/internal/platform/kafka"
	"riskwatch/internal/platform/postgres"
	"riskwatch/internal/platform/redis"
	"riskwatch/internal/risk/events"
	"riskwatch/internal/risk/idempotency"
	riskmetrics "riskwatch/internal/risk/metrics"
	"riskwatch/internal/risk/service"
	"riskwatch/internal/risk/store"
	"riskwatch/internal/screening/coordinator"
	screeningmetrics "riskwatch/internal/screening/metrics"
	"riskwatch/internal/screening/providers/history"
	"riskwatch/internal/screening/registry"
)

const (
	cachePurgeInterval = time.Minute
	kafkaFlushTimeout  = 5 * time.Second
	kafkaPingTimeout   = 3 * time.Second
)

// resultStore is satisfied by both the memory and Postgres stores.
type resultStore interface {
	service.Store
	history.Store
	Ping(ctx context.Context) error
}

type app struct {
	service *service.Service
	checks  map[string]func(ctx context.Context) error
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp connects the optional backends and assembles the service. Each
// backend falls back to its in-process variant when it is not configured.
func buildApp(ctx context.Context, source *config.Watcher, log *slog.Logger) (*app, error) {
	cfg, _ := source.Current()
	a := &app{checks: map[string]func(context.Context) error{}}

	st, err := a.openStore(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.checks["store"] = st.Ping

	cache, err := a.openCache(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	publisher, err := a.openPublisher(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	reg, err := registry.New(source, st, registry.WithLogger(log))
	if err != nil {
		a.Close()
		return nil, err
	}
	coord := coordinator.New(reg, source, log, coordinator.WithMetrics(screeningmetrics.New()))

	svc, err := service.New(coord, st, source,
		service.WithIdempotency(idempotency.NewCoalescer(cache, source, log)),
		service.WithPublisher(publisher),
		service.WithLogger(log),
		service.WithMetrics(riskmetrics.New()),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.service = svc
	return a, nil
}

func (a *app) openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (resultStore, error) {
	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	if db == nil {
		log.Warn("postgres not configured; assessments are kept in memory")
		return store.NewMemoryStore(), nil
	}
	a.closers = append(a.closers, func() { _ = db.Close() })

	pg := store.NewPostgres(db)
	if cfg.Postgres.Migrate {
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	return pg, nil
}

func (a *app) openCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (idempotency.Cache, error) {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		log.Warn("redis not configured; idempotency is per instance")
		mem := idempotency.NewMemoryCache()
		purgeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		a.closers = append(a.closers, cancel)
		go purgeLoop(purgeCtx, mem)
		return mem, nil
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.checks["redis"] = client.Health
	return idempotency.NewRedisCache(client.Client), nil
}

func (a *app) openPublisher(ctx context.Context, cfg *config.Config, log *slog.Logger) (events.Publisher, error) {
	client, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return events.NopPublisher{}, nil
	}
	a.closers = append(a.closers, func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), kafkaFlushTimeout)
		defer cancel()
		if err := client.Flush(flushCtx); err != nil {
			log.Warn("kafka flush on shutdown failed", "error", err)
		}
		client.Close()
	})

	pingCtx, cancel := context.WithTimeout(ctx, kafkaPingTimeout)
	defer cancel()
	if err := kafka.Ping(pingCtx, client); err != nil {
		// Events are best effort; the producer keeps retrying in the background.
		log.Warn("kafka unreachable at startup", "error", err)
	}
	a.checks["kafka"] = func(ctx context.Context) error { return kafka.Ping(ctx, client) }
	return events.NewKafkaPublisher(client, cfg.Kafka.Topic, log), nil
}

func purgeLoop(ctx context.Context, cache *idempotency.MemoryCache) {
	ticker := time.NewTicker(cachePurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cache.Purge()
		}
	}
}

func (a *app) ready(ctx context.Context) error {
	for name, check := range a.checks {
		if err := check(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
