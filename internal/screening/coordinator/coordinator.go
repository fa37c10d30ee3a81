// Package coordinator fans one assessment out to every screening signal and
// collects exactly one result per signal, substituting fallbacks for
// failures.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"riskwatch/internal/platform/config"
	"riskwatch/internal/screening/metrics"
	"riskwatch/internal/screening/providers"
	"riskwatch/pkg/requestcontext"
)

// Resolver hands out the adapter serving each signal.
type Resolver interface {
	Adapter(signal providers.Signal) (providers.Adapter, error)
	All() []providers.Adapter
}

// Coordinator runs the probe phase of an assessment.
type Coordinator struct {
	resolver Resolver
	source   config.Source
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

func New(resolver Resolver, source config.Source, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		resolver: resolver,
		source:   source,
		logger:   logger,
		tracer:   otel.Tracer("riskwatch/screening"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAssessmentProbes screens q against every signal concurrently. It never
// fails: each signal yields either the adapter's result or a fallback. The
// phase lasts as long as the slowest adapter deadline.
func (c *Coordinator) RunAssessmentProbes(ctx context.Context, q providers.Query) []providers.Result {
	cfg, _ := c.source.Current()
	fallbacks := FallbackScores(cfg.Scoring.Fallbacks)

	results := make([]providers.Result, len(providers.AllSignals))
	var wg sync.WaitGroup
	for i, signal := range providers.AllSignals {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.probe(ctx, signal, q, fallbacks[signal])
		}()
	}
	wg.Wait()
	return results
}

func (c *Coordinator) probe(ctx context.Context, signal providers.Signal, q providers.Query, fallback int) providers.Result {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "screening.probe", trace.WithAttributes(
		attribute.String("signal", string(signal)),
	))
	defer span.End()

	var result providers.Result
	adapter, err := c.resolver.Adapter(signal)
	if err != nil {
		result = providers.Failed(signal, "", providers.FailureNotConfigured, fallback)
	} else {
		span.SetAttributes(attribute.String("provider", adapter.ID()))
		var res providers.Result
		res, err = invoke(ctx, adapter, q)
		switch {
		case err != nil:
			result = providers.Failed(signal, adapter.ID(), providers.FailureReasonFor(err), fallback)
		case !res.Success:
			err = fmt.Errorf("adapter %s reported failure without error", adapter.ID())
			result = providers.Failed(signal, adapter.ID(), providers.FailureUpstreamError, fallback)
		default:
			result = res
			result.Signal = signal
			result.Score = providers.Clamp(res.Score)
			result.Confidence = providers.Clamp(res.Confidence)
			if result.ProviderID == "" {
				result.ProviderID = adapter.ID()
			}
		}
	}
	result.Latency = time.Since(start)

	span.SetAttributes(
		attribute.Bool("success", result.Success),
		attribute.Int("score", result.Score),
	)
	c.metrics.ObserveProbe(string(signal), result.Success, result.Latency)
	if err != nil {
		span.SetAttributes(attribute.String("failure_reason", string(result.FailureReason)))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(result.FailureReason))
		c.metrics.IncrementFallback(string(signal), string(result.FailureReason))
		c.logger.WarnContext(ctx, "screening probe fell back",
			"request_id", requestcontext.RequestID(ctx),
			"signal", signal,
			"provider", result.ProviderID,
			"reason", result.FailureReason,
			"fallback_score", fallback,
			"duration_ms", result.Latency.Milliseconds(),
			"error", err,
		)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return result
}

type outcome struct {
	result providers.Result
	err    error
}

// invoke bounds a Screen call by the adapter's deadline. An adapter that
// ignores its context still yields a timeout once the deadline passes; its
// goroutine drains into a buffered channel.
func invoke(ctx context.Context, adapter providers.Adapter, q providers.Query) (providers.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, adapter.Timeout())
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: providers.NewProviderError(providers.ErrorInternal, adapter.ID(), "adapter panic", fmt.Errorf("%v", r))}
			}
		}()
		res, err := adapter.Screen(ctx, q)
		done <- outcome{result: res, err: err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-ctx.Done():
		return providers.Result{}, providers.NewProviderError(providers.ErrorTimeout, adapter.ID(), "deadline exceeded", ctx.Err())
	}
}

// ProbeHealth runs every adapter's health check concurrently, each bounded
// by the adapter's timeout.
func (c *Coordinator) ProbeHealth(ctx context.Context) map[providers.Signal]providers.HealthReport {
	adapters := c.resolver.All()
	reports := make([]providers.HealthReport, len(adapters))

	var wg sync.WaitGroup
	for i, adapter := range adapters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i] = checkHealth(ctx, adapter)
		}()
	}
	wg.Wait()

	out := make(map[providers.Signal]providers.HealthReport, len(adapters))
	for i, adapter := range adapters {
		out[adapter.Signal()] = reports[i]
		c.metrics.SetHealth(string(adapter.Signal()), adapter.ID(), healthValue(reports[i].Status))
	}
	return out
}

func checkHealth(ctx context.Context, adapter providers.Adapter) providers.HealthReport {
	ctx, cancel := context.WithTimeout(ctx, adapter.Timeout())
	defer cancel()

	start := time.Now()
	done := make(chan providers.HealthReport, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- providers.HealthReport{Status: providers.HealthUnhealthy, Error: fmt.Sprintf("health check panic: %v", r)}
			}
		}()
		done <- adapter.HealthCheck(ctx)
	}()

	select {
	case report := <-done:
		return report
	case <-ctx.Done():
		return providers.HealthReport{
			Status:         providers.HealthUnhealthy,
			ResponseTimeMs: time.Since(start).Milliseconds(),
			Error:          "health check timed out",
		}
	}
}

func healthValue(s providers.HealthStatus) float64 {
	switch s {
	case providers.HealthHealthy:
		return 1
	case providers.HealthDegraded:
		return 0.5
	default:
		return 0
	}
}

// FallbackScores maps configured fallbacks onto signals.
func FallbackScores(f config.SignalScores) map[providers.Signal]int {
	return map[providers.Signal]int{
		providers.SignalSanctions:       f.Sanctions,
		providers.SignalPEP:             f.PEP,
		providers.SignalAdverseMedia:    f.AdverseMedia,
		providers.SignalInternalHistory: f.InternalHistory,
		providers.SignalCountryBaseline: f.CountryBaseline,
	}
}
