// Package service orchestrates a risk assessment: validation, duplicate
// suppression, screening, scoring, persistence and notification.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"riskwatch/internal/platform/config"
	"riskwatch/internal/risk/events"
	"riskwatch/internal/risk/idempotency"
	"riskwatch/internal/risk/metrics"
	"riskwatch/internal/risk/models"
	"riskwatch/internal/risk/scoring"
	"riskwatch/internal/risk/store"
	"riskwatch/internal/screening/providers"
	"riskwatch/pkg/domain"
	dErrors "riskwatch/pkg/domain-errors"
	audit "riskwatch/pkg/platform/audit"
	"riskwatch/pkg/requestcontext"
)

// Coordinator fans a subject out to every screening signal.
type Coordinator interface {
	RunAssessmentProbes(ctx context.Context, q providers.Query) []providers.Result
	ProbeHealth(ctx context.Context) map[providers.Signal]providers.HealthReport
}

// Store persists assessments together with their audit entry.
type Store interface {
	Save(ctx context.Context, a *models.RiskAssessment) error
	AppendAudit(ctx context.Context, entry store.AuditEntry) error
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Idempotency suppresses duplicate computations for a client key.
type Idempotency interface {
	Do(ctx context.Context, key, fingerprint string, compute idempotency.Compute) (*models.RiskAssessment, bool, error)
}

type Publisher = events.Publisher

// AssessRiskInput is the raw request as received from a caller.
type AssessRiskInput struct {
	SubjectName    string
	CountryISO     string
	SubjectType    string
	IdempotencyKey string
}

type Service struct {
	coordinator Coordinator
	store       Store
	idempotency Idempotency
	publisher   Publisher
	source      config.Source
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	newID       func() domain.AssessmentID
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithIdempotency enables replay of keyed requests. Without it every request
// is computed afresh.
func WithIdempotency(i Idempotency) Option {
	return func(s *Service) {
		s.idempotency = i
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithIDGenerator overrides assessment id minting (tests).
func WithIDGenerator(fn func() domain.AssessmentID) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

func New(coordinator Coordinator, st Store, source config.Source, opts ...Option) (*Service, error) {
	if coordinator == nil {
		return nil, errors.New("coordinator is required")
	}
	if st == nil {
		return nil, errors.New("store is required")
	}
	if source == nil {
		return nil, errors.New("config source is required")
	}
	svc := &Service{
		coordinator: coordinator,
		store:       st,
		source:      source,
		publisher:   events.NopPublisher{},
		logger:      slog.Default(),
		tracer:      otel.Tracer("riskwatch/risk"),
		newID:       domain.NewAssessmentID,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// AssessRisk validates the request and returns its assessment. A keyed
// request seen within the idempotency window returns the stored result
// without probing any provider.
func (s *Service) AssessRisk(ctx context.Context, in AssessRiskInput) (*models.RiskAssessment, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveAssessLatency(time.Since(start)) }()

	req, err := models.NewRiskCheckRequest(in.SubjectName, in.CountryISO, in.SubjectType, in.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "risk.AssessRisk", trace.WithAttributes(
		attribute.String("risk.country", req.CountryISO.String()),
		attribute.String("risk.subject_type", string(req.SubjectType)),
		attribute.Bool("risk.idempotent", req.IdempotencyKey != ""),
	))
	defer span.End()

	compute := func(ctx context.Context) (*models.RiskAssessment, error) {
		return s.compute(ctx, req)
	}

	var (
		assessment *models.RiskAssessment
		replayed   bool
	)
	if req.IdempotencyKey != "" && s.idempotency != nil {
		assessment, replayed, err = s.idempotency.Do(ctx, req.IdempotencyKey, req.Fingerprint(), compute)
	} else {
		assessment, err = compute(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if replayed {
		s.metrics.IncrementReplay()
	}
	span.SetAttributes(
		attribute.String("risk.assessment_id", assessment.ID.String()),
		attribute.Int("risk.overall_score", assessment.OverallScore),
		attribute.Bool("risk.replayed", replayed),
	)
	s.logger.InfoContext(ctx, "risk assessment served",
		"assessment_id", assessment.ID.String(),
		"overall_score", assessment.OverallScore,
		"tier", assessment.Tier,
		"partial_sources", assessment.PartialSources,
		"replayed", replayed,
	)
	return assessment, nil
}

func (s *Service) compute(ctx context.Context, req models.RiskCheckRequest) (*models.RiskAssessment, error) {
	cfg, _ := s.source.Current()
	results := s.coordinator.RunAssessmentProbes(ctx, req.Query())

	assessment, err := scoring.PolicyFrom(cfg.Scoring).Aggregate(req, results, s.newID(), requestcontext.Now(ctx))
	if err != nil {
		s.logger.ErrorContext(ctx, "aggregation failed", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "risk assessment could not be scored")
	}

	if err := s.persist(ctx, assessment); err != nil {
		s.metrics.IncrementPersistFailure()
		s.logger.ErrorContext(ctx, "persisting assessment failed",
			"assessment_id", assessment.ID.String(),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "risk assessment could not be stored")
	}

	s.metrics.IncrementAssessment(string(assessment.Tier), assessment.IsPartial())
	if assessment.IsPartial() {
		s.logger.WarnContext(ctx, "assessment used fallback scores",
			"assessment_id", assessment.ID.String(),
			"partial_sources", assessment.PartialSources,
		)
	}
	s.publisher.AssessmentCompleted(ctx, assessment)
	return assessment, nil
}

func (s *Service) persist(ctx context.Context, a *models.RiskAssessment) error {
	diff := map[string]any{
		"overallScore":   a.OverallScore,
		"tier":           string(a.Tier),
		"partialSources": a.PartialSources,
		"rulesetVersion": a.RulesetVersion,
	}
	if clientID := requestcontext.ClientID(ctx); clientID != "" {
		diff["clientId"] = clientID
	}
	return s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Save(ctx, a); err != nil {
			return err
		}
		return s.store.AppendAudit(ctx, store.AuditEntry{
			Actor:    requestcontext.Actor(ctx),
			Action:   audit.EventRiskAssessed,
			EntityID: a.ID.String(),
			Diff:     diff,
		})
	})
}

// ProviderHealth probes every configured signal and reports its status.
func (s *Service) ProviderHealth(ctx context.Context) map[providers.Signal]providers.HealthReport {
	return s.coordinator.ProbeHealth(ctx)
}
