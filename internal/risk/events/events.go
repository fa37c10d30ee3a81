// Package events announces completed assessments to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"riskwatch/internal/risk/models"
	"riskwatch/internal/screening/providers"
)

// TopicAssessmentCompleted is the default topic for completion events.
const TopicAssessmentCompleted = "risk.assessment.completed"

// AssessmentCompleted is the event payload.
type AssessmentCompleted struct {
	AssessmentID   string             `json:"assessmentId"`
	SubjectName    string             `json:"subjectName"`
	CountryISO     string             `json:"countryIso"`
	OverallScore   int                `json:"overallScore"`
	Tier           models.Tier        `json:"tier"`
	PartialSources []providers.Signal `json:"partialSources"`
	GeneratedAt    time.Time          `json:"generatedAt"`
}

func FromAssessment(a *models.RiskAssessment) AssessmentCompleted {
	partial := a.PartialSources
	if partial == nil {
		partial = []providers.Signal{}
	}
	return AssessmentCompleted{
		AssessmentID:   a.ID.String(),
		SubjectName:    a.SubjectName,
		CountryISO:     a.CountryISO,
		OverallScore:   a.OverallScore,
		Tier:           a.Tier,
		PartialSources: partial,
		GeneratedAt:    a.GeneratedAt,
	}
}

// Publisher emits completion events. Publishing is best effort: failures are
// logged by the implementation and never fail the assessment.
type Publisher interface {
	AssessmentCompleted(ctx context.Context, a *models.RiskAssessment)
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) AssessmentCompleted(context.Context, *models.RiskAssessment) {}

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// KafkaPublisher produces completion events asynchronously.
type KafkaPublisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

func NewKafkaPublisher(producer Producer, topic string, logger *slog.Logger) *KafkaPublisher {
	if topic == "" {
		topic = TopicAssessmentCompleted
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger}
}

func (p *KafkaPublisher) AssessmentCompleted(ctx context.Context, a *models.RiskAssessment) {
	event := FromAssessment(a)
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "encode assessment event", "assessment_id", event.AssessmentID, "error", err)
		return
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.AssessmentID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	// The record must outlive the request; delivery is acknowledged in the promise.
	p.producer.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("publish assessment event failed",
				"topic", r.Topic,
				"assessment_id", string(r.Key),
				"error", err,
			)
		}
	})
}
