package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events for retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine events useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is one append-only audit entry: who did what to which entity, and
// what changed.
type Event struct {
	ID        uuid.UUID
	Category  EventCategory
	Timestamp time.Time
	Actor     string
	Action    string
	EntityID  string
	Diff      map[string]any
	RequestID string
}

type AuditEvent string

const (
	// EventRiskAssessed is appended once per computed assessment.
	EventRiskAssessed AuditEvent = "risk.assessed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRiskAssessed: CategoryCompliance,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store appends and lists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, entityID string) ([]Event, error)
}

// Prepare fills the id, category and timestamp when unset.
func Prepare(event Event, now time.Time) Event {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now
	}
	return event
}
