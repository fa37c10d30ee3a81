// Package store persists assessments and their audit trail.
package store

import (
	"context"
	"sort"

	"riskwatch/internal/risk/models"
	audit "riskwatch/pkg/platform/audit"
	"riskwatch/pkg/requestcontext"
)

// AuditEntry describes one audit append.
type AuditEntry struct {
	Actor    string
	Action   audit.AuditEvent
	EntityID string
	Diff     map[string]any
}

func (e AuditEntry) event(ctx context.Context) audit.Event {
	return audit.Event{
		Actor:     e.Actor,
		Action:    string(e.Action),
		EntityID:  e.EntityID,
		Diff:      e.Diff,
		RequestID: requestcontext.RequestID(ctx),
	}
}

// newestFirst orders history by generation time, latest first, with the id
// as a stable tie breaker.
func newestFirst(list []models.RiskAssessment) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].GeneratedAt.Equal(list[j].GeneratedAt) {
			return list[i].GeneratedAt.After(list[j].GeneratedAt)
		}
		return list[i].ID.String() > list[j].ID.String()
	})
}
