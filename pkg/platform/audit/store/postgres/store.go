package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	audit "riskwatch/pkg/platform/audit"
	txcontext "riskwatch/pkg/platform/tx"
)

// Store implements audit.Store on the risk_audit_log table. Appends join the
// caller's transaction when one is on the context.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append writes one audit row. Idempotent on event id.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	event = audit.Prepare(event, time.Now().UTC())

	diff, err := json.Marshal(event.Diff)
	if err != nil {
		return fmt.Errorf("marshal audit diff: %w", err)
	}

	query := `
		INSERT INTO risk_audit_log (id, category, occurred_at, actor, action, entity_id, diff, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		event.ID,
		string(event.Category),
		event.Timestamp,
		event.Actor,
		event.Action,
		event.EntityID,
		diff,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByEntity returns events for one entity, oldest first.
func (s *Store) ListByEntity(ctx context.Context, entityID string) ([]audit.Event, error) {
	query := `
		SELECT id, category, occurred_at, actor, action, entity_id, diff, request_id
		FROM risk_audit_log
		WHERE entity_id = $1
		ORDER BY occurred_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			category string
			diff     []byte
		)
		if err := rows.Scan(&event.ID, &category, &event.Timestamp, &event.Actor, &event.Action, &event.EntityID, &diff, &event.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		if len(diff) > 0 {
			if err := json.Unmarshal(diff, &event.Diff); err != nil {
				return nil, fmt.Errorf("decode audit diff: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
