package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"riskwatch/internal/risk/models"
	"riskwatch/internal/screening/providers"
	audit "riskwatch/pkg/platform/audit"
	auditpostgres "riskwatch/pkg/platform/audit/store/postgres"
	pkgstrings "riskwatch/pkg/platform/strings"
	txcontext "riskwatch/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

// PostgresStore persists assessments in PostgreSQL. Writes join the
// transaction on the context when RunInTx started one.
type PostgresStore struct {
	db    *sql.DB
	audit *auditpostgres.Store
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, audit: auditpostgres.New(db)}
}

// Migrate creates the tables when they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.Run(ctx, s.db, fn)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Save(ctx context.Context, a *models.RiskAssessment) error {
	breakdown, err := json.Marshal(a.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	topRisks, err := json.Marshal(a.TopRisks)
	if err != nil {
		return fmt.Errorf("marshal top risks: %w", err)
	}
	recommendations, err := json.Marshal(a.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	partial := make([]string, len(a.PartialSources))
	for i, signal := range a.PartialSources {
		partial[i] = string(signal)
	}

	query := `
		INSERT INTO risk_assessments (
			id, subject_name, subject_key, country_iso, subject_type, overall_score, tier,
			breakdown, top_risks, recommendations, penalty_range, partial_sources, warning,
			ruleset_version, generated_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		a.ID.String(),
		a.SubjectName,
		pkgstrings.NormalizeName(a.SubjectName),
		a.CountryISO,
		a.SubjectType,
		a.OverallScore,
		string(a.Tier),
		breakdown,
		topRisks,
		recommendations,
		a.PenaltyRange,
		pq.Array(partial),
		a.Warning,
		a.RulesetVersion,
		a.GeneratedAt,
		a.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendAudit(ctx context.Context, entry AuditEntry) error {
	return s.audit.Append(ctx, entry.event(ctx))
}

func (s *PostgresStore) AuditTrail(ctx context.Context, entityID string) ([]audit.Event, error) {
	return s.audit.ListByEntity(ctx, entityID)
}

// GetHistory returns up to limit prior assessments of the subject, newest first.
func (s *PostgresStore) GetHistory(ctx context.Context, subjectName, countryISO string, limit int) ([]models.RiskAssessment, error) {
	query := `
		SELECT id, subject_name, country_iso, subject_type, overall_score, tier,
			breakdown, top_risks, recommendations, penalty_range, partial_sources, warning,
			ruleset_version, generated_at, expires_at
		FROM risk_assessments
		WHERE subject_key = $1 AND country_iso = $2
		ORDER BY generated_at DESC, id DESC
		LIMIT $3
	`
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, query, pkgstrings.NormalizeName(subjectName), countryISO, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var list []models.RiskAssessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return list, nil
}

func scanAssessment(rows *sql.Rows) (models.RiskAssessment, error) {
	var (
		a               models.RiskAssessment
		id              string
		tier            string
		breakdown       []byte
		topRisks        []byte
		recommendations []byte
		partial         []string
	)
	err := rows.Scan(&id, &a.SubjectName, &a.CountryISO, &a.SubjectType, &a.OverallScore, &tier,
		&breakdown, &topRisks, &recommendations, &a.PenaltyRange, pq.Array(&partial), &a.Warning,
		&a.RulesetVersion, &a.GeneratedAt, &a.ExpiresAt)
	if err != nil {
		return a, fmt.Errorf("scan assessment: %w", err)
	}
	if err := a.ID.UnmarshalText([]byte(id)); err != nil {
		return a, fmt.Errorf("decode assessment id: %w", err)
	}
	a.Tier = models.Tier(tier)
	if err := json.Unmarshal(breakdown, &a.Breakdown); err != nil {
		return a, fmt.Errorf("decode breakdown: %w", err)
	}
	if err := json.Unmarshal(topRisks, &a.TopRisks); err != nil {
		return a, fmt.Errorf("decode top risks: %w", err)
	}
	if err := json.Unmarshal(recommendations, &a.Recommendations); err != nil {
		return a, fmt.Errorf("decode recommendations: %w", err)
	}
	a.PartialSources = make([]providers.Signal, len(partial))
	for i, signal := range partial {
		a.PartialSources[i] = providers.Signal(signal)
	}
	a.GeneratedAt = a.GeneratedAt.UTC()
	a.ExpiresAt = a.ExpiresAt.UTC()
	return a, nil
}
