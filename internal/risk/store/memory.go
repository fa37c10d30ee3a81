package store

import (
	"context"
	"sync"

	"riskwatch/internal/risk/models"
	audit "riskwatch/pkg/platform/audit"
	auditmemory "riskwatch/pkg/platform/audit/store/memory"
	pkgstrings "riskwatch/pkg/platform/strings"
)

type subjectKey struct {
	name    string
	country string
}

func keyFor(subjectName, countryISO string) subjectKey {
	return subjectKey{name: pkgstrings.NormalizeName(subjectName), country: countryISO}
}

// MemoryStore keeps assessments for the life of the process.
type MemoryStore struct {
	mu        sync.RWMutex
	byID      map[string]models.RiskAssessment
	bySubject map[subjectKey][]string
	audit     *auditmemory.InMemoryStore
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:      make(map[string]models.RiskAssessment),
		bySubject: make(map[subjectKey][]string),
		audit:     auditmemory.NewInMemoryStore(),
	}
}

func (s *MemoryStore) Save(_ context.Context, a *models.RiskAssessment) error {
	id := a.ID.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[id]; !exists {
		key := keyFor(a.SubjectName, a.CountryISO)
		s.bySubject[key] = append(s.bySubject[key], id)
	}
	s.byID[id] = *a
	return nil
}

func (s *MemoryStore) AppendAudit(ctx context.Context, entry AuditEntry) error {
	return s.audit.Append(ctx, entry.event(ctx))
}

// AuditTrail lists the audit events recorded for one assessment.
func (s *MemoryStore) AuditTrail(ctx context.Context, entityID string) ([]audit.Event, error) {
	return s.audit.ListByEntity(ctx, entityID)
}

// GetHistory returns up to limit prior assessments of the subject, newest first.
func (s *MemoryStore) GetHistory(_ context.Context, subjectName, countryISO string, limit int) ([]models.RiskAssessment, error) {
	s.mu.RLock()
	ids := s.bySubject[keyFor(subjectName, countryISO)]
	list := make([]models.RiskAssessment, 0, len(ids))
	for _, id := range ids {
		list = append(list, s.byID[id])
	}
	s.mu.RUnlock()

	newestFirst(list)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// RunInTx runs fn directly; memory writes are individually atomic.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
