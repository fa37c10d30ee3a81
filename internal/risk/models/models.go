// Package models holds the request and result types of a risk assessment.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"riskwatch/internal/screening/providers"
	"riskwatch/pkg/domain"
	dErrors "riskwatch/pkg/domain-errors"
	pkgstrings "riskwatch/pkg/platform/strings"
)

// MaxIdempotencyKeyLength bounds client-supplied idempotency keys.
const MaxIdempotencyKeyLength = 255

// RiskCheckRequest is a validated assessment request.
type RiskCheckRequest struct {
	SubjectName    string
	CountryISO     domain.CountryCode
	SubjectType    domain.SubjectType
	IdempotencyKey string
}

// NewRiskCheckRequest parses raw input. Malformed fields are validation
// errors; an unassigned country code is a not-found error.
func NewRiskCheckRequest(subjectName, countryISO, subjectType, idempotencyKey string) (RiskCheckRequest, error) {
	name, err := domain.ParseSubjectName(subjectName)
	if err != nil {
		return RiskCheckRequest{}, err
	}
	st, err := domain.ParseSubjectType(subjectType)
	if err != nil {
		return RiskCheckRequest{}, err
	}
	key := strings.TrimSpace(idempotencyKey)
	if len(key) > MaxIdempotencyKeyLength {
		return RiskCheckRequest{}, dErrors.New(dErrors.CodeValidation, "idempotencyKey must be at most 255 characters")
	}
	country, err := domain.ParseCountryCode(countryISO)
	if err != nil {
		return RiskCheckRequest{}, err
	}
	return RiskCheckRequest{
		SubjectName:    name,
		CountryISO:     country,
		SubjectType:    st,
		IdempotencyKey: key,
	}, nil
}

// Query is the subject as seen by the screening adapters.
func (r RiskCheckRequest) Query() providers.Query {
	return providers.Query{
		SubjectName: r.SubjectName,
		CountryISO:  r.CountryISO.String(),
		SubjectType: string(r.SubjectType),
	}
}

// Fingerprint identifies the request payload independent of the idempotency
// key. Names are compared case- and whitespace-insensitively.
func (r RiskCheckRequest) Fingerprint() string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		pkgstrings.NormalizeName(r.SubjectName),
		r.CountryISO.String(),
		string(r.SubjectType),
	}, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// Tier is the coarse risk classification.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Severity ranks a narrative entry.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities, high first.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

type TopRisk struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// RiskAssessment is the immutable outcome of one assessment.
type RiskAssessment struct {
	ID              domain.AssessmentID      `json:"id"`
	SubjectName     string                   `json:"subjectName"`
	CountryISO      string                   `json:"countryIso"`
	SubjectType     string                   `json:"subjectType"`
	OverallScore    int                      `json:"overallScore"`
	Tier            Tier                     `json:"tier"`
	Breakdown       map[providers.Signal]int `json:"breakdown"`
	TopRisks        []TopRisk                `json:"topRisks"`
	Recommendations []string                 `json:"recommendations"`
	PenaltyRange    string                   `json:"penaltyRange"`
	PartialSources  []providers.Signal       `json:"partialSources"`
	Warning         string                   `json:"warning,omitempty"`
	RulesetVersion  int                      `json:"rulesetVersion"`
	GeneratedAt     time.Time                `json:"generatedAt"`
	ExpiresAt       time.Time                `json:"expiresAt"`
}

// IsPartial reports whether any signal fell back.
func (a *RiskAssessment) IsPartial() bool {
	return len(a.PartialSources) > 0
}
