package domain

import (
	"github.com/google/uuid"

	dErrors "riskwatch/pkg/domain-errors"
)

// AssessmentID identifies a stored risk assessment.
type AssessmentID uuid.UUID

// NewAssessmentID mints a random assessment id.
func NewAssessmentID() AssessmentID {
	return AssessmentID(uuid.New())
}

// ParseAssessmentID parses a non-nil UUID string.
func ParseAssessmentID(s string) (AssessmentID, error) {
	if s == "" || len(s) > 64 {
		return AssessmentID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid assessment id")
	}
	parsed, err := uuid.Parse(s)
	if err != nil || parsed == uuid.Nil {
		return AssessmentID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid assessment id")
	}
	return AssessmentID(parsed), nil
}

func (id AssessmentID) String() string {
	return uuid.UUID(id).String()
}

func (id AssessmentID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id AssessmentID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *AssessmentID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = AssessmentID(parsed)
	return nil
}
