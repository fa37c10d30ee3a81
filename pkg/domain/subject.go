package domain

import (
	"strings"

	dErrors "riskwatch/pkg/domain-errors"
)

// SubjectType distinguishes natural persons from legal entities.
type SubjectType string

const (
	SubjectIndividual SubjectType = "individual"
	SubjectEntity     SubjectType = "entity"
)

// MaxSubjectNameLength bounds names accepted from callers.
const MaxSubjectNameLength = 256

// ParseSubjectType accepts the known subject types, case-insensitively.
func ParseSubjectType(s string) (SubjectType, error) {
	switch t := SubjectType(strings.ToLower(strings.TrimSpace(s))); t {
	case SubjectIndividual, SubjectEntity:
		return t, nil
	case "":
		return "", dErrors.New(dErrors.CodeValidation, "subjectType is required")
	default:
		return "", dErrors.New(dErrors.CodeValidation, "unsupported subjectType "+s)
	}
}

// ParseSubjectName trims and bounds a subject name.
func ParseSubjectName(s string) (string, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return "", dErrors.New(dErrors.CodeValidation, "subjectName is required")
	}
	if len(name) > MaxSubjectNameLength {
		return "", dErrors.New(dErrors.CodeValidation, "subjectName must be at most 256 characters")
	}
	return name, nil
}
