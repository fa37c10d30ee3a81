package handler

import (
	"strings"

	dErrors "riskwatch/pkg/domain-errors"
)

// maxFieldLength rejects oversized fields before any parsing.
const maxFieldLength = 1024

// AssessRiskRequest is the HTTP request body for POST /risk/assessments.
type AssessRiskRequest struct {
	SubjectName    string `json:"subjectName"`
	CountryISO     string `json:"countryIso"`
	SubjectType    string `json:"subjectType"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// Validate trims the request and rejects oversized input. Field semantics
// are checked by the service.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *AssessRiskRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	for _, field := range []string{r.SubjectName, r.CountryISO, r.SubjectType, r.IdempotencyKey} {
		if len(field) > maxFieldLength {
			return dErrors.New(dErrors.CodeValidation, "request field exceeds maximum length")
		}
	}
	r.SubjectName = strings.TrimSpace(r.SubjectName)
	r.CountryISO = strings.TrimSpace(r.CountryISO)
	r.SubjectType = strings.TrimSpace(r.SubjectType)
	r.IdempotencyKey = strings.TrimSpace(r.IdempotencyKey)
	return nil
}

// reconcileKey merges the body key with the Idempotency-Key header. Either
// may be absent; if both are present they must agree.
func reconcileKey(bodyKey, headerKey string) (string, error) {
	headerKey = strings.TrimSpace(headerKey)
	switch {
	case headerKey == "":
		return bodyKey, nil
	case bodyKey == "":
		return headerKey, nil
	case bodyKey != headerKey:
		return "", dErrors.New(dErrors.CodeValidation, "Idempotency-Key header does not match idempotencyKey")
	default:
		return bodyKey, nil
	}
}
