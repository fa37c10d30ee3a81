package domain

import (
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "riskwatch/pkg/domain-errors"
)

// CountryCode is an assigned ISO 3166-1 alpha-2 code, upper case.
type CountryCode string

var countryValidator = validator.New()

// ParseCountryCode normalizes and checks a country code. Malformed input is a
// validation error; a well-formed but unassigned code (e.g. "ZZ") is not found.
func ParseCountryCode(s string) (CountryCode, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if len(code) != 2 || !isASCIIUpper(code[0]) || !isASCIIUpper(code[1]) {
		return "", dErrors.New(dErrors.CodeValidation, "countryIso must be a 2-letter ISO 3166-1 code")
	}
	if err := countryValidator.Var(code, "iso3166_1_alpha2"); err != nil {
		return "", dErrors.New(dErrors.CodeNotFound, "unknown country code "+code)
	}
	return CountryCode(code), nil
}

func (c CountryCode) String() string {
	return string(c)
}

func isASCIIUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}
