package scoring

import (
	"strings"

	"github.com/shopspring/decimal"

	"riskwatch/internal/risk/models"
)

// Currency is the reporting currency of a penalty estimate.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

type band struct {
	low, high decimal.Decimal
}

// usdBands are indicative regulatory penalty ranges per tier.
var usdBands = map[models.Tier]band{
	models.TierLow:    {decimal.Zero, decimal.NewFromInt(10_000)},
	models.TierMedium: {decimal.NewFromInt(10_000), decimal.NewFromInt(250_000)},
	models.TierHigh:   {decimal.NewFromInt(250_000), decimal.NewFromInt(5_000_000)},
}

var fxFromUSD = map[Currency]decimal.Decimal{
	USD: decimal.NewFromInt(1),
	EUR: decimal.RequireFromString("0.92"),
	GBP: decimal.RequireFromString("0.79"),
}

var euroArea = map[string]struct{}{
	"AT": {}, "BE": {}, "HR": {}, "CY": {}, "EE": {}, "FI": {}, "FR": {},
	"DE": {}, "GR": {}, "IE": {}, "IT": {}, "LV": {}, "LT": {}, "LU": {},
	"MT": {}, "NL": {}, "PT": {}, "SK": {}, "SI": {}, "ES": {},
}

var thousand = decimal.NewFromInt(1000)

// CurrencyFor picks the reporting currency for a country.
func CurrencyFor(countryISO string) Currency {
	code := strings.ToUpper(countryISO)
	if code == "GB" {
		return GBP
	}
	if _, ok := euroArea[code]; ok {
		return EUR
	}
	return USD
}

// PenaltyRange formats the indicative penalty band, e.g. "EUR 9,000 - 230,000".
func PenaltyRange(tier models.Tier, countryISO string) string {
	b, ok := usdBands[tier]
	if !ok {
		b = usdBands[models.TierLow]
	}
	cur := CurrencyFor(countryISO)
	rate := fxFromUSD[cur]
	return string(cur) + " " + formatAmount(convert(b.low, rate)) + " - " + formatAmount(convert(b.high, rate))
}

// convert applies rate and rounds to the nearest thousand.
func convert(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(thousand).Round(0).Mul(thousand)
}

func formatAmount(d decimal.Decimal) string {
	digits := d.StringFixed(0)
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
