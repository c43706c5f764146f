package shared

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnitPlaces is the currency precision used throughout the ledger.
const MinorUnitPlaces int32 = 2

// MinorUnit is the smallest representable currency amount (0.01).
var MinorUnit = decimal.New(1, -MinorUnitPlaces)

var hundred = decimal.NewFromInt(100)

// Round2 rounds half away from zero to the minor unit. For non-negative amounts
// this is round-half-up.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(MinorUnitPlaces)
}

// Percent returns amount * rate / 100 without rounding.
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}

// WithinMinorUnit reports |a-b| < 0.01.
func WithinMinorUnit(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(MinorUnit)
}

// ParseAmount parses a decimal string such as "1000.00". Empty input is zero.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("accounting: invalid amount %q: %w", raw, err)
	}
	return d, nil
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(v decimal.Decimal) string {
	return v.StringFixed(MinorUnitPlaces)
}

// Sum adds all values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
