package accounting

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CentsExponent is the exponent of the minor unit. Every supported currency uses two decimals.
const CentsExponent = -2

var hundred = decimal.NewFromInt(100)

// CentsToDecimal converts minor units to a decimal amount in major units.
func CentsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, CentsExponent)
}

// DecimalToCents converts a major-unit amount to cents. Amounts with sub-cent precision are rejected.
func DecimalToCents(amount decimal.Decimal) (int64, error) {
	scaled := amount.Mul(hundred)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than two decimal places", amount.String())
	}
	if scaled.Abs().GreaterThan(decimal.NewFromInt(1 << 62)) {
		return 0, fmt.Errorf("amount %s is out of range", amount.String())
	}
	return scaled.IntPart(), nil
}

// ParseAmount parses a textual major-unit amount such as "123.45" into cents.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return DecimalToCents(d)
}

// FormatCents renders cents with exactly two decimals, e.g. -1050 -> "-10.50".
func FormatCents(cents int64) string {
	return CentsToDecimal(cents).StringFixed(2)
}
