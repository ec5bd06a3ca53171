// Package money holds the two-decimal currency helpers shared by order
// assembly and the HTTP layer.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const Places = 2

// Round rounds half away from zero to cents.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// LineTotal is price * quantity, rounded to cents.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return Round(price.Mul(decimal.NewFromInt(int64(quantity))))
}

// Sum adds amounts and rounds the result.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return Round(total)
}

// Parse reads a non-negative amount such as "12.50".
func Parse(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q must not be negative", value)
	}
	return Round(d), nil
}

// String formats with exactly two fractional digits.
func String(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
