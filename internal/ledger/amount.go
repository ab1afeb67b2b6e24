package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxAmountScale bounds the number of decimal places accepted for an
// operation amount. Two is the natural scale for currency input; sub-cent
// amounts are rejected rather than silently rounded.
const MaxAmountScale = 2

// ParseAmount parses a decimal string into a strictly positive operation
// amount. Returns a *ValidationError for empty input, malformed decimals,
// non-positive values, and amounts finer than MaxAmountScale.
func ParseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, NewValidationError("amount", "must not be empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, NewValidationError("amount", fmt.Sprintf("malformed decimal %q", s))
	}
	return d, ValidateAmount(d)
}

// ValidateAmount checks that d is a well-formed operation amount:
// strictly positive, no finer than MaxAmountScale decimal places.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return NewValidationError("amount", "must be positive")
	}
	if d.Exponent() < -MaxAmountScale {
		return NewValidationError("amount", fmt.Sprintf("at most %d decimal places", MaxAmountScale))
	}
	return nil
}

// FormatAmount renders d with exactly MaxAmountScale decimal places.
// Used anywhere a balance or amount is shown to an operator.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(MaxAmountScale)
}
