package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept on every amount.
const MoneyScale = 2

// Cent is the smallest representable amount.
var Cent = decimal.New(1, -MoneyScale)

// RoundMoney rounds d to cents, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// ParseAmount parses a decimal string and rounds it to cents.
// It accepts zero and negative values; callers decide what is valid.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal", ErrInvalidAmount, s)
	}
	return RoundMoney(d), nil
}

// RequirePositive returns ErrInvalidAmount unless d > 0.
func RequirePositive(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidAmount, d.StringFixed(MoneyScale))
	}
	return nil
}
