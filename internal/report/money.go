package report

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money formats amounts in one currency.
type Money struct {
	currency *money.Currency
}

// NewMoney returns a formatter for an ISO 4217 code.
func NewMoney(code string) (Money, error) {
	cur := money.GetCurrency(strings.ToUpper(strings.TrimSpace(code)))
	if cur == nil {
		return Money{}, fmt.Errorf("unknown currency %q", code)
	}
	return Money{currency: cur}, nil
}

// Format renders amount with the currency symbol, rounded to the
// currency's minor unit.
func (m Money) Format(amount decimal.Decimal) string {
	minor := amount.Shift(int32(m.currency.Fraction)).Round(0)
	return m.currency.Formatter().Format(minor.IntPart())
}

// Signed is Format with an explicit plus sign on positive amounts.
func (m Money) Signed(amount decimal.Decimal) string {
	if amount.IsPositive() {
		return "+" + m.Format(amount)
	}
	return m.Format(amount)
}

// Percent renders a value already expressed in percent.
func Percent(p float64) string {
	return fmt.Sprintf("%+.2f%%", p)
}

// Fraction renders a ratio (0.05) as a percentage.
func Fraction(f float64) string {
	return Percent(f * 100)
}
