package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a TENMO bucks amount.
// Amounts are stored as int64 micros (10^-6) to avoid floating point errors.
type Money int64

const microsPerBuck = 1_000_000

// NewMoney creates a Money value from micros.
func NewMoney(micros int64) Money {
	return Money(micros)
}

// MoneyFromDecimal converts a decimal amount of bucks to micros, rounding down.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Mul(decimal.NewFromInt(microsPerBuck)).IntPart())
}

// ParseMoney parses a decimal string such as "40.00" into micros.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return MoneyFromDecimal(d), nil
}

// Micros returns the raw micros value.
func (m Money) Micros() int64 {
	return int64(m)
}

// ToDecimal converts the micros to a shopspring/decimal.Decimal.
func (m Money) ToDecimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m)).Div(decimal.NewFromInt(microsPerBuck))
}

// Positive reports whether the amount is strictly greater than zero.
func (m Money) Positive() bool {
	return m > 0
}

// String renders the amount with two decimal places, e.g. "40.00".
func (m Money) String() string {
	return m.ToDecimal().StringFixed(2)
}

// MarshalJSON renders the amount as a decimal string to keep fixed-point
// precision out of client hands.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts a decimal string such as "40.00".
func (m *Money) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("amount must be a decimal string: %w", err)
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
