package model

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// Money is an amount in minor currency units (cents).
// The storefront API speaks decimal major units ("price": 99.99); Money
// converts at the JSON boundary so all client arithmetic is exact.
type Money int64

// ParseCents converts decimal string amounts (dollars) to cents (int64).
// Handles edge cases: empty strings, missing decimals, large values.
// Examples: "99.00" → 9900, "1234.56" → 123456, "" → 0
func ParseCents(s string) int64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	// math.Round handles both positive and negative numbers correctly
	return int64(math.Round(f * 100))
}

// FromDollars converts a major-unit float to Money, rounding to the nearest cent.
func FromDollars(f float64) Money {
	return Money(math.Round(f * 100))
}

// Dollars returns the amount in major units.
func (m Money) Dollars() float64 {
	return float64(m) / 100
}

// String renders the amount as a plain decimal with two fraction digits ("12.50").
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Format renders the amount for display ("$12.50").
func (m Money) Format() string {
	if m < 0 {
		return "-$" + (-m).String()
	}
	return "$" + m.String()
}

// MarshalJSON encodes as a JSON number in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string, or null (zero).
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("money: %w", err)
		}
		*m = Money(ParseCents(s))
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("money: invalid amount %s", data)
	}
	*m = FromDollars(f)
	return nil
}

// MinMoney returns the smaller of a and b.
func MinMoney(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}
