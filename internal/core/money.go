// Package core holds the budget domain model: money, snapshot entities and
// the pure transaction classifiers used by the aggregation engine.
//
// The remote service encodes every amount as integer milliunits (1/1000 of a
// display unit). Money is the decimal representation used everywhere past the
// sync boundary; the two representations never mix.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is a currency amount in cents. Cents keep two-decimal values exact;
// use Units only for display.
type Money struct {
	Cents int64
}

// NormalizeMilliunits converts a raw service amount (milliunits) to Money,
// rounding the sub-cent digit half away from zero. Sign is preserved.
func NormalizeMilliunits(raw int64) Money {
	cents := raw / 10
	switch rem := raw % 10; {
	case rem >= 5:
		cents++
	case rem <= -5:
		cents--
	}
	return Money{Cents: cents}
}

// Milliunits converts back to the service's fixed-point encoding. For amounts
// representable in two decimals, NormalizeMilliunits(m.Milliunits()) == m.
func (m Money) Milliunits() int64 {
	return m.Cents * 10
}

// Units returns the decimal value as a float64 for display purposes.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

// Abs returns the magnitude, used when stacking liabilities.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

// Div returns the amount divided by n, truncating toward zero. n must be > 0.
func (m Money) Div(n int) Money {
	if n <= 0 {
		return Money{}
	}
	return Money{Cents: m.Cents / int64(n)}
}

// String formats the amount with two decimals, e.g. "-12.05".
func (m Money) String() string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return sign + strconv.FormatInt(c/100, 10) + "." + pad2(c%100)
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// MarshalJSON encodes Money as a plain decimal number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a decimal number (or quoted decimal string).
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	parsed, err := ParseUnits(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseUnits converts a decimal string to Money with half-up rounding on the
// third decimal place. Both signs and zero are accepted.
func ParseUnits(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return Money{}, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return Money{Cents: cents}, nil
}
