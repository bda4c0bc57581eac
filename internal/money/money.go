// Package money represents prices as fixed-point minor units (cents) so
// that no part of the pipeline ever rounds a float.
package money

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Money is an amount in minor currency units (e.g. cents). The zero
// value is zero.
type Money int64

// FromMinorUnits wraps a raw minor-unit amount.
func FromMinorUnits(units int64) Money {
	return Money(units)
}

// MinorUnits returns the raw minor-unit amount.
func (m Money) MinorUnits() int64 {
	return int64(m)
}

// String renders the amount as a decimal string with two fractional
// digits, e.g. Money(123456) -> "1234.56".
func (m Money) String() string {
	neg := m < 0
	v := int64(m)
	if neg {
		v = -v
	}
	whole := v / 100
	frac := v % 100
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%02d", sign, whole, frac)
}

// MarshalJSON renders Money as a JSON decimal string rather than a
// number, so clients never parse it into a float.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a decimal string ("12.99") or a bare
// number, matching how the original price feeds sometimes appear.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseDecimal(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("money: cannot unmarshal %s", data)
	}
	*m = Money(int64(f*100 + 0.5))
	return nil
}

// ParseDecimal parses an already-clean decimal string ("12.99") into
// Money, without any currency-symbol or separator handling.
func ParseDecimal(s string) (Money, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("money: invalid decimal %q: %w", s, err)
	}
	if f < 0 {
		return Money(-int64(-f*100 + 0.5)), nil
	}
	return Money(int64(f*100 + 0.5)), nil
}
