package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyString(t *testing.T) {
	cases := []struct {
		units int64
		want  string
	}{
		{0, "0.00"},
		{199, "1.99"},
		{100, "1.00"},
		{-550, "-5.50"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FromMinorUnits(tc.units).String())
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := FromMinorUnits(1299)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `"12.99"`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, m, decoded)
}

func TestMoneyUnmarshalBareNumber(t *testing.T) {
	var m Money
	require.NoError(t, json.Unmarshal([]byte("12.5"), &m))
	assert.Equal(t, int64(1250), m.MinorUnits())
}

func TestParseDecimal(t *testing.T) {
	m, err := ParseDecimal("9.99")
	require.NoError(t, err)
	assert.Equal(t, int64(999), m.MinorUnits())

	_, err = ParseDecimal("not-a-number")
	assert.Error(t, err)
}

func TestParsePriceEuropeanFormat(t *testing.T) {
	m, err := ParsePrice("1.234,56 KN")
	require.NoError(t, err)
	assert.Equal(t, int64(123456), m.MinorUnits())
}

func TestParsePriceUSFormat(t *testing.T) {
	m, err := ParsePrice("$1,234.56")
	require.NoError(t, err)
	assert.Equal(t, int64(123456), m.MinorUnits())
}

func TestParsePriceSimpleDecimal(t *testing.T) {
	m, err := ParsePrice("  19.99 EUR ")
	require.NoError(t, err)
	assert.Equal(t, int64(1999), m.MinorUnits())
}

func TestParsePriceRejectsEmpty(t *testing.T) {
	_, err := ParsePrice("")
	assert.Error(t, err)
}

func TestParsePriceRejectsNonNumeric(t *testing.T) {
	_, err := ParsePrice("out of stock")
	assert.Error(t, err)
}

func TestParsePriceRejectsNegative(t *testing.T) {
	_, err := ParsePrice("-5.00")
	assert.Error(t, err)
}
