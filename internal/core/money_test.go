package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageUnitsRoundTrip(t *testing.T) {
	for _, units := range []int64{0, 1, -1, 999, 10500, -10500, 1234567890, -9, 123456789012345} {
		assert.Equal(t, units, ToStorageUnits(FromStorageUnits(units)), "units %d", units)
	}
}

func TestToStorageUnits(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"10.5", 10500},
		{"0.001", 1},
		{"1.2345", 1235},
		{"1.2344", 1234},
		{"-1.2345", -1234}, // halves go toward +inf
		{"-1.2346", -1235},
		{"0", 0},
	}
	for _, tc := range cases {
		got := ToStorageUnits(decimal.RequireFromString(tc.in))
		assert.Equal(t, tc.want, got, "input %s", tc.in)
	}
}

func TestFromStorageUnits(t *testing.T) {
	assert.True(t, FromStorageUnits(10500).Equal(decimal.RequireFromString("10.5")))
	assert.Equal(t, "-12.50", FormatAmount(-12500))
	assert.Equal(t, "0.00", FormatAmount(0))
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 12340, true},
		{"12,34", 12340, true},
		{"-12,5", -12500, true},
		{"1,234.56", 1234560, true},
		{"1.234,56", 1234560, true},
		{"1.234.567", 1234567000, true},
		{"€ 3.20", 3200, true},
		{"3.20 EUR", 3200, true},
		{"(4.00)", -4000, true},
		{"12.00-", -12000, true},
		{"+7", 7000, true},
		{" 0.0005 ", 1, true},
		{"", 0, false},
		{"abc", 0, false},
		{"1;2", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !tc.ok {
			require.Error(t, err, "input %q", tc.in)
			assert.True(t, errors.Is(err, ErrValidation), "input %q should be a validation error", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}
