// Package core holds the ledger's domain types and the pure arithmetic behind
// reconciliation and summaries.
//
// Amounts are stored as int64 milli-units: the decimal value multiplied by
// 1000. This file converts between that representation and decimals.
package core

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MilliUnitsPerUnit is the storage scale of every amount.
const MilliUnitsPerUnit = 1000

var (
	half        = decimal.New(5, -1)
	maxStorable = decimal.NewFromInt(math.MaxInt64)
	minStorable = decimal.NewFromInt(math.MinInt64)
)

// ToStorageUnits rounds d×1000 to the nearest integer, halves toward +∞.
//
//	ToStorageUnits(10.5)    -> 10500
//	ToStorageUnits(-0.0005) -> 0
//	ToStorageUnits(1.2345)  -> 1235
func ToStorageUnits(d decimal.Decimal) int64 {
	return d.Shift(3).Add(half).Floor().IntPart()
}

// FromStorageUnits returns units/1000 as an exact decimal.
func FromStorageUnits(units int64) decimal.Decimal {
	return decimal.New(units, -3)
}

// FormatAmount renders milli-units with two decimals, e.g. -12.50.
func FormatAmount(units int64) string {
	return FromStorageUnits(units).StringFixed(2)
}

// ParseAmount converts user or bank-statement text to milli-units.
//
// It accepts dot or comma decimal separators, thousands separators, a leading
// or trailing sign, accounting parentheses and surrounding currency symbols:
//
//	ParseAmount("1,234.56") -> 1234560
//	ParseAmount("-12,5")    -> -12500
//	ParseAmount("€ 3.20")   -> 3200
//	ParseAmount("(4.00)")   -> -4000
func ParseAmount(s string) (int64, error) {
	raw := s
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' || r == '−':
			negative = !negative
		case r == '+', unicode.IsSpace(r), r == '\'':
		case unicode.Is(unicode.Sc, r), unicode.IsLetter(r):
			// currency symbols and codes
		default:
			return 0, Invalid("invalid amount %q", raw)
		}
	}

	num := normalizeSeparators(b.String())
	if num == "" || num == "." {
		return 0, Invalid("invalid amount %q", raw)
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return 0, Invalid("invalid amount %q", raw)
	}
	if negative {
		d = d.Neg()
	}
	scaled := d.Shift(3)
	if scaled.GreaterThan(maxStorable) || scaled.LessThan(minStorable) {
		return 0, Invalid("amount %q out of range", raw)
	}
	return ToStorageUnits(d), nil
}

// normalizeSeparators turns a digit string with , and . into a plain decimal.
// When both appear the right-most one is the decimal separator. A lone comma
// is a decimal comma; a repeated separator is a thousands separator.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}
