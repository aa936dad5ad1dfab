// Package core provides money parsing and handling utilities.
//
// This file contains helpers for reading monetary amounts from free-form
// strings (spreadsheet cells, CLI flags) into float amounts.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmount bounds a single record amount so that totals over any realistic
// number of records stay finite.
const MaxAmount = 1e12

var maxAmountDecimal = decimal.NewFromInt(MaxAmount)

// ValidAmount reports whether v is a finite amount in [0, MaxAmount].
// NaN fails both comparisons.
func ValidAmount(v float64) bool {
	return v >= 0 && v <= MaxAmount
}

// ParseAmount converts a decimal string to an amount rounded to cents.
//
// It accepts an optional leading currency symbol, dot or comma decimal
// separators and thousands grouping. When both separators are present the
// last one is treated as the decimal separator. Negative values and values
// above MaxAmount are rejected.
//
// Examples:
//
//	ParseAmount("12.34")     -> 12.34, nil
//	ParseAmount("12,34")     -> 12.34, nil
//	ParseAmount("$1,234.50") -> 1234.5, nil
//	ParseAmount("1.234,50")  -> 1234.5, nil
//	ParseAmount("12.345")    -> 12.35, nil (half-up)
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£ ")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		// A single comma followed by exactly three digits is grouping.
		if strings.Count(s, ",") > 1 || len(s)-lastComma-1 == 3 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() || d.GreaterThan(maxAmountDecimal) {
		return 0, ErrInvalidAmount
	}
	return d.Round(2).InexactFloat64(), nil
}
