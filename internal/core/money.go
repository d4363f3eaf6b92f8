// Package core holds the session-scoped domain model: transactions,
// money handling, regret scoring and aggregation.
//
// This file contains parsing and formatting of monetary amounts. All
// arithmetic happens in cents; floats appear only at display edges.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmountToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Currency symbols, thousands
// separators and surrounding whitespace are tolerated because bank CSV
// exports disagree on all of them. Negative amounts are rejected; zero
// is allowed.
//
// Examples:
//
//	ParseAmountToCents("12.34")   -> 1234, nil
//	ParseAmountToCents("$1,299")  -> 129900, nil
//	ParseAmountToCents("12.346")  -> 1235, nil
//	ParseAmountToCents("-5")      -> 0, ErrNegativeAmount
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "(") {
		return 0, ErrNegativeAmount
	}
	// Keep digits and the decimal point, drop $ , € and friends.
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' {
			return r
		}
		if r == '$' || r == ',' || r == '€' || r == ' ' || r == '+' {
			return -1
		}
		return 'x' // poison: any other rune makes parsing fail below
	}, s)
	if cleaned == "" || strings.ContainsRune(cleaned, 'x') {
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(cleaned, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if intPart == "0" && fracPart == "" && !strings.ContainsAny(cleaned, "0123456789") {
		return 0, ErrInvalidAmount
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
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
	return iv*100 + fracCents, nil
}

// Dollars returns the value as a float64 for display purposes only.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount as a plain decimal with two places, e.g.
// "16.00". Used for CSV export and templates.
func (m Money) String() string {
	neg := m.Cents < 0
	c := m.Cents
	if neg {
		c = -c
	}
	s := strconv.FormatInt(c/100, 10) + "." + pad2(c%100)
	if neg {
		return "-" + s
	}
	return s
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
