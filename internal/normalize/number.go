// Package normalize turns loosely formatted spreadsheet cells into typed
// values. Every function is total: malformed input yields ok == false, never
// a panic or an error.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number parses a quantity cell. The result is never negative: any value
// marked negative, by a minus sign or accounting-style parentheses, is
// clamped to zero. ok is false when nothing numeric is left to parse.
//
//	"1.234,56" -> 1234.56   "1,234.56" -> 1234.56
//	"1,234"    -> 1234      "12,5"     -> 12.5
//	"(12.5)"   -> 0
func Number(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	negative := strings.Contains(s, "-") ||
		(strings.Contains(s, "(") && strings.Contains(s, ")"))

	s = keepNumeric(s)
	if s == "" {
		return 0, false
	}

	s = resolveSeparators(s)
	s = strings.ReplaceAll(s, "-", "")
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	if negative {
		v = -math.Abs(v)
	}
	if v < 0 {
		return 0, true
	}
	return v, true
}

// NumberValue is Number for cells that may already be typed, as produced by
// spreadsheet readers or JSON decoding.
func NumberValue(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case string:
		return Number(n)
	case []byte:
		return Number(string(n))
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case fmt.Stringer:
		return Number(n.String())
	default:
		return Number(fmt.Sprint(n))
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f < 0 {
		return 0, true
	}
	return f, true
}

// keepNumeric drops everything but digits, '.', ',' and '-'. Spaces and
// non-breaking spaces go with the rest.
func keepNumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// resolveSeparators rewrites s so '.' is the only decimal separator.
func resolveSeparators(s string) string {
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")

	switch {
	case comma >= 0 && dot >= 0:
		// whichever comes last is the decimal separator
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.ReplaceAll(s, ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		parts := strings.Split(s, ",")
		if len(parts[len(parts)-1]) == 3 {
			return strings.Join(parts, "")
		}
		return strings.Join(parts, ".")
	}
	return s
}
