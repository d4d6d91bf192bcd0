package utils

import (
	"strconv"
	"strings"
	"unicode"
)

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

// IsSentinel reports whether v is a model's way of saying "not found":
// JSON null, an empty string, or "none"/"null" in any case.
func IsSentinel(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(t)
		return s == "" || strings.EqualFold(s, "none") || strings.EqualFold(s, "null")
	}
	return false
}

// ParseNumber reads amounts the way they are written on invoices:
// "1 234,50 Kč", "€960.00", "1,234.50", "21 %". It reports false when no
// unambiguous number is present.
func ParseNumber(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsDigit(r), r == '.', r == ',', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '\'', r == '%':
			// thousands separators and percent signs
		case unicode.IsLetter(r), unicode.Is(unicode.Sc, r):
			// currency codes and symbols
		default:
			return 0, false
		}
	}
	n := b.String()
	if n == "" || strings.Count(n, "-") > 1 || (strings.Contains(n, "-") && !strings.HasPrefix(n, "-")) {
		return 0, false
	}

	lastDot := strings.LastIndex(n, ".")
	lastComma := strings.LastIndex(n, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// the later separator is the decimal one
		if lastComma > lastDot {
			n = strings.ReplaceAll(n, ".", "")
			n = strings.Replace(n, ",", ".", 1)
		} else {
			n = strings.ReplaceAll(n, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(n, ",") > 1 || len(n)-lastComma-1 == 3 {
			n = strings.ReplaceAll(n, ",", "")
		} else {
			n = strings.Replace(n, ",", ".", 1)
		}
	case strings.Count(n, ".") > 1:
		n = strings.ReplaceAll(n, ".", "")
	}

	f, err := strconv.ParseFloat(n, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FormatNumber renders f without a trailing ".0" so it reads like the source.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
