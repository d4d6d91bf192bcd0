package utils

import "testing"

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"960.00", 960, true},
		{"€960.00", 960, true},
		{"1 234,50 Kč", 1234.5, true},
		{"1,234.50", 1234.5, true},
		{"1.234,50", 1234.5, true},
		{"1,234", 1234, true},
		{"12,5", 12.5, true},
		{"21 %", 21, true},
		{"-15.5", -15.5, true},
		{"1.234.567", 1234567, true},
		{"", 0, false},
		{"none", 0, false},
		{"12-13", 0, false},
		{"3/4", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParseNumber(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestIsSentinel(t *testing.T) {
	for _, v := range []any{nil, "", "  ", "none", "None", "NONE", "null"} {
		if !IsSentinel(v) {
			t.Errorf("IsSentinel(%#v) = false", v)
		}
	}
	for _, v := range []any{"0", 0.0, "nonexistent street", false} {
		if IsSentinel(v) {
			t.Errorf("IsSentinel(%#v) = true", v)
		}
	}
}
