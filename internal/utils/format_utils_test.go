package utils

import "testing"

func TestFormatBRL(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "R$ 0,00"},
		{9.9, "R$ 9,90"},
		{147, "R$ 147,00"},
		{1234.56, "R$ 1.234,56"},
		{1234567.89, "R$ 1.234.567,89"},
		{-42.5, "R$ -42,50"},
	}
	for _, tc := range cases {
		if got := FormatBRL(tc.in); got != tc.want {
			t.Errorf("FormatBRL(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatCompactNumber(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1500, "1.5k"},
		{2300000, "2.3M"},
	}
	for _, tc := range cases {
		if got := FormatCompactNumber(tc.in); got != tc.want {
			t.Errorf("FormatCompactNumber(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
