package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"-10", "-10", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestSignedAmount(t *testing.T) {
	cases := []struct {
		cat  Category
		in   int64
		want int64
	}{
		{Income, 100, 100},
		{Income, -100, 100},
		{Food, 100, -100},
		{Housing, -100, -100},
		{Other, 0, 0},
	}
	for _, tc := range cases {
		got := SignedAmount(tc.cat, decimal.NewFromInt(tc.in))
		if !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Fatalf("%s %d: expected %d, got %s", tc.cat, tc.in, tc.want, got)
		}
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		part, total string
		want        int
	}{
		{"3500", "10000", 35},
		{"1", "3", 33},
		{"2", "3", 67},
		{"1", "8", 13}, // 12.5 rounds half away from zero
		{"50", "50", 100},
	}
	for _, tc := range cases {
		got := Percent(decimal.RequireFromString(tc.part), decimal.RequireFromString(tc.total))
		if got != tc.want {
			t.Fatalf("%s/%s expected %d, got %d", tc.part, tc.total, tc.want, got)
		}
	}
}

func TestCurrencyFormat(t *testing.T) {
	cases := []struct {
		c    Currency
		in   string
		want string
	}{
		{BRL, "1234.5", "R$ 1234.50"},
		{USD, "-12", "-$12.00"},
		{EUR, "0.333", "€0.33"},
		{"", "7", "R$ 7.00"},
	}
	for _, tc := range cases {
		if got := tc.c.Format(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Fatalf("%s %s: expected %q, got %q", tc.c, tc.in, tc.want, got)
		}
	}
	if Currency("GBP").Valid() {
		t.Fatalf("GBP must not be a supported currency")
	}
}
