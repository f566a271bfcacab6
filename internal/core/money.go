// Package core provides money parsing and handling utilities.
//
// Amounts are shopspring decimals end to end; floats never touch a stored value.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is a display currency for formatted amounts.
type Currency string

const (
	BRL Currency = "BRL"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts user input to a decimal.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. A sign is
// allowed so callers can decide what a negative value means.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("abc")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, invalid("amount", ErrInvalidAmount)
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid("amount", ErrInvalidAmount)
	}
	return d, nil
}

// SignedAmount applies the category sign convention: Income is stored positive,
// every other category negative. The input sign is ignored.
func SignedAmount(c Category, amount decimal.Decimal) decimal.Decimal {
	abs := amount.Abs()
	if c.IsIncome() {
		return abs
	}
	return abs.Neg()
}

// Percent returns round(part/total*100). total must be non-zero.
func Percent(part, total decimal.Decimal) int {
	return int(part.Div(total).Mul(hundred).Round(0).IntPart())
}

func (c Currency) Valid() bool {
	switch c {
	case BRL, USD, EUR:
		return true
	}
	return false
}

func (c Currency) Symbol() string {
	switch c {
	case USD:
		return "$"
	case EUR:
		return "€"
	default:
		return "R$"
	}
}

// Format renders an amount with two decimals and the currency symbol,
// e.g. "R$ 1234.50" or "-$12.00".
func (c Currency) Format(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	sep := ""
	if c == BRL || c == "" {
		sep = " "
	}
	return sign + c.Symbol() + sep + amount.Abs().StringFixed(2)
}
