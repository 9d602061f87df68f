// Package core holds the domain model of the expense ledger: entities,
// calendar windows and integer money arithmetic.
//
// All amounts live as int64 base-cents (hundredths of the base currency).
// Display currencies exist only at the formatting edge; nothing is ever
// stored or aggregated in a converted form.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency describes a display currency. RateToBase is units of this
// currency per one unit of the base currency.
type Currency struct {
	Code         string
	Symbol       string
	Name         string
	RateToBase   float64
	MinorUnits   int    // 0 for currencies rendered without a fraction
	Locale       string // BCP 47 tag used for digit grouping
	SymbolSuffix bool   // symbol after the amount (e.g. 120.000₫)
}

// Currencies is the selectable display set. USD is the base currency in
// which every amount is stored.
var Currencies = []Currency{
	{Code: "USD", Symbol: "$", Name: "US Dollar", RateToBase: 1, MinorUnits: 2, Locale: "en-US"},
	{Code: "VND", Symbol: "₫", Name: "Vietnamese Dong", RateToBase: 24000, MinorUnits: 0, Locale: "vi-VN", SymbolSuffix: true},
	{Code: "THB", Symbol: "฿", Name: "Thai Baht", RateToBase: 36, MinorUnits: 0, Locale: "th-TH"},
}

// BaseCurrency returns the storage currency.
func BaseCurrency() Currency { return Currencies[0] }

// CurrencyByCode looks up a display currency, falling back to the base
// currency for unknown codes.
func CurrencyByCode(code string) (Currency, bool) {
	for _, c := range Currencies {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return BaseCurrency(), false
}

// ToBaseCents converts a user-entered display amount into base-cents:
// round(amount / rate * 100), half away from zero. Non-finite and
// negative input is rejected; zero is allowed because a zero budget
// input means "unset".
func ToBaseCents(displayAmount float64, cur Currency) (int64, error) {
	if math.IsNaN(displayAmount) || math.IsInf(displayAmount, 0) || displayAmount < 0 {
		return 0, ErrInvalidAmount
	}
	return int64(math.Round(displayAmount / cur.RateToBase * 100)), nil
}

// FromBaseCents converts base-cents into whole display-currency units:
// round(cents/100 * rate), half away from zero. Round-trips through a
// display currency are lossy by design; stored amounts are never
// re-derived from a converted value.
func FromBaseCents(cents int64, cur Currency) int64 {
	return int64(math.Round(float64(cents) / 100 * cur.RateToBase))
}

// Format renders base-cents in the given display currency with
// locale-aware digit grouping. Zero-decimal currencies render without a
// fractional part; the base currency keeps two fixed decimals. The
// underlying integer is never mutated.
func Format(cents int64, cur Currency) string {
	tag, err := language.Parse(cur.Locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)

	amount := FromBaseCents(cents, cur)
	var s string
	if cur.MinorUnits == 0 {
		s = p.Sprintf("%d", amount)
	} else {
		s = p.Sprintf("%.2f", float64(amount))
	}
	if cur.SymbolSuffix {
		return s + cur.Symbol
	}
	return cur.Symbol + s
}

// ParseDecimalToCents converts a decimal string into cents with half-up
// rounding on the third decimal. Both dot and comma separators are
// accepted. Negative input is rejected; zero is allowed (it clears a
// budget).
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
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
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}
