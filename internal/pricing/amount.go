package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// minorUnitPlaces is the display precision shared by every formatter in this
// package. Amounts render at minor-unit precision with trailing zeros
// trimmed, so identical inputs always produce identical output.
const minorUnitPlaces = 2

// ParseAmount parses a decimal display string. Missing or unparseable values
// become zero; the formatters never fail on upstream data.
func ParseAmount(s string) decimal.Decimal {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders a decimal string at display precision.
func FormatAmount(s string) string {
	return FormatDecimal(ParseAmount(s))
}

// FormatDecimal renders a decimal at display precision.
func FormatDecimal(d decimal.Decimal) string {
	return d.Round(minorUnitPlaces).String()
}

// currencySymbols maps ISO 4217 codes to their conventional display glyphs.
// Codes are uppercase; anything unmapped falls back to the raw code.
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"INR": "₹",
	"KRW": "₩",
	"BRL": "R$",
	"AUD": "A$",
	"CAD": "C$",
	"SGD": "S$",
	"HKD": "HK$",
	"NZD": "NZ$",
	"CHF": "CHF",
	"SEK": "kr",
	"NOK": "kr",
	"DKK": "kr",
	"MXN": "MX$",
	"IDR": "Rp",
	"MYR": "RM",
	"PHP": "₱",
	"THB": "฿",
	"VND": "₫",
	"ZAR": "R",
	"AED": "د.إ",
	"TRY": "₺",
	"RUB": "₽",
	"PLN": "zł",
	"ILS": "₪",
}

// CurrencySymbol maps a currency code to its display symbol, falling back to
// the raw code when the currency is unknown.
func CurrencySymbol(code string) string {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if sym, ok := currencySymbols[normalized]; ok {
		return sym
	}
	return normalized
}
