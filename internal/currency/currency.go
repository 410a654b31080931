// Package currency maps ISO currency codes to display symbols and formats amounts.
package currency

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const DefaultCode = "USD"

var symbols = map[string]string{
	"AED": "د.إ",
	"AUD": "A$",
	"BRL": "R$",
	"CAD": "C$",
	"CHF": "CHF",
	"CNY": "¥",
	"EUR": "€",
	"GBP": "£",
	"IDR": "Rp",
	"INR": "₹",
	"JPY": "¥",
	"KES": "KSh",
	"KRW": "₩",
	"MXN": "MX$",
	"MYR": "RM",
	"NGN": "₦",
	"PHP": "₱",
	"PKR": "₨",
	"PLN": "zł",
	"RUB": "₽",
	"SGD": "S$",
	"THB": "฿",
	"TRY": "₺",
	"USD": "$",
	"VND": "₫",
	"ZAR": "R",
}

// Normalize upper-cases and trims code, canonicalising it when it is a known ISO 4217 unit.
// Empty input yields DefaultCode.
func Normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCode
	}
	if unit, err := currency.ParseISO(code); err == nil {
		return unit.String()
	}
	return code
}

// SymbolFor returns the display glyph for code, or the code itself when unrecognised.
func SymbolFor(code string) string {
	normalized := Normalize(code)
	if sym, ok := symbols[normalized]; ok {
		return sym
	}
	return normalized
}

// Format renders "<symbol><amount>" with two decimals. NaN and infinities render as zero.
func Format(amount float64, code string) string {
	return SymbolFor(code) + Fixed(amount)
}

// Fixed renders amount with exactly two decimals and no grouping.
func Fixed(amount float64) string {
	amount = sanitize(amount)
	out := strconv.FormatFloat(amount, 'f', 2, 64)
	if out == "-0.00" {
		return "0.00"
	}
	return out
}

// Quantity renders a quantity without trailing zeros.
func Quantity(value float64) string {
	value = sanitize(value)
	return strings.TrimRight(strings.TrimRight(strconv.FormatFloat(value, 'f', 2, 64), "0"), ".")
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// GroupedFormatter formats amounts with the digit grouping of a locale.
type GroupedFormatter struct {
	printer *message.Printer
}

// Grouped returns a formatter applying tag's grouping convention.
func Grouped(tag language.Tag) *GroupedFormatter {
	return &GroupedFormatter{printer: message.NewPrinter(tag)}
}

// Format renders "<symbol><grouped amount>".
func (g *GroupedFormatter) Format(amount float64, code string) string {
	amount = sanitize(amount)
	if amount == 0 {
		amount = 0
	}
	return SymbolFor(code) + g.printer.Sprintf("%.2f", amount)
}
