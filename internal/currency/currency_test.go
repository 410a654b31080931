package currency

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestFormatKnownCurrencies(t *testing.T) {
	assert.Equal(t, "₹0.00", Format(0, "INR"))
	assert.Equal(t, "$1234.50", Format(1234.5, "USD"))
	assert.Equal(t, "€12.30", Format(12.3, "eur"))
}

func TestFormatIsIdempotent(t *testing.T) {
	first := Format(99.999, "GBP")
	second := Format(99.999, "GBP")
	if first != second {
		t.Fatalf("expected stable output, got %q and %q", first, second)
	}
	assert.Equal(t, "£100.00", first)
}

func TestFormatTreatsNaNAsZero(t *testing.T) {
	assert.Equal(t, "$0.00", Format(math.NaN(), "USD"))
	assert.Equal(t, "$0.00", Format(math.Inf(1), "USD"))
	assert.Equal(t, "$0.00", Format(math.Copysign(0, -1), "USD"))
}

func TestSymbolForFallsBackToCode(t *testing.T) {
	assert.Equal(t, "XYZ", SymbolFor("xyz"))
	assert.Equal(t, "$", SymbolFor(""))
	assert.Equal(t, "KSh", SymbolFor(" kes "))
}

func TestQuantityTrimsZeros(t *testing.T) {
	assert.Equal(t, "2", Quantity(2))
	assert.Equal(t, "1.5", Quantity(1.5))
	assert.Equal(t, "0", Quantity(math.NaN()))
}

func TestGroupedFormatter(t *testing.T) {
	f := Grouped(language.English)
	assert.Equal(t, "$1,234.50", f.Format(1234.5, "USD"))
}
