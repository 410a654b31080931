package calc

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
)

const tolerance = 1e-9

func TestComputeSingleItemWithTax(t *testing.T) {
	totals := Compute([]domain.LineItem{{Quantity: 2, UnitAmount: 50}}, 10)

	assert.InDelta(t, 100, totals.SubTotal, tolerance)
	assert.InDelta(t, 10, totals.TaxAmount, tolerance)
	assert.InDelta(t, 110, totals.GrandTotal, tolerance)
}

func TestComputeEmptyItems(t *testing.T) {
	totals := Compute(nil, 18)
	assert.Equal(t, domain.Totals{}, totals)

	totals = Compute([]domain.LineItem{}, 18)
	assert.Equal(t, domain.Totals{}, totals)
}

func TestZeroTaxPercentage(t *testing.T) {
	totals := Compute([]domain.LineItem{{Quantity: 3, UnitAmount: 7.5}}, 0)
	assert.InDelta(t, 0, totals.TaxAmount, tolerance)
	assert.InDelta(t, totals.SubTotal, totals.GrandTotal, tolerance)
}

func TestNaNOperandsAreZero(t *testing.T) {
	items := []domain.LineItem{
		{Quantity: math.NaN(), UnitAmount: 10},
		{Quantity: 1, UnitAmount: math.NaN()},
		{Quantity: 4, UnitAmount: 2.5},
	}
	assert.InDelta(t, 10, SubTotal(items), tolerance)
	assert.InDelta(t, 0, TaxAmount(math.NaN(), 10), tolerance)
}

func TestNegativeValuesPassThrough(t *testing.T) {
	items := []domain.LineItem{{Quantity: -1, UnitAmount: 20}, {Quantity: 2, UnitAmount: 15}}
	assert.InDelta(t, 10, SubTotal(items), tolerance)
}

func TestSubTotalMatchesSumProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for n := 0; n < 200; n++ {
		count := rng.IntN(12)
		items := make([]domain.LineItem, count)
		var want float64
		for i := range items {
			items[i] = domain.LineItem{
				Quantity:   float64(rng.IntN(100)),
				UnitAmount: rng.Float64() * 1000,
			}
			want += items[i].Quantity * items[i].UnitAmount
		}
		pct := rng.Float64() * 100

		totals := Compute(items, pct)
		if math.Abs(totals.SubTotal-want) > tolerance*math.Max(1, want) {
			t.Fatalf("subtotal mismatch: got %v want %v", totals.SubTotal, want)
		}
		if math.Abs(totals.TaxAmount-want*pct/100) > tolerance*math.Max(1, want) {
			t.Fatalf("tax mismatch: got %v want %v", totals.TaxAmount, want*pct/100)
		}
		if math.Abs(totals.GrandTotal-(totals.SubTotal+totals.TaxAmount)) > tolerance {
			t.Fatalf("grand total mismatch")
		}
	}
}

func TestRecomputeRefreshesLineTotals(t *testing.T) {
	doc := domain.Document{
		Items:         []domain.LineItem{{Quantity: 2, UnitAmount: 3, LineTotal: 999}},
		TaxPercentage: 50,
		Computed:      domain.Totals{SubTotal: 1, TaxAmount: 1, GrandTotal: 1},
	}

	Recompute(&doc)

	assert.InDelta(t, 6, doc.Items[0].LineTotal, tolerance)
	assert.InDelta(t, 6, doc.Computed.SubTotal, tolerance)
	assert.InDelta(t, 3, doc.Computed.TaxAmount, tolerance)
	assert.InDelta(t, 9, doc.Computed.GrandTotal, tolerance)
}
