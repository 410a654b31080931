// Package calc derives line, subtotal, tax and grand totals.
//
// Every function is pure. Amounts are float64 and are never rounded here;
// rounding to two decimals happens only when an amount is formatted.
package calc

import (
	"math"

	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
)

func num(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// LineTotal is quantity × unit amount. Negative values pass through unchanged.
func LineTotal(item domain.LineItem) float64 {
	return num(item.Quantity) * num(item.UnitAmount)
}

// SubTotal sums the line totals. An empty list yields 0.
func SubTotal(items []domain.LineItem) float64 {
	var total float64
	for _, item := range items {
		total += LineTotal(item)
	}
	return total
}

// TaxAmount applies taxPercentage to subTotal.
func TaxAmount(subTotal, taxPercentage float64) float64 {
	return num(subTotal) * num(taxPercentage) / 100
}

// GrandTotal adds the tax to the subtotal.
func GrandTotal(subTotal, taxAmount float64) float64 {
	return num(subTotal) + num(taxAmount)
}

// Compute returns the totals for items at taxPercentage.
func Compute(items []domain.LineItem, taxPercentage float64) domain.Totals {
	sub := SubTotal(items)
	tax := TaxAmount(sub, taxPercentage)
	return domain.Totals{
		SubTotal:   sub,
		TaxAmount:  tax,
		GrandTotal: GrandTotal(sub, tax),
	}
}

// Recompute refreshes every LineTotal and the document totals in place.
func Recompute(doc *domain.Document) {
	if doc == nil {
		return
	}
	for i := range doc.Items {
		doc.Items[i].LineTotal = LineTotal(doc.Items[i])
	}
	doc.Computed = Compute(doc.Items, doc.TaxPercentage)
}
