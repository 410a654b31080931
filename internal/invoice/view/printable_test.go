package view

import (
	"testing"
	"time"

	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	settingsdomain "github.com/smallbiznis/invoicekit/internal/settings/domain"
	"github.com/stretchr/testify/assert"
)

func sampleDocument() domain.Document {
	return domain.Document{
		Kind: domain.KindInvoice,
		Meta: domain.Meta{
			Number:    "AB12C",
			IssueDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
			DueDate:   time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC),
		},
		BillTo:        domain.Party{Name: "Acme", Address: "1 Road", Email: "ap@acme.test"},
		Items:         []domain.LineItem{{Name: "Widget", Quantity: 2, UnitAmount: 50}},
		TaxPercentage: 10,
		CurrencyCode:  "usd",
		Notes:         " thanks ",
	}
}

func TestBuildFormatsTotalsAndQR(t *testing.T) {
	p := Build(sampleDocument(), settingsdomain.Branding{})

	assert.Equal(t, "Invoice", p.Title)
	assert.Equal(t, "$100.00", p.SubTotal)
	assert.Equal(t, "Tax (10%)", p.TaxLabel)
	assert.Equal(t, "$10.00", p.TaxAmount)
	assert.Equal(t, "$110.00", p.GrandTotal)
	assert.Equal(t, "Invoice: AB12C, Total: $110.00, Due: 2026-10-31", p.QRPayload)
	assert.Equal(t, "thanks", p.Notes)
	assert.Len(t, p.Items, 1)
	assert.Equal(t, 1, p.Items[0].Position)
	assert.Equal(t, "2", p.Items[0].Quantity)
	assert.Equal(t, "$100.00", p.Items[0].Total)
}

func TestBuildUsesPlaceholderWithoutBranding(t *testing.T) {
	p := Build(sampleDocument(), settingsdomain.Branding{})

	assert.Equal(t, CompanyPlaceholder, p.Company.Name)
	assert.False(t, p.HasLogo)
	assert.Equal(t, DefaultAccent, p.Accent)
}

func TestBuildFillsCompanyFromBranding(t *testing.T) {
	p := Build(sampleDocument(), settingsdomain.Branding{
		CompanyName:  "Northwind",
		LogoURL:      "https://cdn.test/logo.png",
		Website:      "northwind.test",
		PrimaryColor: "#0055ff",
	})

	assert.Equal(t, "Northwind", p.Company.Name)
	assert.Equal(t, []string{"northwind.test"}, p.Company.Lines())
	assert.True(t, p.HasLogo)
	assert.Equal(t, "#0055ff", p.Accent)
}

func TestBuildIgnoresStaleComputedTotals(t *testing.T) {
	doc := sampleDocument()
	doc.Computed = domain.Totals{SubTotal: 1, TaxAmount: 1, GrandTotal: 1}

	p := Build(doc, settingsdomain.Branding{})
	assert.Equal(t, "$110.00", p.GrandTotal)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "-", FormatDate(time.Time{}))
	assert.Equal(t, "2026-01-02", FormatDate(time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)))
}
