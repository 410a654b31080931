package template

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/layout"
	settingsdomain "github.com/smallbiznis/invoicekit/internal/settings/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument(kind domain.Kind) domain.Document {
	return domain.Document{
		Kind: kind,
		Meta: domain.Meta{
			Number:    "R2D2",
			IssueDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			DueDate:   time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
		},
		BillTo:        domain.Party{Name: "Acme"},
		ShipTo:        domain.Party{Name: "Acme Warehouse"},
		Items:         []domain.LineItem{{Name: "Widget", Description: "blue", Quantity: 2, UnitAmount: 50}},
		TaxPercentage: 10,
		CurrencyCode:  "USD",
		Cashier:       "Sam",
	}
}

func collectText(n *layout.Node) []string {
	var out []string
	layout.Walk(n, func(node *layout.Node) {
		if node.Text != "" {
			out = append(out, node.Text)
		}
		if node.Kind == layout.KindImage {
			out = append(out, "image:"+node.Src)
		}
	})
	return out
}

func TestLookupMapsSelectionToSlot(t *testing.T) {
	reg := NewInvoiceRegistry()

	d, err := reg.Lookup(1)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Index)
	assert.Equal(t, "classic", d.Slug)

	d, err = reg.Lookup(reg.Len())
	require.NoError(t, err)
	assert.Equal(t, "compact", d.Slug)
}

func TestLookupRejectsUnknownSelection(t *testing.T) {
	reg := NewReceiptRegistry()

	for _, sel := range []int{0, -1, reg.Len() + 1} {
		_, err := reg.Lookup(sel)
		assert.True(t, errors.Is(err, domain.ErrTemplateNotFound), "selection %d", sel)
	}

	_, err := reg.Render(99, testDocument(domain.KindReceipt), settingsdomain.Branding{})
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestRenderIsIdempotentForEveryTemplate(t *testing.T) {
	catalog := NewCatalog()
	for _, kind := range []domain.Kind{domain.KindInvoice, domain.KindReceipt} {
		reg, err := catalog.For(kind)
		require.NoError(t, err)
		for sel := 1; sel <= reg.Len(); sel++ {
			doc := testDocument(kind)
			first, err := reg.Render(sel, doc, settingsdomain.Branding{})
			require.NoError(t, err)
			second, err := reg.Render(sel, doc, settingsdomain.Branding{})
			require.NoError(t, err)
			assert.Equal(t, first, second, "%s/%d", kind, sel)
		}
	}
}

func TestRenderWithoutLogoUsesPlaceholder(t *testing.T) {
	catalog := NewCatalog()
	for _, kind := range []domain.Kind{domain.KindInvoice, domain.KindReceipt} {
		reg, _ := catalog.For(kind)
		for sel := 1; sel <= reg.Len(); sel++ {
			out, err := reg.Render(sel, testDocument(kind), settingsdomain.Branding{})
			require.NoError(t, err)
			texts := collectText(out.Root)
			assert.Contains(t, texts, "Company Name", "%s/%d", kind, sel)
			for _, s := range texts {
				assert.NotContains(t, s, "image:")
			}
		}
	}
}

func TestRenderWithLogoEmbedsImage(t *testing.T) {
	reg := NewInvoiceRegistry()
	out, err := reg.Render(1, testDocument(domain.KindInvoice), settingsdomain.Branding{LogoURL: "https://cdn.test/l.png"})
	require.NoError(t, err)
	assert.Contains(t, collectText(out.Root), "image:https://cdn.test/l.png")
}

func TestReceiptFamilyIsMonospaceWithCashier(t *testing.T) {
	reg := NewReceiptRegistry()
	out, err := reg.Render(1, testDocument(domain.KindReceipt), settingsdomain.Branding{})
	require.NoError(t, err)

	assert.True(t, out.Mono)
	assert.Equal(t, layout.WidthReceipt80, out.Width)
	found := false
	for _, s := range collectText(out.Root) {
		for _, line := range strings.Split(s, "\n") {
			if strings.HasPrefix(line, "Cashier") && strings.HasSuffix(line, "Sam") {
				found = true
			}
		}
	}
	assert.True(t, found, "cashier line missing")
}

func TestQRTemplatesCarryPayload(t *testing.T) {
	reg := NewInvoiceRegistry()
	out, err := reg.Render(5, testDocument(domain.KindInvoice), settingsdomain.Branding{})
	require.NoError(t, err)

	var payload string
	layout.Walk(out.Root, func(n *layout.Node) {
		if n.Kind == layout.KindQR {
			payload = n.Text
		}
	})
	assert.Equal(t, "Invoice: R2D2, Total: $110.00, Due: 2026-05-31", payload)
}

func TestSwitchingTemplatesKeepsFieldValues(t *testing.T) {
	reg := NewInvoiceRegistry()
	doc := testDocument(domain.KindInvoice)
	before := doc.Clone()

	for sel := 1; sel <= reg.Len(); sel++ {
		_, err := reg.Render(sel, doc, settingsdomain.Branding{})
		require.NoError(t, err)
	}
	assert.Equal(t, before, doc)
}

func TestInfosUseSelectionValues(t *testing.T) {
	infos := NewReceiptRegistry().Infos()
	require.Len(t, infos, 3)
	assert.Equal(t, 1, infos[0].Selection)
	assert.Equal(t, "thermal-qr", infos[1].Slug)
	assert.Equal(t, domain.KindReceipt, infos[2].Family)
}
