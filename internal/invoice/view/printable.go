// Package view maps a document onto the printable fields every template shares.
package view

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/smallbiznis/invoicekit/internal/currency"
	"github.com/smallbiznis/invoicekit/internal/invoice/calc"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	settingsdomain "github.com/smallbiznis/invoicekit/internal/settings/domain"
)

const (
	CompanyPlaceholder = "Company Name"
	DefaultAccent      = "#111827"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type PartyView struct {
	Name    string
	Address string
	Phone   string
	Email   string
	Website string
}

// Lines returns the non-empty contact lines below the name.
func (p PartyView) Lines() []string {
	out := make([]string, 0, 4)
	for _, v := range []string{p.Address, p.Phone, p.Email, p.Website} {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Empty reports whether the block has nothing to print.
func (p PartyView) Empty() bool {
	return p.Name == "" && len(p.Lines()) == 0
}

type ItemView struct {
	Position    int
	Name        string
	Description string
	Quantity    string
	UnitAmount  string
	Total       string
}

// Printable holds every field a template may print, already formatted.
type Printable struct {
	Kind      domain.Kind
	Title     string
	Number    string
	IssueDate string
	DueDate   string

	Company    PartyView
	HasLogo    bool
	LogoURL    string
	Accent     string
	BillTo     PartyView
	ShipTo     PartyView
	Items      []ItemView
	Currency   string
	Symbol     string
	SubTotal   string
	TaxLabel   string
	TaxAmount  string
	GrandTotal string
	Notes      string
	Cashier    string
	QRPayload  string
}

// Build maps doc onto printable fields. Branding fills company fields the
// document leaves blank; the result never depends on anything else.
func Build(doc domain.Document, branding settingsdomain.Branding) Printable {
	totals := calc.Compute(doc.Items, doc.TaxPercentage)
	code := currency.Normalize(doc.CurrencyCode)

	company := PartyView{
		Name:    firstNonEmpty(doc.Company.Name, branding.CompanyName),
		Address: firstNonEmpty(doc.Company.Address, branding.Address),
		Phone:   firstNonEmpty(doc.Company.Phone, branding.Phone),
		Email:   firstNonEmpty(doc.Company.Email, branding.Email),
		Website: firstNonEmpty(doc.Company.Website, branding.Website),
	}
	logo := firstNonEmpty(doc.LogoURL, branding.LogoURL)
	if company.Name == "" {
		company.Name = CompanyPlaceholder
	}

	items := make([]ItemView, 0, len(doc.Items))
	for i, item := range doc.Items {
		items = append(items, ItemView{
			Position:    i + 1,
			Name:        strings.TrimSpace(item.Name),
			Description: strings.TrimSpace(item.Description),
			Quantity:    currency.Quantity(item.Quantity),
			UnitAmount:  currency.Format(item.UnitAmount, code),
			Total:       currency.Format(calc.LineTotal(item), code),
		})
	}

	grand := currency.Format(totals.GrandTotal, code)
	due := FormatDate(doc.Meta.DueDate)

	return Printable{
		Kind:       doc.Kind,
		Title:      doc.Kind.Label(),
		Number:     strings.TrimSpace(doc.Meta.Number),
		IssueDate:  FormatDate(doc.Meta.IssueDate),
		DueDate:    due,
		Company:    company,
		HasLogo:    logo != "",
		LogoURL:    logo,
		Accent:     SanitizeColor(branding.PrimaryColor),
		BillTo:     partyView(doc.BillTo),
		ShipTo:     partyView(doc.ShipTo),
		Items:      items,
		Currency:   code,
		Symbol:     currency.SymbolFor(code),
		SubTotal:   currency.Format(totals.SubTotal, code),
		TaxLabel:   fmt.Sprintf("Tax (%s%%)", currency.Quantity(doc.TaxPercentage)),
		TaxAmount:  currency.Format(totals.TaxAmount, code),
		GrandTotal: grand,
		Notes:      strings.TrimSpace(doc.Notes),
		Cashier:    strings.TrimSpace(doc.Cashier),
		QRPayload:  QRPayload(doc.Meta.Number, grand, due),
	}
}

// QRPayload is the text encoded in QR blocks.
func QRPayload(number, total, due string) string {
	return fmt.Sprintf("Invoice: %s, Total: %s, Due: %s", number, total, due)
}

// FormatDate renders a calendar date, or "-" when unset.
func FormatDate(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Format("2006-01-02")
}

// SanitizeColor keeps #RRGGBB colours and replaces anything else with the default accent.
func SanitizeColor(value string) string {
	trimmed := strings.TrimSpace(value)
	if hexColorPattern.MatchString(trimmed) {
		return trimmed
	}
	return DefaultAccent
}

func partyView(p domain.Party) PartyView {
	return PartyView{
		Name:    strings.TrimSpace(p.Name),
		Address: strings.TrimSpace(p.Address),
		Phone:   strings.TrimSpace(p.Phone),
		Email:   strings.TrimSpace(p.Email),
		Website: strings.TrimSpace(p.Website),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
