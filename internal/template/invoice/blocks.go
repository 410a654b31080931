// Package invoice holds the A4 invoice layouts.
package invoice

import (
	"strconv"
	"strings"

	"github.com/smallbiznis/invoicekit/internal/invoice/view"
	"github.com/smallbiznis/invoicekit/internal/layout"
)

const (
	muted  = "#6b7280"
	border = "#e5e7eb"
	ink    = "#111827"
)

func label(text string) *layout.Node {
	return layout.Text(strings.ToUpper(text), layout.Style{Size: 10, Bold: true, Color: muted})
}

func logoOrName(p view.Printable, height float64, align layout.Align) *layout.Node {
	if !p.HasLogo {
		return layout.Text(p.Company.Name, layout.Style{Size: 20, Bold: true, Align: align, Color: ink})
	}
	return layout.Image(p.LogoURL, p.Company.Name, height, layout.Style{Align: align})
}

func companyBlock(p view.Printable, align layout.Align) *layout.Node {
	return layout.Stack(layout.Style{Align: align},
		layout.Text(p.Company.Name, layout.Style{Size: 13, Bold: true, Align: align}),
		layout.When(len(p.Company.Lines()) > 0,
			layout.Text(strings.Join(p.Company.Lines(), "\n"), layout.Style{Size: 11, Color: muted, Align: align})),
	)
}

func partyBlock(title string, party view.PartyView) *layout.Node {
	if party.Empty() {
		return nil
	}
	return layout.Stack(layout.Style{Gap: 4},
		label(title),
		layout.Text(party.Name, layout.Style{Size: 12, Bold: true}),
		layout.When(len(party.Lines()) > 0,
			layout.Text(strings.Join(party.Lines(), "\n"), layout.Style{Size: 11, Color: muted})),
	)
}

func metaBlock(p view.Printable, align layout.Align) *layout.Node {
	return layout.Stack(layout.Style{Align: align, Gap: 2},
		layout.Text(p.Title+" #"+p.Number, layout.Style{Size: 12, Bold: true, Align: align}),
		layout.Text("Issued: "+p.IssueDate, layout.Style{Size: 11, Align: align}),
		layout.Text("Due: "+p.DueDate, layout.Style{Size: 11, Align: align}),
	)
}

func itemRows(p view.Printable, numbered bool) [][]string {
	rows := make([][]string, 0, len(p.Items))
	for _, item := range p.Items {
		name := item.Name
		if item.Description != "" {
			name += "\n" + item.Description
		}
		row := []string{name, item.Quantity, item.UnitAmount, item.Total}
		if numbered {
			row = append([]string{strconv.Itoa(item.Position)}, row...)
		}
		rows = append(rows, row)
	}
	return rows
}

func itemsTable(p view.Printable, numbered bool, style layout.Style) *layout.Node {
	cols := []layout.Column{
		{Title: "Item", Weight: 6},
		{Title: "Qty", Weight: 2, Align: layout.AlignRight},
		{Title: "Price", Weight: 3, Align: layout.AlignRight},
		{Title: "Amount", Weight: 3, Align: layout.AlignRight},
	}
	if numbered {
		cols = append([]layout.Column{{Title: "#", Weight: 1}}, cols...)
	}
	return layout.Table(cols, itemRows(p, numbered), style)
}

func totalRow(name, value string, strong bool) *layout.Node {
	size := 12.0
	if strong {
		size = 14
	}
	return layout.Row(layout.Style{},
		layout.Weighted(3, layout.Text(name, layout.Style{Size: size, Bold: strong, Color: muted})),
		layout.Weighted(2, layout.Text(value, layout.Style{Size: size, Bold: strong, Align: layout.AlignRight})),
	)
}

func totalsBlock(p view.Printable) *layout.Node {
	return layout.Row(layout.Style{},
		layout.Weighted(3, layout.Spacer(1)),
		layout.Weighted(2, layout.Stack(layout.Style{Gap: 4},
			totalRow("Subtotal", p.SubTotal, false),
			totalRow(p.TaxLabel, p.TaxAmount, false),
			layout.Rule(border),
			totalRow("Total", p.GrandTotal, true),
		)),
	)
}

func notesBlock(p view.Printable) *layout.Node {
	if p.Notes == "" {
		return nil
	}
	return layout.Stack(layout.Style{Gap: 4},
		label("Notes"),
		layout.Text(p.Notes, layout.Style{Size: 11}),
	)
}
