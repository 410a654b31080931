package invoice

import (
	"github.com/smallbiznis/invoicekit/internal/invoice/view"
	"github.com/smallbiznis/invoicekit/internal/layout"
)

// Classic puts the company on the left, document meta on the right and a plain item table below.
func Classic(p view.Printable) *layout.Node {
	return layout.Stack(layout.Style{Padding: 48, Gap: 24},
		layout.Row(layout.Style{},
			layout.Stack(layout.Style{Gap: 8},
				logoOrName(p, 56, layout.AlignLeft),
				companyBlock(p, layout.AlignLeft),
			),
			layout.Stack(layout.Style{Gap: 8, Align: layout.AlignRight},
				layout.Text(p.Title, layout.Style{Size: 28, Bold: true, Align: layout.AlignRight, Color: p.Accent}),
				metaBlock(p, layout.AlignRight),
			),
		),
		layout.Rule(border),
		layout.Row(layout.Style{Gap: 24},
			partyBlock("Bill to", p.BillTo),
			partyBlock("Ship to", p.ShipTo),
		),
		itemsTable(p, false, layout.Style{Size: 11}),
		totalsBlock(p),
		notesBlock(p),
	)
}

// Modern uses a coloured header band and a numbered item table.
func Modern(p view.Printable) *layout.Node {
	header := layout.Row(layout.Style{Background: p.Accent, Padding: 32},
		layout.Weighted(3, layout.Stack(layout.Style{Gap: 6},
			layout.Text(p.Title, layout.Style{Size: 30, Bold: true, Color: "#ffffff"}),
			layout.Text("#"+p.Number, layout.Style{Size: 13, Color: "#ffffff"}),
		)),
		layout.Weighted(2, logoOrName(p, 48, layout.AlignRight)),
	)

	return layout.Stack(layout.Style{Gap: 24},
		header,
		layout.Stack(layout.Style{Padding: 40, Gap: 24},
			layout.Row(layout.Style{Gap: 24},
				partyBlock("Billed to", p.BillTo),
				partyBlock("Shipped to", p.ShipTo),
				layout.Stack(layout.Style{Gap: 4, Align: layout.AlignRight},
					label("Issued"),
					layout.Text(p.IssueDate, layout.Style{Size: 12, Align: layout.AlignRight}),
					label("Due"),
					layout.Text(p.DueDate, layout.Style{Size: 12, Align: layout.AlignRight}),
				),
			),
			itemsTable(p, true, layout.Style{Size: 11, Color: p.Accent}),
			totalsBlock(p),
			notesBlock(p),
			layout.Rule(border),
			companyBlock(p, layout.AlignCenter),
		),
	)
}

// Minimal keeps to a single column with hairline dividers.
func Minimal(p view.Printable) *layout.Node {
	return layout.Stack(layout.Style{Padding: 64, Gap: 20},
		layout.Text(p.Company.Name, layout.Style{Size: 16, Bold: true}),
		layout.Text(p.Title+" "+p.Number, layout.Style{Size: 12, Color: muted}),
		layout.Text(p.IssueDate+"  ·  due "+p.DueDate, layout.Style{Size: 11, Color: muted}),
		layout.Rule(border),
		partyBlock("To", p.BillTo),
		itemsTable(p, false, layout.Style{Size: 11}),
		layout.Rule(border),
		totalRow("Total due", p.GrandTotal, true),
		layout.Text("Subtotal "+p.SubTotal+"   "+p.TaxLabel+" "+p.TaxAmount,
			layout.Style{Size: 10, Color: muted, Align: layout.AlignRight}),
		notesBlock(p),
	)
}

// Corporate has a left accent sidebar with company and party details.
func Corporate(p view.Printable) *layout.Node {
	sidebar := layout.Stack(layout.Style{Background: "#f3f4f6", Padding: 24, Gap: 20},
		logoOrName(p, 64, layout.AlignLeft),
		companyBlock(p, layout.AlignLeft),
		partyBlock("Bill to", p.BillTo),
		partyBlock("Ship to", p.ShipTo),
	)
	body := layout.Stack(layout.Style{Padding: 32, Gap: 24},
		layout.Text(p.Title, layout.Style{Size: 32, Bold: true, Color: p.Accent}),
		layout.Row(layout.Style{},
			layout.Stack(layout.Style{Gap: 2}, label("Number"), layout.Text(p.Number, layout.Style{Size: 12})),
			layout.Stack(layout.Style{Gap: 2}, label("Issued"), layout.Text(p.IssueDate, layout.Style{Size: 12})),
			layout.Stack(layout.Style{Gap: 2}, label("Due"), layout.Text(p.DueDate, layout.Style{Size: 12})),
		),
		itemsTable(p, true, layout.Style{Size: 11}),
		totalsBlock(p),
		notesBlock(p),
	)
	return layout.Row(layout.Style{},
		layout.Weighted(2, sidebar),
		layout.Weighted(5, body),
	)
}

// Compact is a dense layout with a payment QR code beside the totals.
func Compact(p view.Printable) *layout.Node {
	return layout.Stack(layout.Style{Padding: 32, Gap: 14},
		layout.Row(layout.Style{},
			layout.Weighted(3, logoOrName(p, 40, layout.AlignLeft)),
			layout.Weighted(2, metaBlock(p, layout.AlignRight)),
		),
		layout.Row(layout.Style{Gap: 16},
			companyBlock(p, layout.AlignLeft),
			partyBlock("Bill to", p.BillTo),
			partyBlock("Ship to", p.ShipTo),
		),
		itemsTable(p, true, layout.Style{Size: 10}),
		layout.Row(layout.Style{Gap: 16},
			layout.Weighted(1, layout.QR(p.QRPayload, 120)),
			layout.Weighted(3, layout.Stack(layout.Style{Gap: 4},
				totalRow("Subtotal", p.SubTotal, false),
				totalRow(p.TaxLabel, p.TaxAmount, false),
				layout.Rule(border),
				totalRow("Total", p.GrandTotal, true),
			)),
		),
		notesBlock(p),
	)
}
