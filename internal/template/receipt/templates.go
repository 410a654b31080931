// Package receipt holds the 80mm monospace receipt layouts.
package receipt

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/invoicekit/internal/invoice/view"
	"github.com/smallbiznis/invoicekit/internal/layout"
)

// lineWidth is the character count of one 80mm line at the default size.
const lineWidth = 32

var (
	base   = layout.Style{Size: 11, Mono: true}
	center = layout.Style{Size: 11, Mono: true, Align: layout.AlignCenter}
	strong = layout.Style{Size: 13, Mono: true, Bold: true, Align: layout.AlignCenter}
)

func dashes() *layout.Node {
	return layout.Text(strings.Repeat("-", lineWidth), center)
}

// pair left-aligns name and right-aligns value on one fixed-width line.
func pair(name, value string) string {
	gap := lineWidth - len([]rune(name)) - len([]rune(value))
	if gap < 1 {
		return name + "\n" + strings.Repeat(" ", max(lineWidth-len([]rune(value)), 0)) + value
	}
	return name + strings.Repeat(" ", gap) + value
}

func header(p view.Printable) *layout.Node {
	var logo *layout.Node
	if p.HasLogo {
		logo = layout.Image(p.LogoURL, p.Company.Name, 48, layout.Style{Align: layout.AlignCenter})
	}
	return layout.Stack(layout.Style{Gap: 2},
		logo,
		layout.Text(p.Company.Name, strong),
		layout.When(len(p.Company.Lines()) > 0, layout.Text(strings.Join(p.Company.Lines(), "\n"), center)),
	)
}

func metaLines(p view.Printable) *layout.Node {
	lines := []string{
		pair(p.Title, "#"+p.Number),
		pair("Date", p.IssueDate),
	}
	if p.Cashier != "" {
		lines = append(lines, pair("Cashier", p.Cashier))
	}
	if p.BillTo.Name != "" {
		lines = append(lines, pair("Customer", p.BillTo.Name))
	}
	return layout.Text(strings.Join(lines, "\n"), base)
}

func totals(p view.Printable) *layout.Node {
	return layout.Stack(layout.Style{Gap: 2},
		layout.Text(strings.Join([]string{
			pair("Subtotal", p.SubTotal),
			pair(p.TaxLabel, p.TaxAmount),
		}, "\n"), base),
		layout.Text(pair("TOTAL", p.GrandTotal), layout.Style{Size: 11, Mono: true, Bold: true}),
	)
}

func footer(p view.Printable) *layout.Node {
	msg := p.Notes
	if msg == "" {
		msg = "Thank you!"
	}
	return layout.Text(msg, center)
}

// Thermal prints one line per item with the quantity folded into the name.
func Thermal(p view.Printable) *layout.Node {
	lines := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		lines = append(lines, pair(fmt.Sprintf("%sx %s", item.Quantity, item.Name), item.Total))
	}
	return layout.Stack(layout.Style{Padding: 12, Gap: 6},
		header(p),
		dashes(),
		metaLines(p),
		dashes(),
		layout.When(len(lines) > 0, layout.Text(strings.Join(lines, "\n"), base)),
		dashes(),
		totals(p),
		dashes(),
		footer(p),
	)
}

// ThermalQR is Thermal with the payment QR code under the totals.
func ThermalQR(p view.Printable) *layout.Node {
	root := Thermal(p)
	qr := layout.Stack(layout.Style{Align: layout.AlignCenter}, layout.QR(p.QRPayload, 140))
	n := len(root.Children)
	children := make([]*layout.Node, 0, n+1)
	children = append(children, root.Children[:n-1]...)
	children = append(children, qr, root.Children[n-1])
	root.Children = children
	return root
}

// Itemised lists every item across two lines with unit price and description.
func Itemised(p view.Printable) *layout.Node {
	blocks := make([]*layout.Node, 0, len(p.Items))
	for _, item := range p.Items {
		lines := []string{fmt.Sprintf("%d. %s", item.Position, item.Name)}
		if item.Description != "" {
			lines = append(lines, "   "+item.Description)
		}
		lines = append(lines, pair(fmt.Sprintf("   %s @ %s", item.Quantity, item.UnitAmount), item.Total))
		blocks = append(blocks, layout.Text(strings.Join(lines, "\n"), base))
	}
	return layout.Stack(layout.Style{Padding: 12, Gap: 6},
		header(p),
		dashes(),
		metaLines(p),
		dashes(),
		layout.Stack(layout.Style{Gap: 4}, blocks...),
		dashes(),
		totals(p),
		dashes(),
		footer(p),
	)
}
