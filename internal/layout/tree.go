// Package layout defines the renderer-neutral visual document tree produced by
// templates and consumed by the HTML preview and the rasterizer.
//
// Units are CSS pixels at 96 DPI. Containers stack children vertically (Stack)
// or split their width by weight (Row).
package layout

type Kind string

const (
	KindStack  Kind = "stack"
	KindRow    Kind = "row"
	KindText   Kind = "text"
	KindImage  Kind = "image"
	KindQR     Kind = "qr"
	KindRule   Kind = "rule"
	KindSpacer Kind = "spacer"
	KindTable  Kind = "table"
)

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Page widths at 96 DPI.
const (
	WidthA4        = 794
	WidthReceipt80 = 302
)

// Style carries presentational hints. Zero values mean "inherit defaults".
type Style struct {
	Size       float64 `json:"size,omitempty"`
	Bold       bool    `json:"bold,omitempty"`
	Mono       bool    `json:"mono,omitempty"`
	Align      Align   `json:"align,omitempty"`
	Color      string  `json:"color,omitempty"`
	Background string  `json:"background,omitempty"`
	Padding    float64 `json:"padding,omitempty"`
	Gap        float64 `json:"gap,omitempty"`
}

// Column describes one table column.
type Column struct {
	Title  string `json:"title"`
	Weight int    `json:"weight"`
	Align  Align  `json:"align,omitempty"`
}

// Node is one element of the tree.
type Node struct {
	Kind        Kind       `json:"kind"`
	Text        string     `json:"text,omitempty"`
	Src         string     `json:"src,omitempty"`
	Placeholder string     `json:"placeholder,omitempty"`
	Weight      int        `json:"weight,omitempty"`
	Height      float64    `json:"height,omitempty"`
	Style       Style      `json:"style"`
	Columns     []Column   `json:"columns,omitempty"`
	Rows        [][]string `json:"rows,omitempty"`
	Children    []*Node    `json:"children,omitempty"`
}

// Document is a rendered template ready for preview or export.
type Document struct {
	Title    string `json:"title"`
	Family   string `json:"family"`
	Template string `json:"template"`
	Width    int    `json:"width"`
	Mono     bool   `json:"mono"`
	Root     *Node  `json:"root"`
}

// Stack lays children out top to bottom.
func Stack(style Style, children ...*Node) *Node {
	return &Node{Kind: KindStack, Style: style, Children: compact(children)}
}

// Row splits its width between children according to their Weight (default 1).
func Row(style Style, children ...*Node) *Node {
	return &Node{Kind: KindRow, Style: style, Children: compact(children)}
}

// Text is a wrapped paragraph. Newlines start new lines.
func Text(value string, style Style) *Node {
	return &Node{Kind: KindText, Text: value, Style: style}
}

// Image shows src inside a box of the given height, or placeholder text when src is
// empty or cannot be loaded.
func Image(src, placeholder string, height float64, style Style) *Node {
	return &Node{Kind: KindImage, Src: src, Placeholder: placeholder, Height: height, Style: style}
}

// QR encodes payload as a square QR code of the given side.
func QR(payload string, side float64) *Node {
	return &Node{Kind: KindQR, Text: payload, Height: side}
}

// Rule is a horizontal divider.
func Rule(color string) *Node {
	return &Node{Kind: KindRule, Height: 1, Style: Style{Color: color}}
}

// Spacer is fixed vertical whitespace.
func Spacer(height float64) *Node {
	return &Node{Kind: KindSpacer, Height: height}
}

// Table renders a header plus rows of cells.
func Table(columns []Column, rows [][]string, style Style) *Node {
	return &Node{Kind: KindTable, Columns: columns, Rows: rows, Style: style}
}

// Weighted sets the Row weight of n and returns it.
func Weighted(weight int, n *Node) *Node {
	if n != nil {
		n.Weight = weight
	}
	return n
}

// When returns n if cond holds, nil otherwise. Nil children are dropped by containers.
func When(cond bool, n *Node) *Node {
	if !cond {
		return nil
	}
	return n
}

func compact(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Walk visits n and its descendants depth-first.
func Walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		Walk(c, fn)
	}
}
