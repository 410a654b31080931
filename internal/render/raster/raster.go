// Package raster draws layout trees onto bitmaps.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/smallbiznis/invoicekit/internal/layout"
)

const (
	DefaultScale = 3.0

	defaultTextSize = 12.0
	lineSpacing     = 1.35
	cellPadding     = 6.0
	// maxHeight bounds the bitmap so a runaway document cannot exhaust memory.
	maxHeight = 20000
)

var (
	black  = color.RGBA{0x11, 0x18, 0x27, 0xff}
	hairln = color.RGBA{0xe5, 0xe7, 0xeb, 0xff}
)

type Option func(*Rasterizer)

// WithScale sets the oversampling factor applied to every CSS pixel.
func WithScale(scale float64) Option {
	return func(r *Rasterizer) {
		if scale > 0 {
			r.scale = scale
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Rasterizer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

type Rasterizer struct {
	scale  float64
	logos  LogoFetcher
	faces  *faceCache
	logger *zap.Logger
}

func New(logos LogoFetcher, opts ...Option) *Rasterizer {
	r := &Rasterizer{
		scale:  DefaultScale,
		logos:  logos,
		faces:  newFaceCache(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Rasterizer) Scale() float64 { return r.scale }

// Rasterize draws doc on a white bitmap that is doc.Width*scale pixels wide.
func (r *Rasterizer) Rasterize(ctx context.Context, doc layout.Document) (image.Image, error) {
	if doc.Root == nil {
		return nil, errors.New("raster: empty document")
	}
	width := doc.Width
	if width <= 0 {
		width = layout.WidthA4
	}

	p := &painter{
		r:      r,
		scale:  r.scale,
		mono:   doc.Mono,
		images: r.fetchImages(ctx, doc.Root),
	}
	w := float64(width) * r.scale

	height, err := p.node(doc.Root, 0, 0, w, layout.AlignLeft)
	if err != nil {
		return nil, err
	}
	h := int(math.Ceil(height))
	if h < 1 {
		h = 1
	}
	if h > maxHeight {
		h = maxHeight
	}

	p.dst = image.NewRGBA(image.Rect(0, 0, int(math.Ceil(w)), h))
	draw.Draw(p.dst, p.dst.Bounds(), image.White, image.Point{}, draw.Src)
	if _, err := p.node(doc.Root, 0, 0, w, layout.AlignLeft); err != nil {
		return nil, err
	}
	return p.dst, nil
}

func (r *Rasterizer) fetchImages(ctx context.Context, root *layout.Node) map[string]image.Image {
	out := make(map[string]image.Image)
	layout.Walk(root, func(n *layout.Node) {
		if n.Kind != layout.KindImage || n.Src == "" {
			return
		}
		if _, seen := out[n.Src]; seen {
			return
		}
		out[n.Src] = nil
		if r.logos == nil {
			return
		}
		img, err := r.logos.Fetch(ctx, n.Src)
		if err != nil {
			r.logger.Warn("logo unavailable, using placeholder", zap.String("src", n.Src), zap.Error(err))
			return
		}
		out[n.Src] = img
	})
	return out
}

// painter walks the tree twice: once to measure (dst nil) and once to draw.
type painter struct {
	r      *Rasterizer
	dst    *image.RGBA
	scale  float64
	mono   bool
	images map[string]image.Image
}

func (p *painter) drawing() bool { return p.dst != nil }

func (p *painter) node(n *layout.Node, x, y, w float64, inherited layout.Align) (float64, error) {
	align := n.Style.Align
	if align == "" {
		align = inherited
	}
	switch n.Kind {
	case layout.KindStack:
		return p.stack(n, x, y, w, align)
	case layout.KindRow:
		return p.row(n, x, y, w, align)
	case layout.KindText:
		return p.text(n.Text, n.Style, x, y, w, align)
	case layout.KindImage:
		return p.image(n, x, y, w, align)
	case layout.KindQR:
		return p.qr(n, x, y, w, align)
	case layout.KindRule:
		h := math.Max(1, math.Round(p.scale))
		if p.drawing() {
			p.fill(x, y, w, h, parseColor(n.Style.Color, hairln))
		}
		return h, nil
	case layout.KindSpacer:
		return n.Height * p.scale, nil
	case layout.KindTable:
		return p.table(n, x, y, w)
	default:
		return 0, fmt.Errorf("raster: unknown node kind %q", n.Kind)
	}
}

func (p *painter) background(n *layout.Node, x, y, w float64, measure func() (float64, error)) error {
	if !p.drawing() || n.Style.Background == "" {
		return nil
	}
	dst := p.dst
	p.dst = nil
	h, err := measure()
	p.dst = dst
	if err != nil {
		return err
	}
	p.fill(x, y, w, h, parseColor(n.Style.Background, color.RGBA{0xff, 0xff, 0xff, 0xff}))
	return nil
}

func (p *painter) stack(n *layout.Node, x, y, w float64, align layout.Align) (float64, error) {
	if err := p.background(n, x, y, w, func() (float64, error) { return p.stack(n, x, y, w, align) }); err != nil {
		return 0, err
	}
	pad := n.Style.Padding * p.scale
	gap := n.Style.Gap * p.scale
	cy := y + pad
	for i, child := range n.Children {
		if i > 0 {
			cy += gap
		}
		h, err := p.node(child, x+pad, cy, w-2*pad, align)
		if err != nil {
			return 0, err
		}
		cy += h
	}
	return cy + pad - y, nil
}

func (p *painter) row(n *layout.Node, x, y, w float64, align layout.Align) (float64, error) {
	if err := p.background(n, x, y, w, func() (float64, error) { return p.row(n, x, y, w, align) }); err != nil {
		return 0, err
	}
	pad := n.Style.Padding * p.scale
	gap := n.Style.Gap * p.scale
	if len(n.Children) == 0 {
		return 2 * pad, nil
	}

	total := 0
	for _, child := range n.Children {
		total += weightOf(child)
	}
	inner := w - 2*pad - gap*float64(len(n.Children)-1)
	cx := x + pad
	tallest := 0.0
	for _, child := range n.Children {
		cw := inner * float64(weightOf(child)) / float64(total)
		h, err := p.node(child, cx, y+pad, cw, align)
		if err != nil {
			return 0, err
		}
		tallest = math.Max(tallest, h)
		cx += cw + gap
	}
	return tallest + 2*pad, nil
}

func (p *painter) text(value string, style layout.Style, x, y, w float64, align layout.Align) (float64, error) {
	face, err := p.face(style)
	if err != nil {
		return 0, err
	}
	pad := style.Padding * p.scale
	lineHeight := p.lineHeight(style)
	lines := wrap(face, value, w-2*pad)
	if p.drawing() {
		ascent := float64(face.Metrics().Ascent) / 64
		col := parseColor(style.Color, black)
		for i, line := range lines {
			baseline := y + pad + float64(i)*lineHeight + ascent
			lw := measure(face, line)
			p.drawString(face, col, line, alignX(x+pad, w-2*pad, lw, align), baseline)
		}
	}
	return float64(len(lines))*lineHeight + 2*pad, nil
}

func (p *painter) image(n *layout.Node, x, y, w float64, align layout.Align) (float64, error) {
	img := p.images[n.Src]
	if img == nil {
		placeholder := n.Placeholder
		if placeholder == "" {
			return 0, nil
		}
		return p.text(placeholder, layout.Style{Size: 20, Bold: true}, x, y, w, align)
	}
	h := n.Height * p.scale
	if !p.drawing() {
		return h, nil
	}
	fitted := imaging.Fit(img, int(w), int(h), imaging.Lanczos)
	b := fitted.Bounds()
	left := alignX(x, w, float64(b.Dx()), align)
	rect := image.Rect(int(left), int(y), int(left)+b.Dx(), int(y)+b.Dy())
	draw.Draw(p.dst, rect, fitted, b.Min, draw.Over)
	return h, nil
}

func (p *painter) qr(n *layout.Node, x, y, w float64, align layout.Align) (float64, error) {
	side := math.Min(n.Height*p.scale, w)
	if !p.drawing() {
		return side, nil
	}
	code, err := qr.Encode(n.Text, qr.M, qr.Auto)
	if err != nil {
		return 0, fmt.Errorf("raster: encode qr: %w", err)
	}
	scaled, err := barcode.Scale(code, int(side), int(side))
	if err != nil {
		return 0, fmt.Errorf("raster: scale qr: %w", err)
	}
	left := alignX(x, w, side, align)
	rect := image.Rect(int(left), int(y), int(left)+int(side), int(y)+int(side))
	draw.Draw(p.dst, rect, scaled, scaled.Bounds().Min, draw.Src)
	return side, nil
}

func (p *painter) table(n *layout.Node, x, y, w float64) (float64, error) {
	if len(n.Columns) == 0 {
		return 0, nil
	}
	total := 0
	for _, c := range n.Columns {
		total += max(c.Weight, 1)
	}
	widths := make([]float64, len(n.Columns))
	for i, c := range n.Columns {
		widths[i] = w * float64(max(c.Weight, 1)) / float64(total)
	}

	size := n.Style.Size
	if size <= 0 {
		size = defaultTextSize
	}
	headStyle := layout.Style{Size: size - 1, Bold: true, Mono: n.Style.Mono, Color: n.Style.Color}
	if headStyle.Color == "" {
		headStyle.Color = "#6b7280"
	}
	cellStyle := layout.Style{Size: size, Mono: n.Style.Mono}

	header := make([]string, len(n.Columns))
	for i, c := range n.Columns {
		header[i] = strings.ToUpper(c.Title)
	}

	cy := y
	h, err := p.tableRow(n.Columns, widths, header, headStyle, x, cy)
	if err != nil {
		return 0, err
	}
	cy += h
	for _, cells := range n.Rows {
		h, err := p.tableRow(n.Columns, widths, cells, cellStyle, x, cy)
		if err != nil {
			return 0, err
		}
		cy += h
	}
	return cy - y, nil
}

func (p *painter) tableRow(cols []layout.Column, widths []float64, cells []string, style layout.Style, x, y float64) (float64, error) {
	pad := cellPadding * p.scale
	tallest := 0.0
	cx := x
	for i, col := range cols {
		value := ""
		if i < len(cells) {
			value = cells[i]
		}
		h, err := p.text(value, style, cx+pad, y+pad, widths[i]-2*pad, col.Align)
		if err != nil {
			return 0, err
		}
		tallest = math.Max(tallest, h)
		cx += widths[i]
	}
	rowHeight := tallest + 2*pad
	rule := math.Max(1, math.Round(p.scale))
	if p.drawing() {
		total := 0.0
		for _, cw := range widths {
			total += cw
		}
		p.fill(x, y+rowHeight, total, rule, hairln)
	}
	return rowHeight + rule, nil
}

func (p *painter) face(style layout.Style) (font.Face, error) {
	size := style.Size
	if size <= 0 {
		size = defaultTextSize
	}
	return p.r.faces.Face(size*p.scale, style.Bold, style.Mono || p.mono)
}

func (p *painter) lineHeight(style layout.Style) float64 {
	size := style.Size
	if size <= 0 {
		size = defaultTextSize
	}
	return math.Ceil(size * lineSpacing * p.scale)
}

func (p *painter) drawString(face font.Face, col color.Color, s string, x, baseline float64) {
	d := &font.Drawer{
		Dst:  p.dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(baseline * 64)},
	}
	d.DrawString(s)
}

func (p *painter) fill(x, y, w, h float64, col color.Color) {
	rect := image.Rect(int(x), int(y), int(math.Ceil(x+w)), int(math.Ceil(y+h)))
	draw.Draw(p.dst, rect, image.NewUniform(col), image.Point{}, draw.Src)
}

func weightOf(n *layout.Node) int {
	if n.Weight <= 0 {
		return 1
	}
	return n.Weight
}

func alignX(x, w, content float64, align layout.Align) float64 {
	switch align {
	case layout.AlignCenter:
		return x + math.Max(0, (w-content)/2)
	case layout.AlignRight:
		return x + math.Max(0, w-content)
	default:
		return x
	}
}

func measure(face font.Face, s string) float64 {
	return float64(font.MeasureString(face, s)) / 64
}

// wrap splits value on newlines and breaks each line on spaces to fit width.
// A single word wider than width is kept on its own line.
func wrap(face font.Face, value string, width float64) []string {
	var out []string
	for _, para := range strings.Split(value, "\n") {
		words := strings.Split(para, " ")
		line := ""
		for i, word := range words {
			candidate := word
			if i > 0 {
				candidate = line + " " + word
			}
			if i > 0 && measure(face, candidate) > width && strings.TrimSpace(line) != "" {
				out = append(out, line)
				line = word
				continue
			}
			line = candidate
		}
		out = append(out, line)
	}
	return out
}

func parseColor(hex string, fallback color.RGBA) color.RGBA {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
