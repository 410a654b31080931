// Package pdf assembles exported documents into single-page PDF files.
package pdf

import (
	"context"
	"image"

	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/layout"
)

const ContentType = "application/pdf"

// PageFormat selects the physical page the bitmap is placed on.
type PageFormat string

const (
	FormatA4        PageFormat = "a4"
	FormatReceipt80 PageFormat = "receipt80"
)

// FormatFor returns the page format used for kind.
func FormatFor(kind domain.Kind) PageFormat {
	if kind == domain.KindReceipt {
		return FormatReceipt80
	}
	return FormatA4
}

// Geometry is a page size and uniform margin in millimetres. Height 0 means
// the page grows with its content.
type Geometry struct {
	Width  float64
	Height float64
	Margin float64
}

func (f PageFormat) Geometry() Geometry {
	switch f {
	case FormatReceipt80:
		return Geometry{Width: 80, Margin: 4}
	default:
		return Geometry{Width: 210, Height: 297, Margin: 10}
	}
}

// Rasterizer draws a layout tree onto a bitmap.
type Rasterizer interface {
	Rasterize(ctx context.Context, doc layout.Document) (image.Image, error)
}

type Provider interface {
	Export(ctx context.Context, doc layout.Document, format PageFormat, name string) (*domain.ExportedFile, error)
}
