package pdf

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/layout"
	"github.com/smallbiznis/invoicekit/internal/render/raster"
)

type stubRasterizer struct {
	img image.Image
	err error
}

func (s stubRasterizer) Rasterize(context.Context, layout.Document) (image.Image, error) {
	return s.img, s.err
}

func bitmap(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func TestExportProducesPDF(t *testing.T) {
	e := New(stubRasterizer{img: bitmap(794, 1000)}, nil)

	file, err := e.Export(context.Background(), layout.Document{}, FormatA4, "Invoice_AB12C.pdf")
	require.NoError(t, err)

	assert.Equal(t, "Invoice_AB12C.pdf", file.Name)
	assert.Equal(t, ContentType, file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestExportReceiptFormat(t *testing.T) {
	e := New(stubRasterizer{img: bitmap(302, 900)}, nil)

	file, err := e.Export(context.Background(), layout.Document{}, FormatReceipt80, "")
	require.NoError(t, err)
	assert.Equal(t, "document.pdf", file.Name)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}

func TestExportWrapsRasterFailure(t *testing.T) {
	e := New(stubRasterizer{err: errors.New("font missing")}, nil)

	_, err := e.Export(context.Background(), layout.Document{}, FormatA4, "x.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExportFailed)

	var exportErr *domain.ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, "rasterize", exportErr.Stage)
}

func TestExportRejectsEmptyBitmap(t *testing.T) {
	e := New(stubRasterizer{img: image.NewRGBA(image.Rect(0, 0, 0, 0))}, nil)

	_, err := e.Export(context.Background(), layout.Document{}, FormatA4, "x.pdf")
	assert.ErrorIs(t, err, domain.ErrExportFailed)
}

func TestFitClipsTallBitmapsToOnePage(t *testing.T) {
	geo := FormatA4.Geometry()

	// 190mm across 190px gives 1px per mm, so 277px fit.
	out, pageH, clipped := fit(bitmap(190, 1000), geo)
	assert.True(t, clipped)
	assert.Equal(t, 297.0, pageH)
	assert.Equal(t, 277, out.Bounds().Dy())
	assert.Equal(t, 190, out.Bounds().Dx())

	out, _, clipped = fit(bitmap(190, 100), geo)
	assert.False(t, clipped)
	assert.Equal(t, 100, out.Bounds().Dy())
}

func TestFitGrowsReceiptPages(t *testing.T) {
	_, pageH, clipped := fit(bitmap(72, 300), FormatReceipt80.Geometry())
	assert.False(t, clipped)
	assert.InDelta(t, 308.0, pageH, 0.0001)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatA4, FormatFor(domain.KindInvoice))
	assert.Equal(t, FormatReceipt80, FormatFor(domain.KindReceipt))
}

func TestExportEndToEndWithoutLogo(t *testing.T) {
	r := raster.New(nil, raster.WithScale(1))
	e := New(r, nil)

	doc := layout.Document{Width: layout.WidthReceipt80, Mono: true, Root: layout.Stack(layout.Style{Padding: 8},
		layout.Image("", "Company Name", 40, layout.Style{}),
		layout.Text("TOTAL $110.00", layout.Style{}),
	)}
	file, err := e.Export(context.Background(), doc, FormatReceipt80, "Receipt_1.pdf")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}
