package pdf

import (
	"bytes"
	"context"
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/johnfercher/maroto/v2"
	mimage "github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/zap"

	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/layout"
)

// rowSlack keeps the image row strictly inside the printable area so maroto
// never opens a second page.
const rowSlack = 0.01

type Exporter struct {
	rasterizer Rasterizer
	log        *zap.Logger
}

func New(rasterizer Rasterizer, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{rasterizer: rasterizer, log: log.Named("pdf")}
}

// Export rasterizes doc and places the bitmap on one page of the given format,
// scaled to the printable width. Content taller than the page is clipped.
func (e *Exporter) Export(ctx context.Context, doc layout.Document, format PageFormat, name string) (*domain.ExportedFile, error) {
	if e.rasterizer == nil {
		return nil, &domain.ExportError{Stage: "rasterize", Cause: errors.New("rasterizer not configured")}
	}
	bitmap, err := e.rasterizer.Rasterize(ctx, doc)
	if err != nil {
		return nil, &domain.ExportError{Stage: "rasterize", Cause: err}
	}
	b := bitmap.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &domain.ExportError{Stage: "rasterize", Cause: errors.New("empty bitmap")}
	}

	geo := format.Geometry()
	bitmap, pageH, clipped := fit(bitmap, geo)
	if clipped {
		e.log.Info("clipping export to a single page",
			zap.String("template", doc.Template),
			zap.Int("height_px", b.Dy()),
			zap.Int("kept_px", bitmap.Bounds().Dy()),
		)
	}
	b = bitmap.Bounds()
	mmPerPx := (geo.Width - 2*geo.Margin) / float64(b.Dx())

	var png bytes.Buffer
	if err := imaging.Encode(&png, bitmap, imaging.PNG); err != nil {
		return nil, &domain.ExportError{Stage: "encode", Cause: err}
	}

	cfg := config.NewBuilder().
		WithDimensions(geo.Width, pageH).
		WithLeftMargin(geo.Margin).
		WithTopMargin(geo.Margin).
		WithRightMargin(geo.Margin).
		WithBottomMargin(geo.Margin).
		Build()

	m := maroto.New(cfg)
	rowH := math.Max(float64(b.Dy())*mmPerPx-rowSlack, rowSlack)
	m.AddRow(rowH, mimage.NewFromBytesCol(12, png.Bytes(), extension.Png, props.Rect{Percent: 100}))

	out, err := m.Generate()
	if err != nil {
		return nil, &domain.ExportError{Stage: "assemble", Cause: err}
	}

	if name == "" {
		name = "document.pdf"
	}
	return &domain.ExportedFile{Name: name, ContentType: ContentType, Data: out.GetBytes()}, nil
}

var _ Provider = (*Exporter)(nil)

// fit returns the bitmap cropped to the printable height of geo and the page
// height to use. Pages without a fixed height grow to fit the bitmap.
func fit(bitmap image.Image, geo Geometry) (image.Image, float64, bool) {
	b := bitmap.Bounds()
	mmPerPx := (geo.Width - 2*geo.Margin) / float64(b.Dx())
	if geo.Height == 0 {
		return bitmap, float64(b.Dy())*mmPerPx + 2*geo.Margin, false
	}
	maxPx := int(math.Floor((geo.Height - 2*geo.Margin) / mmPerPx))
	if b.Dy() <= maxPx {
		return bitmap, geo.Height, false
	}
	return imaging.Crop(bitmap, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+maxPx)), geo.Height, true
}
