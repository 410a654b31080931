package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/smallbiznis/invoicekit/internal/clock"
	"github.com/smallbiznis/invoicekit/internal/currency"
	"github.com/smallbiznis/invoicekit/internal/external"
	"github.com/smallbiznis/invoicekit/internal/inflight"
	"github.com/smallbiznis/invoicekit/internal/invoice/calc"
	invoicedomain "github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/invoice/format"
	"github.com/smallbiznis/invoicekit/internal/layout"
	"github.com/smallbiznis/invoicekit/internal/observability/metrics"
	"github.com/smallbiznis/invoicekit/internal/observability/tracing"
	"github.com/smallbiznis/invoicekit/internal/providers/email"
	"github.com/smallbiznis/invoicekit/internal/providers/pdf"
	"github.com/smallbiznis/invoicekit/internal/quota"
	"github.com/smallbiznis/invoicekit/internal/ratelimit"
	"github.com/smallbiznis/invoicekit/internal/render"
	settingsdomain "github.com/smallbiznis/invoicekit/internal/settings/domain"
	"github.com/smallbiznis/invoicekit/internal/template"
)

const tracerName = "invoicekit/invoice"

// Mailer delivers a message through the first strategy that works.
type Mailer interface {
	Deliver(ctx context.Context, userID string, msg email.Message) (email.Result, error)
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     invoicedomain.Repository
	Catalog  *template.Catalog
	Renderer *render.HTMLRenderer
	Exporter pdf.Provider
	Gate     *quota.Gate
	Settings settingsdomain.Service
	Mailer   Mailer
	Limiter  ratelimit.Limiter
	Calls    external.Policy
	Guard    inflight.Guard           `optional:"true"`
	Metrics  *metrics.Metrics         `optional:"true"`
	Pipeline *metrics.PipelineMetrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     invoicedomain.Repository
	catalog  *template.Catalog
	renderer *render.HTMLRenderer
	exporter pdf.Provider
	gate     *quota.Gate
	settings settingsdomain.Service
	mailer   Mailer
	limiter  ratelimit.Limiter
	calls    external.Policy
	guard    inflight.Guard
	metrics  *metrics.Metrics
	pipeline *metrics.PipelineMetrics
	banner   *currency.GroupedFormatter
	tracer   trace.Tracer
}

func NewService(p ServiceParam) invoicedomain.Service {
	guard := p.Guard
	if guard == nil {
		guard = inflight.NewMemoryGuard()
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		catalog:  p.Catalog,
		renderer: p.Renderer,
		exporter: p.Exporter,
		gate:     p.Gate,
		settings: p.Settings,
		mailer:   p.Mailer,
		limiter:  p.Limiter,
		calls:    p.Calls,
		guard:    guard,
		metrics:  p.Metrics,
		pipeline: p.Pipeline,
		banner:   currency.Grouped(language.English),
		tracer:   otel.Tracer(tracerName),
	}
}

// Compute returns doc with every derived total refreshed.
func (s *Service) Compute(_ context.Context, doc invoicedomain.Document) (invoicedomain.Document, error) {
	out, err := normalize(doc)
	if err != nil {
		return invoicedomain.Document{}, err
	}
	return out, nil
}

func (s *Service) Templates(kind invoicedomain.Kind) []invoicedomain.TemplateInfo {
	registry, err := s.catalog.For(kind)
	if err != nil {
		return nil
	}
	return registry.Infos()
}

// Preview renders the on-screen HTML with an amount-due banner.
func (s *Service) Preview(ctx context.Context, userID string, doc invoicedomain.Document) (string, error) {
	ctx, span := s.tracer.Start(ctx, "invoice.preview")
	defer span.End()

	doc, err := normalize(doc)
	if err != nil {
		return "", s.fail(span, err)
	}
	tree, err := s.buildLayout(ctx, userID, doc)
	if err != nil {
		return "", s.fail(span, err)
	}

	banner := s.banner.Format(doc.Computed.GrandTotal, doc.CurrencyCode)
	html, err := s.renderer.RenderHTML(render.RenderInput{Document: tree, Banner: banner})
	if err != nil {
		return "", s.fail(span, &invoicedomain.ExportError{Stage: "preview", Cause: err})
	}
	return html, nil
}

// Export produces the PDF download. Each download counts against the download quota.
func (s *Service) Export(ctx context.Context, userID string, doc invoicedomain.Document) (*invoicedomain.ExportedFile, error) {
	ctx, span := s.tracer.Start(ctx, "invoice.export")
	defer span.End()

	if err := requireUser(userID); err != nil {
		return nil, s.fail(span, err)
	}
	doc, err := normalize(doc)
	if err != nil {
		return nil, s.fail(span, err)
	}

	var file *invoicedomain.ExportedFile
	err = s.gate.Run(ctx, userID, quota.ActionDownloadPDF, func(ctx context.Context) error {
		var exportErr error
		file, exportErr = s.exportPDF(ctx, userID, doc)
		return exportErr
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	span.SetAttributes(tracing.SafeAttributes(attribute.String("kind", string(doc.Kind)))...)
	return file, nil
}

// Save persists doc behind the save quota.
func (s *Service) Save(ctx context.Context, userID string, doc invoicedomain.Document) (*invoicedomain.Record, error) {
	ctx, span := s.tracer.Start(ctx, "invoice.save")
	defer span.End()

	if err := requireUser(userID); err != nil {
		return nil, s.fail(span, err)
	}
	doc, err := normalize(doc)
	if err != nil {
		return nil, s.fail(span, err)
	}
	registry, err := s.catalog.For(doc.Kind)
	if err != nil {
		return nil, s.fail(span, err)
	}
	tmpl, err := registry.Lookup(doc.TemplateIndex)
	if err != nil {
		return nil, s.fail(span, err)
	}

	now := s.clock.Now().UTC()
	record := invoicedomain.ToRecord(doc, tmpl.Slug)
	record.ID = s.genID.Generate()
	record.UserID = userID
	record.CreatedAt = now
	record.UpdatedAt = now

	err = s.gate.Run(ctx, userID, quota.ActionSaveInvoice, func(ctx context.Context) error {
		return external.Call(ctx, s.calls, "database", "insert_invoice", func(ctx context.Context) error {
			return s.repo.Insert(ctx, s.db, &record)
		})
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	s.metrics.RecordDocumentSaved(ctx, string(doc.Kind))
	s.log.Info("document saved",
		zap.String("user_id", userID),
		zap.String("kind", string(doc.Kind)),
		zap.String("id", record.ID.String()),
		zap.String("number", record.InvoiceNumber),
	)
	return &record, nil
}

// Load reads a saved document with its totals recomputed.
func (s *Service) Load(ctx context.Context, userID, id string) (invoicedomain.Document, error) {
	if err := requireUser(userID); err != nil {
		return invoicedomain.Document{}, err
	}
	recordID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return invoicedomain.Document{}, invoicedomain.ErrInvalidInvoiceID
	}

	record, err := external.Do(ctx, s.calls, "database", "find_invoice", func(ctx context.Context) (*invoicedomain.Record, error) {
		return s.repo.FindByID(ctx, s.db, userID, recordID)
	})
	if err != nil {
		return invoicedomain.Document{}, err
	}
	if record == nil {
		return invoicedomain.Document{}, invoicedomain.ErrInvoiceNotFound
	}

	doc := invoicedomain.FromRecord(*record)
	calc.Recompute(&doc)
	return doc, nil
}

func (s *Service) exportPDF(ctx context.Context, userID string, doc invoicedomain.Document) (*invoicedomain.ExportedFile, error) {
	started := s.clock.Now()
	tree, err := s.buildLayout(ctx, userID, doc)
	if err != nil {
		return nil, err
	}

	name := format.FileName(doc.Kind, doc.Meta.Number, started)
	file, err := s.exporter.Export(ctx, tree, pdf.FormatFor(doc.Kind), name)
	s.pipeline.ObserveExport(string(doc.Kind), time.Since(started), err)
	if err != nil {
		s.log.Error("pdf export failed", zap.String("user_id", userID), zap.String("kind", string(doc.Kind)), zap.Error(err))
		return nil, err
	}
	return file, nil
}

// buildLayout resolves branding and the selected template into a layout tree.
// Branding is best-effort: when settings cannot be read the document renders unbranded.
func (s *Service) buildLayout(ctx context.Context, userID string, doc invoicedomain.Document) (layout.Document, error) {
	registry, err := s.catalog.For(doc.Kind)
	if err != nil {
		return layout.Document{}, err
	}
	brand := s.lookupBranding(ctx, userID)
	return registry.Render(doc.TemplateIndex, doc, brand)
}

func (s *Service) lookupBranding(ctx context.Context, userID string) settingsdomain.Branding {
	if s.settings == nil || strings.TrimSpace(userID) == "" {
		return settingsdomain.Branding{}
	}
	b, err := external.Do(ctx, s.calls, "settings", "get_branding", func(ctx context.Context) (settingsdomain.Branding, error) {
		return s.settings.Get(ctx, userID)
	})
	if err != nil {
		s.log.Warn("branding unavailable, rendering without it", zap.String("user_id", userID), zap.Error(err))
		return settingsdomain.Branding{}
	}
	return b
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(tracing.SafeError(err))
	return err
}

// normalize fills defaults and refreshes the derived totals.
func normalize(doc invoicedomain.Document) (invoicedomain.Document, error) {
	out := doc.Clone()
	if out.Kind == "" {
		out.Kind = invoicedomain.KindInvoice
	}
	if !out.Kind.Valid() {
		return invoicedomain.Document{}, invoicedomain.ErrInvalidKind
	}
	if out.TemplateIndex == 0 {
		out.TemplateIndex = 1
	}
	if out.TaxPercentage < 0 || out.TaxPercentage > 100 {
		return invoicedomain.Document{}, invoicedomain.NewValidationError("tax_percentage", "must be between 0 and 100")
	}
	out.CurrencyCode = currency.Normalize(out.CurrencyCode)
	if out.Items == nil {
		out.Items = []invoicedomain.LineItem{}
	}
	calc.Recompute(&out)
	return out, nil
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return invoicedomain.NewValidationError("user_id", "required")
	}
	return nil
}
