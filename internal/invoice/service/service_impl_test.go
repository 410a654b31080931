package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/invoicekit/internal/clock"
	"github.com/smallbiznis/invoicekit/internal/external"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/invoice/repository"
	"github.com/smallbiznis/invoicekit/internal/layout"
	"github.com/smallbiznis/invoicekit/internal/providers/email"
	"github.com/smallbiznis/invoicekit/internal/providers/pdf"
	"github.com/smallbiznis/invoicekit/internal/quota"
	"github.com/smallbiznis/invoicekit/internal/ratelimit"
	"github.com/smallbiznis/invoicekit/internal/render"
	settingsdomain "github.com/smallbiznis/invoicekit/internal/settings/domain"
	subscriptiondomain "github.com/smallbiznis/invoicekit/internal/subscription/domain"
	"github.com/smallbiznis/invoicekit/internal/template"
	"github.com/smallbiznis/invoicekit/pkg/db/pagination"
)

type exporterStub struct {
	mu    sync.Mutex
	calls int
	last  layout.Document
	err   error
}

func (e *exporterStub) Export(_ context.Context, doc layout.Document, _ pdf.PageFormat, name string) (*domain.ExportedFile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.last = doc
	if e.err != nil {
		return nil, e.err
	}
	return &domain.ExportedFile{Name: name, ContentType: pdf.ContentType, Data: []byte("%PDF-1.3")}, nil
}

type usageStub struct {
	mu         sync.Mutex
	usage      subscriptiondomain.Usage
	increments int
}

func (u *usageStub) CurrentUsage(context.Context, string) (subscriptiondomain.Usage, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.usage, nil
}

func (u *usageStub) IncrementUsage(context.Context, string) (subscriptiondomain.Usage, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.increments++
	u.usage.Count++
	return u.usage, nil
}

type settingsStub struct {
	branding settingsdomain.Branding
	err      error
}

func (s *settingsStub) Get(context.Context, string) (settingsdomain.Branding, error) {
	return s.branding, s.err
}

func (s *settingsStub) Update(context.Context, string, settingsdomain.UpdateRequest) (settingsdomain.Branding, error) {
	return s.branding, nil
}

func (s *settingsStub) UploadLogo(context.Context, string, settingsdomain.LogoUpload) (settingsdomain.Branding, error) {
	return s.branding, nil
}

type mailerStub struct {
	calls int
	last  email.Message
	path  string
	err   error

	// entered and block, when set, hold Deliver until block is closed.
	entered chan struct{}
	block   chan struct{}
}

func (m *mailerStub) Deliver(_ context.Context, _ string, msg email.Message) (email.Result, error) {
	if m.block != nil {
		close(m.entered)
		<-m.block
	}
	m.calls++
	m.last = msg
	return email.Result{Path: m.path}, m.err
}

type limiterStub struct {
	allowed bool
}

func (l limiterStub) AllowMail(context.Context, string) (*ratelimit.Result, error) {
	return &ratelimit.Result{Allowed: l.allowed, RetryAfter: 10 * time.Second}, nil
}

type fixture struct {
	svc      *Service
	exporter *exporterStub
	usage    *usageStub
	mailer   *mailerStub
	settings *settingsStub
}

func newFixture(t *testing.T, usage subscriptiondomain.Usage) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&domain.Record{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	calls := external.Policy{Timeout: time.Second, Retries: 0, Backoff: time.Millisecond}
	f := &fixture{
		exporter: &exporterStub{},
		usage:    &usageStub{usage: usage},
		mailer:   &mailerStub{path: email.PathTransactional},
		settings: &settingsStub{branding: settingsdomain.Branding{CompanyName: "Acme Studio"}},
	}
	svc := NewService(ServiceParam{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clock.NewFakeClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)),
		Repo:     repository.Provide(),
		Catalog:  template.NewCatalog(),
		Renderer: render.NewRenderer(),
		Exporter: f.exporter,
		Gate:     quota.NewGate(f.usage, quota.Options{Calls: calls}),
		Settings: f.settings,
		Mailer:   f.mailer,
		Limiter:  limiterStub{allowed: true},
		Calls:    calls,
	})
	f.svc = svc.(*Service)
	return f
}

func trialUsage(count int) subscriptiondomain.Usage {
	return subscriptiondomain.Usage{PlanName: "trial", Count: count, Limit: 10}
}

func sampleDoc() domain.Document {
	return domain.Document{
		Kind: domain.KindInvoice,
		Meta: domain.Meta{
			Number:    "INV1",
			IssueDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			DueDate:   time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
		},
		BillTo:        domain.Party{Name: "Globex"},
		Items:         []domain.LineItem{{Name: "Design", Quantity: 2, UnitAmount: 50}, {Name: "Hosting", Quantity: 1, UnitAmount: 25.5}},
		TaxPercentage: 10,
		CurrencyCode:  "usd",
		TemplateIndex: 1,
	}
}

func TestComputeDerivesTotals(t *testing.T) {
	f := newFixture(t, trialUsage(0))

	doc, err := f.svc.Compute(context.Background(), sampleDoc())
	require.NoError(t, err)
	assert.InDelta(t, 125.5, doc.Computed.SubTotal, 1e-9)
	assert.InDelta(t, 12.55, doc.Computed.TaxAmount, 1e-9)
	assert.InDelta(t, 138.05, doc.Computed.GrandTotal, 1e-9)
	assert.Equal(t, 100.0, doc.Items[0].LineTotal)
	assert.Equal(t, "USD", doc.CurrencyCode)
}

func TestComputeRejectsUnknownKind(t *testing.T) {
	f := newFixture(t, trialUsage(0))

	doc := sampleDoc()
	doc.Kind = "quote"
	_, err := f.svc.Compute(context.Background(), doc)
	assert.ErrorIs(t, err, domain.ErrInvalidKind)
}

func TestTemplatesPerFamily(t *testing.T) {
	f := newFixture(t, trialUsage(0))

	assert.Len(t, f.svc.Templates(domain.KindInvoice), 5)
	assert.Len(t, f.svc.Templates(domain.KindReceipt), 3)
	assert.Nil(t, f.svc.Templates("quote"))
}

func TestPreviewShowsGroupedBannerAndBranding(t *testing.T) {
	f := newFixture(t, trialUsage(0))

	doc := sampleDoc()
	doc.Items = []domain.LineItem{{Name: "Design", Quantity: 1, UnitAmount: 1234.5}}
	doc.TaxPercentage = 0

	html, err := f.svc.Preview(context.Background(), "u1", doc)
	require.NoError(t, err)
	assert.Contains(t, html, "$1,234.50")
	assert.Contains(t, html, "Acme Studio")
}

func TestPreviewRendersWithoutBrandingWhenSettingsFail(t *testing.T) {
	f := newFixture(t, trialUsage(0))
	f.settings.err = errors.New("db down")

	html, err := f.svc.Preview(context.Background(), "u1", sampleDoc())
	require.NoError(t, err)
	assert.Contains(t, html, "Company Name")
}

func TestPreviewUnknownTemplateFailsLoudly(t *testing.T) {
	f := newFixture(t, trialUsage(0))

	doc := sampleDoc()
	doc.TemplateIndex = 99
	_, err := f.svc.Preview(context.Background(), "u1", doc)
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestExportNamesFileAndUsesTemplate(t *testing.T) {
	f := newFixture(t, trialUsage(0))

	doc := sampleDoc()
	doc.TemplateIndex = 2
	file, err := f.svc.Export(context.Background(), "u1", doc)
	require.NoError(t, err)
	assert.Equal(t, "Invoice_INV1.pdf", file.Name)
	assert.Equal(t, "modern", f.exporter.last.Template)
	assert.Zero(t, f.usage.increments)
}

func TestExportBlockedByQuota(t *testing.T) {
	f := newFixture(t, trialUsage(10))

	_, err := f.svc.Export(context.Background(), "u1", sampleDoc())
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "You have used 10 of 10")
	assert.Zero(t, f.exporter.calls)
}

func TestExportFailureIsDistinct(t *testing.T) {
	f := newFixture(t, trialUsage(0))
	f.exporter.err = &domain.ExportError{Stage: "rasterize", Cause: errors.New("boom")}

	_, err := f.svc.Export(context.Background(), "u1", sampleDoc())
	assert.ErrorIs(t, err, domain.ErrExportFailed)
	assert.NotErrorIs(t, err, domain.ErrExternalService)
}

func TestSaveThenLoad(t *testing.T) {
	f := newFixture(t, trialUsage(3))
	ctx := context.Background()

	record, err := f.svc.Save(ctx, "u1", sampleDoc())
	require.NoError(t, err)
	assert.Equal(t, "classic", record.TemplateName)
	assert.InDelta(t, 138.05, record.GrandTotal, 1e-9)
	assert.Equal(t, 1, f.usage.increments)

	doc, err := f.svc.Load(ctx, "u1", record.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "INV1", doc.Meta.Number)
	assert.Equal(t, "Globex", doc.BillTo.Name)
	require.Len(t, doc.Items, 2)
	assert.InDelta(t, 138.05, doc.Computed.GrandTotal, 1e-9)

	_, err = f.svc.Load(ctx, "u2", record.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
	_, err = f.svc.Load(ctx, "u1", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidInvoiceID)
}

func TestSaveDeniedLeavesNoRecord(t *testing.T) {
	f := newFixture(t, trialUsage(10))
	ctx := context.Background()

	_, err := f.svc.Save(ctx, "u1", sampleDoc())
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)

	page, err := f.svc.List(ctx, "u1", pagination.Pagination{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, f.usage.increments)
}

func TestSaveRequiresUser(t *testing.T) {
	f := newFixture(t, trialUsage(0))

	_, err := f.svc.Save(context.Background(), " ", sampleDoc())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListPages(t *testing.T) {
	f := newFixture(t, subscriptiondomain.Usage{PlanName: "pro"})
	ctx := context.Background()
	clk := f.svc.clock.(*clock.FakeClock)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Save(ctx, "u1", sampleDoc())
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}

	first, err := f.svc.List(ctx, "u1", pagination.Pagination{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.True(t, first.PageInfo.HasMore)

	second, err := f.svc.List(ctx, "u1", pagination.Pagination{PageSize: 2, PageToken: first.PageInfo.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.False(t, second.PageInfo.HasMore)
	assert.True(t, second.Items[0].CreatedAt.Before(first.Items[1].CreatedAt))

	_, err = f.svc.List(ctx, "u1", pagination.Pagination{PageToken: "%%%"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEmailRequiresRecipientBeforeAnyCall(t *testing.T) {
	f := newFixture(t, trialUsage(0))

	_, err := f.svc.Email(context.Background(), "u1", sampleDoc(), domain.EmailRequest{})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "to", verr.Field)
	assert.Zero(t, f.exporter.calls)
	assert.Zero(t, f.mailer.calls)

	_, err = f.svc.Email(context.Background(), "u1", sampleDoc(), domain.EmailRequest{To: "not an address"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEmailAttachesPDFAndReportsPath(t *testing.T) {
	f := newFixture(t, trialUsage(0))

	res, err := f.svc.Email(context.Background(), "u1", sampleDoc(), domain.EmailRequest{To: "Client <client@globex.test>"})
	require.NoError(t, err)
	assert.Equal(t, email.PathTransactional, res.Path)
	assert.Equal(t, "Invoice_INV1.pdf", res.FileName)

	msg := f.mailer.last
	assert.Equal(t, "client@globex.test", msg.To)
	assert.Equal(t, "Invoice INV1 from Acme Studio", msg.Subject)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	assert.Equal(t, "$138.05", msg.Params["grand_total"])
	assert.Contains(t, msg.Text, "2026-05-31")
}

func TestEmailRateLimited(t *testing.T) {
	f := newFixture(t, trialUsage(0))
	f.svc.limiter = limiterStub{allowed: false}

	_, err := f.svc.Email(context.Background(), "u1", sampleDoc(), domain.EmailRequest{To: "client@globex.test"})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Zero(t, f.mailer.calls)
}

func TestEmailSurfacesDeliveryFailure(t *testing.T) {
	f := newFixture(t, trialUsage(0))
	f.mailer.err = &domain.ExternalServiceError{Service: "mail", Op: "deliver", Cause: errors.New("all strategies failed")}

	_, err := f.svc.Email(context.Background(), "u1", sampleDoc(), domain.EmailRequest{To: "client@globex.test"})
	assert.ErrorIs(t, err, domain.ErrExternalService)
}

func TestEmailRejectsDuplicateSendWhileFirstIsRunning(t *testing.T) {
	f := newFixture(t, trialUsage(0))
	f.mailer.entered = make(chan struct{})
	f.mailer.block = make(chan struct{})
	req := domain.EmailRequest{To: "client@globex.test"}

	first := make(chan error, 1)
	go func() {
		_, err := f.svc.Email(context.Background(), "u1", sampleDoc(), req)
		first <- err
	}()
	<-f.mailer.entered

	_, err := f.svc.Email(context.Background(), "u1", sampleDoc(), req)
	assert.ErrorIs(t, err, domain.ErrActionInFlight)

	close(f.mailer.block)
	require.NoError(t, <-first)
	assert.Equal(t, 1, f.mailer.calls)
	assert.Equal(t, 1, f.exporter.calls)
}

func TestEmailReleasesLeaseAfterFailure(t *testing.T) {
	f := newFixture(t, trialUsage(0))
	f.mailer.err = &domain.ExternalServiceError{Service: "mail", Op: "deliver", Cause: errors.New("smtp down")}
	req := domain.EmailRequest{To: "client@globex.test"}

	_, err := f.svc.Email(context.Background(), "u1", sampleDoc(), req)
	require.ErrorIs(t, err, domain.ErrExternalService)

	f.mailer.err = nil
	_, err = f.svc.Email(context.Background(), "u1", sampleDoc(), req)
	assert.NoError(t, err)
}
