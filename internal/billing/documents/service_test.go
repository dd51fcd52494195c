package documents

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/export"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/render"
	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/httpx"
)

type fixture struct {
	svc      *Service
	repo     *mockRepository
	redis    *miniredis.Miniredis
	metrics  *recorder
	pdf      *stubPDF
	sharer   *fakeSharer
	idem     *memoryIdempotency
	enqueuer *fakeEnqueuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		repo:     newMockRepository(),
		redis:    mr,
		metrics:  newRecorder(),
		pdf:      &stubPDF{},
		sharer:   &fakeSharer{},
		idem:     newMemoryIdempotency(),
		enqueuer: &fakeEnqueuer{},
	}
	f.svc = NewService(Config{}, Dependencies{
		Repo: f.repo,
		Products: productLookup{
			7: {ID: 7, Name: "Support plan", Unit: "month", UnitPrice: dec("49.90"), TaxRate: dec("19")},
		},
		Cache:       cache.NewStore(client, "test"),
		PDF:         f.pdf,
		Share:       f.sharer,
		Idempotency: f.idem,
		Enqueuer:    f.enqueuer,
		Metrics:     f.metrics,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	f.svc.now = func() time.Time { return time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC) }
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func invoiceRequest() CreateDocumentRequest {
	return CreateDocumentRequest{
		CompanyID:       1,
		ClientID:        2,
		Type:            billing.DocumentTypeInvoice,
		IssueDate:       time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Currency:        "EUR",
		Language:        "de",
		DiscountPercent: dec("5"),
		Items: []ItemRequest{
			{Description: "Consulting", Unit: "h", Quantity: dec("2"), UnitPrice: decPtr("100"), DiscountPercent: dec("10"), TaxRate: decPtr("20")},
			{Description: "Travel", Quantity: dec("1"), UnitPrice: decPtr("50"), TaxRate: decPtr("10")},
		},
	}
}

func (f *fixture) create(t *testing.T, req CreateDocumentRequest) *Document {
	t.Helper()
	doc, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	return doc
}

func TestCreateComputesTotalsAndNumber(t *testing.T) {
	f := newFixture(t)

	doc := f.create(t, invoiceRequest())

	assert.Equal(t, "INV-202501-0001", doc.Number)
	assert.Equal(t, StatusDraft, doc.Status)
	assert.Equal(t, "EUR", doc.Currency)
	assert.Equal(t, "de", doc.Language)
	assert.Equal(t, render.DefaultTemplate, doc.Template)
	require.NotNil(t, doc.DueDate)
	assert.Equal(t, time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC), *doc.DueDate)

	assertDecimal(t, "250", doc.Subtotal)
	assertDecimal(t, "22.5", doc.DiscountTotal)
	assertDecimal(t, "40.75", doc.TaxTotal)
	assertDecimal(t, "268.25", doc.Total)

	require.Len(t, doc.Items, 2)
	assert.Equal(t, 2, doc.Items[1].Position)
	assertDecimal(t, "0", doc.Items[1].DiscountPercent)
	assertDecimal(t, "47.5", doc.Items[1].Amount)
	assertDecimal(t, "4.75", doc.Items[1].TaxAmount)

	second := f.create(t, invoiceRequest())
	assert.Equal(t, "INV-202501-0002", second.Number)

	offerReq := invoiceRequest()
	offerReq.Type = billing.DocumentTypeOffer
	offer := f.create(t, offerReq)
	assert.Equal(t, "OFF-202501-0001", offer.Number)
	assert.Nil(t, offer.DueDate)
}

func TestCreateDefaultsIssueDate(t *testing.T) {
	f := newFixture(t)
	req := invoiceRequest()
	req.IssueDate = time.Time{}
	req.Currency = ""
	req.Language = ""

	doc := f.create(t, req)

	assert.Equal(t, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), doc.IssueDate)
	assert.Equal(t, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), *doc.DueDate)
	assert.Equal(t, billing.DefaultCurrency, doc.Currency)
	assert.Equal(t, billing.DefaultLanguage, doc.Language)
}

func TestCreateUsesCompanyDefaults(t *testing.T) {
	f := newFixture(t)
	f.svc.companies = companyLookup{
		1: {ID: 1, DefaultCurrency: "CHF", DefaultLanguage: "de"},
		3: {ID: 3},
	}

	req := invoiceRequest()
	req.Currency = ""
	req.Language = ""
	doc := f.create(t, req)
	assert.Equal(t, "CHF", doc.Currency)
	assert.Equal(t, "de", doc.Language)

	req.Currency = "usd"
	req.Language = "en-GB"
	doc = f.create(t, req)
	assert.Equal(t, "USD", doc.Currency)
	assert.Equal(t, "en", doc.Language)

	req = invoiceRequest()
	req.CompanyID = 3
	req.Currency = ""
	req.Language = ""
	doc = f.create(t, req)
	assert.Equal(t, billing.DefaultCurrency, doc.Currency)
	assert.Equal(t, billing.DefaultLanguage, doc.Language)

	req.CompanyID = 9
	_, err := f.svc.Create(context.Background(), req)
	var vErr *httpx.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "company_id")
}

func TestCreateFillsItemsFromProduct(t *testing.T) {
	f := newFixture(t)
	req := invoiceRequest()
	req.DiscountPercent = decimal.Zero
	req.Items = []ItemRequest{
		{ProductID: ptr(int64(7)), Quantity: dec("3")},
		{ProductID: ptr(int64(7)), Description: "Support plan (discounted)", Quantity: dec("1"), UnitPrice: decPtr("40")},
	}

	doc := f.create(t, req)

	require.Len(t, doc.Items, 2)
	assert.Equal(t, "Support plan", doc.Items[0].Description)
	assert.Equal(t, "month", doc.Items[0].Unit)
	assertDecimal(t, "49.90", doc.Items[0].UnitPrice)
	assertDecimal(t, "19", doc.Items[0].TaxRate)
	assertDecimal(t, "149.7", doc.Items[0].Amount)
	assert.Equal(t, "Support plan (discounted)", doc.Items[1].Description)
	assertDecimal(t, "40", doc.Items[1].UnitPrice)

	req.Items = []ItemRequest{{ProductID: ptr(int64(99)), Quantity: dec("1")}}
	_, err := f.svc.Create(context.Background(), req)
	var vErr *httpx.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "items[0].product_id")
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateDocumentRequest)
		field  string
	}{
		{"document discount above 100", func(r *CreateDocumentRequest) { r.DiscountPercent = dec("150") }, "discount_percent"},
		{"due before issue", func(r *CreateDocumentRequest) {
			due := r.IssueDate.AddDate(0, 0, -1)
			r.DueDate = &due
		}, "due_date"},
		{"item tax rate above 100", func(r *CreateDocumentRequest) { r.Items[0].TaxRate = decPtr("120") }, "items[0].tax_rate"},
		{"item without description", func(r *CreateDocumentRequest) { r.Items[1].Description = " " }, "items[1].description"},
		{"unknown type", func(r *CreateDocumentRequest) { r.Type = "receipt" }, "Type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := invoiceRequest()
			tt.mutate(&req)

			_, err := f.svc.Create(context.Background(), req)

			var vErr *httpx.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Fields, tt.field)
			assert.Empty(t, f.repo.docs)
		})
	}
}

func TestCreateRejectsUnknownTemplate(t *testing.T) {
	f := newFixture(t)
	req := invoiceRequest()
	req.Template = "modern"

	_, err := f.svc.Create(context.Background(), req)

	require.ErrorIs(t, err, httpx.ErrValidation)
	require.ErrorIs(t, err, render.ErrTemplateNotFound)
}

func TestUpdateRecomputesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, invoiceRequest())

	updated, err := f.svc.Update(ctx, doc.ID, UpdateDocumentRequest{DiscountPercent: decPtr("0")})
	require.NoError(t, err)
	assertDecimal(t, "271", updated.Total)
	assertDecimal(t, "50", updated.Items[1].Amount)

	items := []ItemRequest{{Description: "Workshop", Quantity: dec("1"), UnitPrice: decPtr("1000"), TaxRate: decPtr("19")}}
	notes := "Thanks"
	updated, err = f.svc.Update(ctx, doc.ID, UpdateDocumentRequest{Items: &items, Notes: &notes})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assertDecimal(t, "1190", updated.Total)
	assert.Equal(t, "Thanks", updated.Notes)
	assert.Equal(t, doc.Number, updated.Number)
}

func TestUpdateOnlyDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, invoiceRequest())
	_, err := f.svc.ChangeStatus(ctx, doc.ID, StatusSent)
	require.NoError(t, err)

	notes := "late change"
	_, err = f.svc.Update(ctx, doc.ID, UpdateDocumentRequest{Notes: &notes})

	require.ErrorIs(t, err, ErrNotEditable)
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestChangeStatusInvoiceWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, invoiceRequest())

	_, err := f.svc.ChangeStatus(ctx, doc.ID, StatusPaid)
	require.ErrorIs(t, err, ErrInvalidStatus)

	sent, err := f.svc.ChangeStatus(ctx, doc.ID, StatusSent)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, sent.Status)

	_, err = f.svc.ChangeStatus(ctx, doc.ID, StatusOverdue)
	require.ErrorIs(t, err, ErrInvalidStatus)

	paid, err := f.svc.ChangeStatus(ctx, doc.ID, StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)

	_, err = f.svc.ChangeStatus(ctx, doc.ID, StatusCancelled)
	require.ErrorIs(t, err, httpx.ErrConflict)

	_, err = f.svc.ChangeStatus(ctx, 999, StatusSent)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(billing.DocumentTypeInvoice, StatusSent, StatusOverdue))
	assert.True(t, CanTransition(billing.DocumentTypeInvoice, StatusOverdue, StatusPaid))
	assert.False(t, CanTransition(billing.DocumentTypeInvoice, StatusSent, StatusAccepted))
	assert.True(t, CanTransition(billing.DocumentTypeOffer, StatusSent, StatusRejected))
	assert.False(t, CanTransition(billing.DocumentTypeOffer, StatusRejected, StatusConverted))
	assert.False(t, CanTransition(billing.DocumentTypeOffer, StatusDraft, StatusPaid))
}

func TestConvertOffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := invoiceRequest()
	req.Type = billing.DocumentTypeOffer
	offer := f.create(t, req)

	_, err := f.svc.Convert(ctx, offer.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.ChangeStatus(ctx, offer.ID, StatusSent)
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, offer.ID, StatusAccepted)
	require.NoError(t, err)

	invoice, err := f.svc.Convert(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.DocumentTypeInvoice, invoice.Type)
	assert.Equal(t, StatusDraft, invoice.Status)
	assert.Equal(t, "INV-202501-0001", invoice.Number)
	assert.Equal(t, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), invoice.IssueDate)
	require.NotNil(t, invoice.SourceDocumentID)
	assert.Equal(t, offer.ID, *invoice.SourceDocumentID)
	require.Len(t, invoice.Items, 2)
	assert.Equal(t, offer.Items[0].Description, invoice.Items[0].Description)
	assertDecimal(t, offer.Total.String(), invoice.Total)

	converted, err := f.svc.Get(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConverted, converted.Status)

	_, err = f.svc.Convert(ctx, offer.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)
	_, err = f.svc.Convert(ctx, invoice.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)
	_, err = f.svc.ChangeStatus(ctx, invoice.ID, StatusConverted)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCreateIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, created, err := f.svc.CreateIdempotent(ctx, "key-1", invoiceRequest())
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := f.svc.CreateIdempotent(ctx, "key-1", invoiceRequest())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, f.repo.docs, 1)

	require.NoError(t, f.idem.CheckAndInsert(ctx, "busy", idempotencyModule))
	_, _, err = f.svc.CreateIdempotent(ctx, "busy", invoiceRequest())
	require.ErrorIs(t, err, httpx.ErrConflict)

	bad := invoiceRequest()
	bad.DiscountPercent = dec("101")
	_, _, err = f.svc.CreateIdempotent(ctx, "retry", bad)
	require.Error(t, err)
	_, created, err = f.svc.CreateIdempotent(ctx, "retry", invoiceRequest())
	require.NoError(t, err)
	assert.True(t, created)
}

func TestPreviewCachesHTML(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, invoiceRequest())

	html, err := f.svc.Preview(ctx, doc.ID, RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, string(html), "INV-202501-0001")
	assert.Contains(t, string(html), "Globex")

	again, err := f.svc.Preview(ctx, doc.ID, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, html, again)
	assert.Equal(t, 1, f.metrics.renders)
	assert.Equal(t, 1, f.metrics.hits)
	assert.Equal(t, 1, f.metrics.misses)
	assert.Equal(t, 1, f.repo.loads)

	keys := f.redis.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "test:html:1:"))

	themed, err := f.svc.Preview(ctx, doc.ID, RenderOptions{Theme: &render.Theme{PrimaryColor: "#ff0000"}})
	require.NoError(t, err)
	assert.Contains(t, string(themed), "#ff0000")
	assert.Equal(t, 2, f.metrics.renders)
	assert.Len(t, f.redis.Keys(), 2)

	notes := "edited"
	_, err = f.svc.Update(ctx, doc.ID, UpdateDocumentRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Empty(t, f.redis.Keys())

	edited, err := f.svc.Preview(ctx, doc.ID, RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, string(edited), "edited")
	assert.Equal(t, 3, f.metrics.renders)
}

func TestPreviewFollowsCompanyEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.renameCompany("Old Name GmbH")
	doc := f.create(t, invoiceRequest())

	before, err := f.svc.Preview(ctx, doc.ID, RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, string(before), "Old Name GmbH")

	f.repo.renameCompany("New Name GmbH")

	after, err := f.svc.Preview(ctx, doc.ID, RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, string(after), "New Name GmbH")
	assert.NotContains(t, string(after), "Old Name GmbH")
	assert.Equal(t, 2, f.metrics.renders)

	_, err = f.svc.PDF(ctx, doc.ID, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.metrics.renders, "pdf reuses the fresh preview")
	assert.Equal(t, 1, f.metrics.hits)
}

func TestPreviewErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, invoiceRequest())

	_, err := f.svc.Preview(ctx, 404, RenderOptions{})
	require.ErrorIs(t, err, httpx.ErrNotFound)

	_, err = f.svc.Preview(ctx, doc.ID, RenderOptions{Template: "modern"})
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.ErrorIs(t, err, render.ErrTemplateNotFound)

	_, err = f.svc.Preview(ctx, doc.ID, RenderOptions{Theme: &render.Theme{PrimaryColor: "red;}body{"}})
	var vErr *httpx.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "theme")
}

func TestPDFShareAndPrint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, invoiceRequest())

	artifact, err := f.svc.PDF(ctx, doc.ID, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "invoice-INV-202501-0001.pdf", artifact.Name)
	assert.Equal(t, export.ContentTypePDF, artifact.ContentType)
	assert.Equal(t, "%PDF-stub", string(artifact.Data))
	assert.Positive(t, f.pdf.lastLen)
	assert.Equal(t, 1, f.metrics.sink(export.SinkPDF, export.OutcomeSucceeded))

	link, err := f.svc.Share(ctx, doc.ID, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "https://share.test/invoice-INV-202501-0001.pdf", link.URL)
	require.Len(t, f.sharer.shared, 1)
	assert.Equal(t, 1, f.metrics.sink(export.SinkShare, export.OutcomeSucceeded))
	assert.Equal(t, 1, f.metrics.renders)

	_, err = f.svc.Print(ctx, doc.ID, RenderOptions{})
	require.ErrorIs(t, err, httpx.ErrUnavailable)
	require.ErrorIs(t, err, export.ErrNoPrinter)
	assert.Equal(t, 1, f.metrics.sink(export.SinkPrint, export.OutcomeFailed))

	printer := &fakePrinter{}
	f.svc.printer = printer
	name, err := f.svc.Print(ctx, doc.ID, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fake", name)
	require.Len(t, printer.jobs, 1)
}

func TestShareDisabled(t *testing.T) {
	f := newFixture(t)
	f.sharer.err = export.ErrShareDisabled
	doc := f.create(t, invoiceRequest())

	_, err := f.svc.Share(context.Background(), doc.ID, RenderOptions{})

	require.ErrorIs(t, err, httpx.ErrUnavailable)
	assert.Equal(t, 1, f.metrics.sink(export.SinkShare, export.OutcomeFailed))
}

func TestPDFWithoutRenderer(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(Config{}, Dependencies{Repo: repo})

	_, err := svc.PDF(context.Background(), 1, RenderOptions{})

	require.ErrorIs(t, err, httpx.ErrUnavailable)
}

func TestPDFCallerCancelled(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, invoiceRequest())
	block := make(chan struct{})
	defer close(block)
	f.pdf.block = block

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.PDF(ctx, doc.ID, RenderOptions{})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.metrics.sink(export.SinkPDF, export.OutcomeCancelled))
}

func TestXLSX(t *testing.T) {
	f := newFixture(t)
	doc := f.create(t, invoiceRequest())

	artifact, err := f.svc.XLSX(context.Background(), doc.ID)

	require.NoError(t, err)
	assert.Equal(t, "invoice-INV-202501-0001.xlsx", artifact.Name)
	assert.Equal(t, export.ContentTypeXLSX, artifact.ContentType)
	assert.NotEmpty(t, artifact.Data)
	assert.Equal(t, 1, f.metrics.sink(export.SinkXLSX, export.OutcomeSucceeded))
}

func TestExportRunsRequestedSinks(t *testing.T) {
	f := newFixture(t)
	printer := &fakePrinter{}
	f.svc.printer = printer
	doc := f.create(t, invoiceRequest())

	result, err := f.svc.Export(context.Background(), ExportRequest{DocumentID: doc.ID, Share: true, Print: true})

	require.NoError(t, err)
	assert.Equal(t, "invoice-INV-202501-0001.pdf", result.FileName)
	require.NotNil(t, result.Link)
	assert.Equal(t, "fake", result.Printer)
	assert.Len(t, printer.jobs, 1)
	assert.Len(t, f.sharer.shared, 1)
}

func TestEnqueueExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.create(t, invoiceRequest())

	_, err := f.svc.EnqueueExport(ctx, ExportRequest{DocumentID: 404})
	require.ErrorIs(t, err, httpx.ErrNotFound)

	_, err = f.svc.EnqueueExport(ctx, ExportRequest{DocumentID: doc.ID, Template: "modern"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	taskID, err := f.svc.EnqueueExport(ctx, ExportRequest{DocumentID: doc.ID, Share: true})
	require.NoError(t, err)
	assert.Equal(t, "task-1", taskID)
	require.Len(t, f.enqueuer.requests, 1)
	assert.True(t, f.enqueuer.requests[0].Share)

	_, err = NewService(Config{}, Dependencies{Repo: f.repo}).EnqueueExport(ctx, ExportRequest{DocumentID: doc.ID})
	require.ErrorIs(t, err, httpx.ErrUnavailable)
}

func TestMarkOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sent := f.create(t, invoiceRequest())
	draft := f.create(t, invoiceRequest())
	_, err := f.svc.ChangeStatus(ctx, sent.ID, StatusSent)
	require.NoError(t, err)

	ids, err := f.svc.MarkOverdue(ctx, time.Date(2025, 1, 29, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = f.svc.MarkOverdue(ctx, time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []int64{sent.ID}, ids)

	overdue, err := f.svc.Get(ctx, sent.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, overdue.Status)
	untouched, err := f.svc.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, untouched.Status)

	paid, err := f.svc.ChangeStatus(ctx, sent.ID, StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
}

func TestRenderAdhoc(t *testing.T) {
	f := newFixture(t)

	html, warnings, err := f.svc.RenderAdhoc(context.Background(), RenderRequest{
		Source: billing.Source{
			Document: billing.Record{"type": "offer", "number": "Q-17", "currency": "USD"},
			Company:  billing.Record{"name": "Acme GmbH", "logo": "data:image/png;base64,iVBORw0KGgo="},
			Client:   billing.Record{"first_name": "Jane", "last_name": "Doe"},
			Items: []billing.Record{
				{"description": "Design", "quantity": "abc", "unit_price": "1.200,50"},
			},
		},
		HideLogo: true,
	})

	require.NoError(t, err)
	out := string(html)
	assert.Contains(t, out, "Q-17")
	assert.Contains(t, out, "Jane Doe")
	assert.NotContains(t, out, "<img ")
	require.NotEmpty(t, warnings)
	assert.Equal(t, "items[0].quantity", warnings[0].Field)
}

func TestListNormalizesParams(t *testing.T) {
	f := newFixture(t)
	f.create(t, invoiceRequest())

	docs, total, err := f.svc.List(context.Background(), ListDocumentsRequest{Type: billing.DocumentTypeInvoice})

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, docs, 1)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "INV-202501-0007", FormatNumber("INV", time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 7))
	assert.Equal(t, "OFF-202412-12345", FormatNumber("OFF", time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), 12345))
}

func ptr[T any](v T) *T { return &v }
