package documents

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/companies"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/export"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/products"
	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-invoicing/internal/shared"
)

type mockRepository struct {
	mu        sync.Mutex
	docs      map[int64]*Document
	sequences map[string]int64
	nextID    int64
	nextItem  int64
	clock     time.Time
	loads     int

	companyName    string
	companyUpdated time.Time
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		docs:      make(map[int64]*Document),
		sequences: make(map[string]int64),
		nextID:    1,
		nextItem:  1,
		clock:     time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC),

		companyName: "Acme GmbH",
	}
}

// renameCompany edits the issuer the way the companies service would,
// bumping its updated_at.
func (m *mockRepository) renameCompany(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companyName = name
	m.companyUpdated = m.tick()
}

func (m *mockRepository) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", id, httpx.ErrNotFound)
	}
	cp := *d
	cp.Items = append([]Item(nil), d.Items...)
	cp.CompanyUpdatedAt = m.companyUpdated
	return &cp, nil
}

func (m *mockRepository) List(_ context.Context, req ListDocumentsRequest) ([]Document, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Document
	for _, d := range m.docs {
		if req.Type != "" && d.Type != req.Type {
			continue
		}
		if req.Status != "" && d.Status != req.Status {
			continue
		}
		if req.CompanyID > 0 && d.CompanyID != req.CompanyID {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *mockRepository) Create(_ context.Context, d Document) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = m.nextID
	m.nextID++
	d.Items = nil
	d.CreatedAt = m.tick()
	d.UpdatedAt = d.CreatedAt
	m.docs[d.ID] = &d
	return d.ID, nil
}

func (m *mockRepository) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return fmt.Errorf("document %d: %w", id, httpx.ErrNotFound)
	}
	for k, v := range updates {
		switch k {
		case "client_id":
			d.ClientID = v.(int64)
		case "issue_date":
			d.IssueDate = v.(time.Time)
		case "due_date":
			due := v.(time.Time)
			d.DueDate = &due
		case "reference":
			d.Reference = v.(string)
		case "notes":
			d.Notes = v.(string)
		case "payment_terms":
			d.PaymentTerms = v.(string)
		case "currency":
			d.Currency = v.(string)
		case "language":
			d.Language = v.(string)
		case "template":
			d.Template = v.(string)
		case "discount_percent":
			d.DiscountPercent = v.(decimal.Decimal)
		case "subtotal":
			d.Subtotal = v.(decimal.Decimal)
		case "discount_total":
			d.DiscountTotal = v.(decimal.Decimal)
		case "tax_total":
			d.TaxTotal = v.(decimal.Decimal)
		case "total":
			d.Total = v.(decimal.Decimal)
		default:
			return fmt.Errorf("unexpected column %s", k)
		}
	}
	d.UpdatedAt = m.tick()
	return nil
}

func (m *mockRepository) InsertItem(_ context.Context, it Item) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[it.DocumentID]
	if !ok {
		return 0, fmt.Errorf("document %d: %w", it.DocumentID, httpx.ErrNotFound)
	}
	it.ID = m.nextItem
	m.nextItem++
	d.Items = append(d.Items, it)
	return it.ID, nil
}

func (m *mockRepository) DeleteItems(_ context.Context, documentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[documentID]; ok {
		d.Items = nil
	}
	return nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, id int64, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return fmt.Errorf("document %d: %w", id, httpx.ErrNotFound)
	}
	d.Status = status
	d.UpdatedAt = m.tick()
	return nil
}

func (m *mockRepository) NextNumber(_ context.Context, companyID int64, docType billing.DocumentType, date time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := numberPrefixes[docType]
	key := fmt.Sprintf("%d|%s|%s", companyID, prefix, date.Format("200601"))
	m.sequences[key]++
	return FormatNumber(prefix, date, m.sequences[key]), nil
}

func (m *mockRepository) LoadSource(ctx context.Context, id int64) (billing.Source, error) {
	d, err := m.Get(ctx, id)
	if err != nil {
		return billing.Source{}, err
	}
	m.mu.Lock()
	m.loads++
	companyName := m.companyName
	m.mu.Unlock()

	src := billing.Source{
		Document: billing.Record{
			"type":             string(d.Type),
			"number":           d.Number,
			"issue_date":       d.IssueDate.Format("2006-01-02"),
			"reference":        d.Reference,
			"notes":            d.Notes,
			"currency":         d.Currency,
			"language":         d.Language,
			"discount_percent": d.DiscountPercent.String(),
		},
		Company: billing.Record{"name": companyName, "address_line1": "Hauptstr. 1", "city": "Berlin"},
		Client:  billing.Record{"company_name": "Globex", "city": "Hamburg"},
		Payment: billing.Record{"iban": "DE89370400440532013000"},
	}
	if d.DueDate != nil {
		src.Document["due_date"] = d.DueDate.Format("2006-01-02")
	}
	for _, it := range d.Items {
		src.Items = append(src.Items, billing.Record{
			"description":      it.Description,
			"unit":             it.Unit,
			"quantity":         it.Quantity.String(),
			"unit_price":       it.UnitPrice.String(),
			"discount_percent": it.DiscountPercent.String(),
			"tax_rate":         it.TaxRate.String(),
		})
	}
	return src, nil
}

func (m *mockRepository) MarkOverdue(_ context.Context, asOf time.Time) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for id, d := range m.docs {
		if d.Type == billing.DocumentTypeInvoice && d.Status == StatusSent && d.DueDate != nil && d.DueDate.Before(asOf) {
			d.Status = StatusOverdue
			d.UpdatedAt = m.tick()
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type productLookup map[int64]*products.Product

func (p productLookup) Get(_ context.Context, id int64) (*products.Product, error) {
	product, ok := p[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, httpx.ErrNotFound)
	}
	return product, nil
}

type companyLookup map[int64]*companies.Company

func (c companyLookup) Get(_ context.Context, id int64) (*companies.Company, error) {
	company, ok := c[id]
	if !ok {
		return nil, fmt.Errorf("company %d: %w", id, httpx.ErrNotFound)
	}
	return company, nil
}

type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]int64
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: make(map[string]int64)}
}

func (m *memoryIdempotency) CheckAndInsert(_ context.Context, key, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[module+"|"+key]; ok {
		return shared.ErrIdempotencyConflict
	}
	m.keys[module+"|"+key] = 0
	return nil
}

func (m *memoryIdempotency) Complete(_ context.Context, key, module string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[module+"|"+key] = id
	return nil
}

func (m *memoryIdempotency) Lookup(_ context.Context, key, module string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.keys[module+"|"+key]
	return id, ok && id > 0, nil
}

func (m *memoryIdempotency) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, idempotencyModule+"|"+key)
	return nil
}

type recorder struct {
	mu      sync.Mutex
	renders int
	hits    int
	misses  int
	sinks   map[string]int
}

func newRecorder() *recorder {
	return &recorder{sinks: make(map[string]int)}
}

func (r *recorder) ObserveRender(string, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders++
}

func (r *recorder) RenderCacheHit(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func (r *recorder) SinkOutcome(sink, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[sink+":"+outcome]++
}

func (r *recorder) sink(sink string, outcome export.Outcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sinks[sink+":"+string(outcome)]
}

type stubPDF struct {
	mu      sync.Mutex
	calls   int
	lastLen int
	block   chan struct{}
	err     error
}

func (s *stubPDF) RenderPDF(_ context.Context, _ billing.DocumentData, html string) ([]byte, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastLen = len(html)
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-stub"), nil
}

type fakeSharer struct {
	shared []export.Artifact
	err    error
}

func (f *fakeSharer) Share(_ context.Context, artifact export.Artifact) (export.ShareLink, error) {
	if f.err != nil {
		return export.ShareLink{}, f.err
	}
	f.shared = append(f.shared, artifact)
	return export.ShareLink{Key: "documents/" + artifact.Name, URL: "https://share.test/" + artifact.Name}, nil
}

type fakePrinter struct {
	jobs []export.Artifact
}

func (f *fakePrinter) Print(_ context.Context, artifact export.Artifact) error {
	f.jobs = append(f.jobs, artifact)
	return nil
}

func (f *fakePrinter) Name() string { return "fake" }

type fakeEnqueuer struct {
	requests []ExportRequest
}

func (f *fakeEnqueuer) EnqueueExport(_ context.Context, req ExportRequest) (string, error) {
	f.requests = append(f.requests, req)
	return fmt.Sprintf("task-%d", len(f.requests)), nil
}
