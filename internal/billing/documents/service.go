package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/companies"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/export"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/products"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/render"
	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-invoicing/internal/shared"
)

var (
	ErrInvalidStatus = fmt.Errorf("%w: invalid status transition", httpx.ErrConflict)
	ErrNotEditable   = fmt.Errorf("%w: only DRAFT documents can be edited", httpx.ErrConflict)
)

const idempotencyModule = "documents.create"

// ProductLookup resolves catalogue entries referenced by items.
type ProductLookup interface {
	Get(ctx context.Context, id int64) (*products.Product, error)
}

// CompanyLookup resolves the issuing company of a new document.
type CompanyLookup interface {
	Get(ctx context.Context, id int64) (*companies.Company, error)
}

// HTMLCache stores rendered HTML. *cache.Store satisfies it.
type HTMLCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Recorder receives render and sink metrics. *observability.Metrics
// satisfies it.
type Recorder interface {
	ObserveRender(template string, elapsed time.Duration)
	RenderCacheHit(hit bool)
	SinkOutcome(sink, outcome string)
}

// Sharer uploads an artifact and returns a download link.
type Sharer interface {
	Share(ctx context.Context, artifact export.Artifact) (export.ShareLink, error)
}

// Idempotency remembers which document a create request produced.
type Idempotency interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Complete(ctx context.Context, key, module string, resourceID int64) error
	Lookup(ctx context.Context, key, module string) (int64, bool, error)
	Delete(ctx context.Context, key string) error
}

// Enqueuer schedules background exports.
type Enqueuer interface {
	EnqueueExport(ctx context.Context, req ExportRequest) (string, error)
}

// Config holds the rendering defaults.
type Config struct {
	DefaultCurrency string
	DefaultLanguage string
	DefaultTemplate string
	Theme           render.Theme
	CacheTTL        time.Duration
	PaymentTermDays int
}

// Dependencies are the collaborators of the service. Only Repo and Registry
// are required; a missing sink makes its operation report ErrUnavailable.
type Dependencies struct {
	Repo        Repository
	Products    ProductLookup
	Companies   CompanyLookup
	Registry    *render.Registry
	Cache       HTMLCache
	PDF         export.PDFRenderer
	Share       Sharer
	Printer     export.Printer
	Idempotency Idempotency
	Enqueuer    Enqueuer
	Metrics     Recorder
	Logger      *slog.Logger
}

type Service struct {
	cfg         Config
	repo        Repository
	products    ProductLookup
	companies   CompanyLookup
	registry    *render.Registry
	cache       HTMLCache
	pdf         export.PDFRenderer
	share       Sharer
	printer     export.Printer
	idempotency Idempotency
	enqueuer    Enqueuer
	metrics     Recorder
	logger      *slog.Logger
	flight      singleflight.Group
	now         func() time.Time
}

func NewService(cfg Config, deps Dependencies) *Service {
	if cfg.DefaultTemplate == "" {
		cfg.DefaultTemplate = render.DefaultTemplate
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = billing.DefaultCurrency
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = billing.DefaultLanguage
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.PaymentTermDays <= 0 {
		cfg.PaymentTermDays = 14
	}
	if cfg.Theme == (render.Theme{}) {
		cfg.Theme = render.DefaultTheme()
	}
	registry := deps.Registry
	if registry == nil {
		registry = render.NewRegistry()
	}
	var metrics Recorder = noopRecorder{}
	if deps.Metrics != nil {
		metrics = deps.Metrics
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:         cfg,
		repo:        deps.Repo,
		products:    deps.Products,
		companies:   deps.Companies,
		registry:    registry,
		cache:       deps.Cache,
		pdf:         deps.PDF,
		share:       deps.Share,
		printer:     deps.Printer,
		idempotency: deps.Idempotency,
		enqueuer:    deps.Enqueuer,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*Document, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error) {
	req.Params = req.Params.Normalize()
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreateDocumentRequest) (*Document, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	if err := validatePercent("discount_percent", req.DiscountPercent); err != nil {
		return nil, err
	}
	currencyCode, languageCode, err := s.companyDefaults(ctx, req)
	if err != nil {
		return nil, err
	}

	doc := Document{
		CompanyID:       req.CompanyID,
		ClientID:        req.ClientID,
		Type:            req.Type,
		Status:          StatusDraft,
		IssueDate:       dateOnly(req.IssueDate),
		DueDate:         req.DueDate,
		Reference:       strings.TrimSpace(req.Reference),
		Notes:           req.Notes,
		PaymentTerms:    req.PaymentTerms,
		Currency:        billing.NormalizeCurrency(currencyCode, s.cfg.DefaultCurrency),
		Language:        s.language(languageCode),
		DiscountPercent: req.DiscountPercent,
	}
	if doc.IssueDate.IsZero() {
		doc.IssueDate = dateOnly(s.now())
	}
	if doc.DueDate != nil {
		due := dateOnly(*doc.DueDate)
		doc.DueDate = &due
	} else if doc.Type == billing.DocumentTypeInvoice {
		due := doc.IssueDate.AddDate(0, 0, s.cfg.PaymentTermDays)
		doc.DueDate = &due
	}
	if err := validateDates(doc.IssueDate, doc.DueDate); err != nil {
		return nil, err
	}
	template, err := s.resolveTemplate(req.Template, "")
	if err != nil {
		return nil, err
	}
	doc.Template = template

	items, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}
	applyTotals(&doc, items)

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.NextNumber(ctx, doc.CompanyID, doc.Type, doc.IssueDate)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
		id, err = repo.Create(ctx, doc)
		if err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		return insertItems(ctx, repo, id, doc.Items)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("document created", slog.Int64("id", id), slog.String("number", doc.Number), slog.String("type", string(doc.Type)))
	return s.repo.Get(ctx, id)
}

// CreateIdempotent creates a document once per key. A repeated key returns
// the document of the first request with created=false.
func (s *Service) CreateIdempotent(ctx context.Context, key string, req CreateDocumentRequest) (doc *Document, created bool, err error) {
	if key == "" || s.idempotency == nil {
		doc, err = s.Create(ctx, req)
		return doc, err == nil, err
	}
	id, ok, err := s.idempotency.Lookup(ctx, key, idempotencyModule)
	if err != nil {
		return nil, false, err
	}
	if ok {
		doc, err = s.repo.Get(ctx, id)
		return doc, false, err
	}
	if err := s.idempotency.CheckAndInsert(ctx, key, idempotencyModule); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return nil, false, fmt.Errorf("%w: a request with this idempotency key is in progress", httpx.ErrConflict)
		}
		return nil, false, err
	}
	doc, err = s.Create(ctx, req)
	if err != nil {
		if delErr := s.idempotency.Delete(ctx, key); delErr != nil {
			s.logger.Warn("release idempotency key", slog.Any("error", delErr))
		}
		return nil, false, err
	}
	if err := s.idempotency.Complete(ctx, key, idempotencyModule, doc.ID); err != nil {
		s.logger.Warn("complete idempotency key", slog.Any("error", err), slog.Int64("id", doc.ID))
	}
	return doc, true, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateDocumentRequest) (*Document, error) {
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.Editable() {
		return nil, ErrNotEditable
	}

	updates := make(map[string]interface{})
	issue, due := existing.IssueDate, existing.DueDate
	if req.ClientID != nil {
		updates["client_id"] = *req.ClientID
	}
	if req.IssueDate != nil {
		issue = dateOnly(*req.IssueDate)
		updates["issue_date"] = issue
	}
	if req.DueDate != nil {
		d := dateOnly(*req.DueDate)
		due = &d
		updates["due_date"] = d
	}
	if err := validateDates(issue, due); err != nil {
		return nil, err
	}
	if req.Reference != nil {
		updates["reference"] = strings.TrimSpace(*req.Reference)
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.PaymentTerms != nil {
		updates["payment_terms"] = *req.PaymentTerms
	}
	if req.Currency != nil {
		updates["currency"] = billing.NormalizeCurrency(*req.Currency, s.cfg.DefaultCurrency)
	}
	if req.Language != nil {
		updates["language"] = s.language(*req.Language)
	}
	if req.Template != nil {
		template, err := s.resolveTemplate(*req.Template, "")
		if err != nil {
			return nil, err
		}
		updates["template"] = template
	}

	var replaceItems bool
	doc := *existing
	if req.DiscountPercent != nil {
		if err := validatePercent("discount_percent", *req.DiscountPercent); err != nil {
			return nil, err
		}
		doc.DiscountPercent = *req.DiscountPercent
		updates["discount_percent"] = doc.DiscountPercent
	}
	if req.Items != nil || req.DiscountPercent != nil {
		items := append([]Item(nil), existing.Items...)
		if req.Items != nil {
			items, err = s.resolveItems(ctx, *req.Items)
			if err != nil {
				return nil, err
			}
			if err := validateItems(items); err != nil {
				return nil, err
			}
		}
		applyTotals(&doc, items)
		updates["subtotal"] = doc.Subtotal
		updates["discount_total"] = doc.DiscountTotal
		updates["tax_total"] = doc.TaxTotal
		updates["total"] = doc.Total
		replaceItems = true
	}

	if len(updates) == 0 {
		return existing, nil
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, id, updates); err != nil {
			return err
		}
		if !replaceItems {
			return nil
		}
		if err := repo.DeleteItems(ctx, id); err != nil {
			return err
		}
		return insertItems(ctx, repo, id, doc.Items)
	})
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	s.invalidate(ctx, id)
	return s.repo.Get(ctx, id)
}

// ChangeStatus moves a document along its workflow. CONVERTED is reached via
// Convert and OVERDUE via the overdue sweep only.
func (s *Service) ChangeStatus(ctx context.Context, id int64, to Status) (*Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch to {
	case StatusConverted:
		return nil, fmt.Errorf("%w: use convert to turn an offer into an invoice", ErrInvalidStatus)
	case StatusOverdue:
		return nil, fmt.Errorf("%w: invoices become OVERDUE automatically", ErrInvalidStatus)
	}
	if !CanTransition(doc.Type, doc.Status, to) {
		return nil, fmt.Errorf("%w: %s %s cannot move from %s to %s", ErrInvalidStatus, doc.Type, doc.Number, doc.Status, to)
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	s.logger.Info("document status changed", slog.Int64("id", id), slog.String("from", string(doc.Status)), slog.String("to", string(to)))
	return s.repo.Get(ctx, id)
}

// Convert creates a draft invoice from an accepted offer and marks the offer
// CONVERTED.
func (s *Service) Convert(ctx context.Context, offerID int64) (*Document, error) {
	offer, err := s.repo.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Type != billing.DocumentTypeOffer {
		return nil, fmt.Errorf("%w: only offers can be converted", ErrInvalidStatus)
	}
	if !CanTransition(offer.Type, offer.Status, StatusConverted) {
		return nil, fmt.Errorf("%w: offer %s is %s, not ACCEPTED", ErrInvalidStatus, offer.Number, offer.Status)
	}

	invoice := *offer
	invoice.ID = 0
	invoice.Type = billing.DocumentTypeInvoice
	invoice.Status = StatusDraft
	invoice.IssueDate = dateOnly(s.now())
	due := invoice.IssueDate.AddDate(0, 0, s.cfg.PaymentTermDays)
	invoice.DueDate = &due
	invoice.SourceDocumentID = &offer.ID
	invoice.Items = make([]Item, len(offer.Items))
	for i, item := range offer.Items {
		item.ID = 0
		invoice.Items[i] = item
	}
	applyTotals(&invoice, invoice.Items)

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.NextNumber(ctx, invoice.CompanyID, invoice.Type, invoice.IssueDate)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		invoice.Number = number
		id, err = repo.Create(ctx, invoice)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		if err := insertItems(ctx, repo, id, invoice.Items); err != nil {
			return err
		}
		return repo.UpdateStatus(ctx, offer.ID, StatusConverted)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("offer converted", slog.Int64("offer_id", offer.ID), slog.Int64("invoice_id", id), slog.String("number", invoice.Number))
	return s.repo.Get(ctx, id)
}

// MarkOverdue flags every sent invoice due before asOf and returns the ids.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) ([]int64, error) {
	ids, err := s.repo.MarkOverdue(ctx, dateOnly(asOf))
	if err != nil {
		return nil, fmt.Errorf("mark overdue: %w", err)
	}
	for _, id := range ids {
		s.invalidate(ctx, id)
	}
	return ids, nil
}

// companyDefaults fills a missing currency or language from the issuing
// company. Whatever is still empty falls back to the service config.
func (s *Service) companyDefaults(ctx context.Context, req CreateDocumentRequest) (string, string, error) {
	currencyCode, languageCode := strings.TrimSpace(req.Currency), strings.TrimSpace(req.Language)
	if s.companies == nil || (currencyCode != "" && languageCode != "") {
		return currencyCode, languageCode, nil
	}
	company, err := s.companies.Get(ctx, req.CompanyID)
	if errors.Is(err, httpx.ErrNotFound) {
		return "", "", httpx.FieldError("company_id", "does not exist")
	}
	if err != nil {
		return "", "", fmt.Errorf("load company: %w", err)
	}
	if currencyCode == "" {
		currencyCode = company.DefaultCurrency
	}
	if languageCode == "" {
		languageCode = company.DefaultLanguage
	}
	return currencyCode, languageCode, nil
}

func (s *Service) resolveItems(ctx context.Context, reqs []ItemRequest) ([]Item, error) {
	items := make([]Item, 0, len(reqs))
	for i, req := range reqs {
		item := Item{
			ProductID:       req.ProductID,
			Description:     strings.TrimSpace(req.Description),
			Unit:            strings.TrimSpace(req.Unit),
			Quantity:        req.Quantity,
			DiscountPercent: req.DiscountPercent,
		}
		if req.UnitPrice != nil {
			item.UnitPrice = *req.UnitPrice
		}
		if req.TaxRate != nil {
			item.TaxRate = *req.TaxRate
		}
		if req.ProductID != nil && s.products != nil {
			product, err := s.products.Get(ctx, *req.ProductID)
			if errors.Is(err, httpx.ErrNotFound) {
				return nil, httpx.FieldError(fmt.Sprintf("items[%d].product_id", i), "does not exist")
			}
			if err != nil {
				return nil, fmt.Errorf("load product: %w", err)
			}
			if item.Description == "" {
				item.Description = product.Name
			}
			if item.Unit == "" {
				item.Unit = product.Unit
			}
			if req.UnitPrice == nil {
				item.UnitPrice = product.UnitPrice
			}
			if req.TaxRate == nil {
				item.TaxRate = product.TaxRate
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// applyTotals stores the calculator's results on the document and its items.
func applyTotals(doc *Document, items []Item) {
	lines := make([]billing.LineItem, len(items))
	for i, item := range items {
		lines[i] = item.LineItem()
	}
	effective := billing.ApplyDocumentDiscount(lines, doc.DiscountPercent)
	for i := range items {
		l := effective[i]
		_, tax, amount := billing.CalculateLine(l.Quantity, l.UnitPrice, l.DiscountPercent, l.TaxRate)
		items[i].Position = i + 1
		items[i].TaxAmount = tax
		items[i].Amount = amount
	}
	summary := billing.CalculateSummary(lines, doc.DiscountPercent)
	doc.Subtotal = summary.GrossSubtotal
	doc.DiscountTotal = summary.TotalDiscount
	doc.TaxTotal = summary.Tax
	doc.Total = summary.Total
	doc.Items = items
}

func insertItems(ctx context.Context, repo Repository, documentID int64, items []Item) error {
	for _, item := range items {
		item.DocumentID = documentID
		if _, err := repo.InsertItem(ctx, item); err != nil {
			return fmt.Errorf("insert item %d: %w", item.Position, err)
		}
	}
	return nil
}

func (s *Service) language(code string) string {
	if strings.TrimSpace(code) == "" {
		code = s.cfg.DefaultLanguage
	}
	return billing.MatchLanguage(code).String()
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type noopRecorder struct{}

func (noopRecorder) ObserveRender(string, time.Duration) {}
func (noopRecorder) RenderCacheHit(bool)                 {}
func (noopRecorder) SinkOutcome(string, string)          {}
