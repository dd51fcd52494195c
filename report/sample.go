package report

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/render"
)

// Handler manages report endpoints.
type Handler struct {
	client   *Client
	registry *render.Registry
	logger   *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, registry *render.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{client: client, registry: registry, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/sample.html", h.sampleHTML)
	r.Post("/sample", h.sample)
}

// SampleSource is a small invoice used for smoke tests of the render chain.
func SampleSource(now time.Time) billing.Source {
	return billing.Source{
		Document: billing.Record{
			"type":          "invoice",
			"number":        "INV-SAMPLE-0001",
			"issue_date":    now.Format("2006-01-02"),
			"due_date":      now.AddDate(0, 0, 14).Format("2006-01-02"),
			"currency":      "EUR",
			"language":      "en",
			"notes":         "This is a sample document.",
			"payment_terms": "Payable within 14 days.",
		},
		Company: billing.Record{
			"company_name":  "Odyssey Invoicing",
			"address_line1": "1 Sample Street",
			"postal_code":   "10115",
			"city":          "Berlin",
			"country":       "Germany",
			"bank_name":     "Sample Bank",
			"iban":          "DE89 3704 0044 0532 0130 00",
		},
		Client: billing.Record{
			"company_name": "Example Customer",
			"contact_name": "Alex Example",
			"city":         "Hamburg",
		},
		Items: []billing.Record{
			{"description": "Consulting", "unit": "h", "quantity": "2", "unit_price": "100", "discount_percent": "10", "tax_rate": "20"},
			{"description": "Support plan", "quantity": "1", "unit_price": "49.90", "tax_rate": "20"},
		},
	}
}

func (h *Handler) sampleDocument() (string, error) {
	doc := billing.Assemble(SampleSource(time.Now()), billing.TemplateConfig{DefaultCurrency: billing.DefaultCurrency})
	return h.registry.RenderString(render.DefaultTemplate, doc, render.DefaultTheme())
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) sampleHTML(w http.ResponseWriter, r *http.Request) {
	html, err := h.sampleDocument()
	if err != nil {
		h.logger.Error("render sample html", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (h *Handler) sample(w http.ResponseWriter, r *http.Request) {
	html, err := h.sampleDocument()
	if err != nil {
		h.logger.Error("render sample html", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	pdf, err := h.client.RenderHTML(r.Context(), html, A4())
	if err != nil {
		h.logger.Error("render sample pdf", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=sample.pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
