package documents

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusConverted Status = "CONVERTED"
)

// transitions lists the allowed status changes per document type.
var transitions = map[billing.DocumentType]map[Status][]Status{
	billing.DocumentTypeInvoice: {
		StatusDraft:   {StatusSent, StatusCancelled},
		StatusSent:    {StatusPaid, StatusOverdue, StatusCancelled},
		StatusOverdue: {StatusPaid},
	},
	billing.DocumentTypeOffer: {
		StatusDraft:    {StatusSent},
		StatusSent:     {StatusAccepted, StatusRejected},
		StatusAccepted: {StatusConverted},
	},
}

// CanTransition reports whether a document of type t may move from one
// status to another.
func CanTransition(t billing.DocumentType, from, to Status) bool {
	for _, next := range transitions[t][from] {
		if next == to {
			return true
		}
	}
	return false
}

// Document is a stored invoice or offer. The money fields are a snapshot
// computed from the items when the document was last saved.
type Document struct {
	ID               int64                `json:"id"`
	CompanyID        int64                `json:"company_id"`
	ClientID         int64                `json:"client_id"`
	Type             billing.DocumentType `json:"type"`
	Number           string               `json:"number"`
	Status           Status               `json:"status"`
	IssueDate        time.Time            `json:"issue_date"`
	DueDate          *time.Time           `json:"due_date,omitempty"`
	Reference        string               `json:"reference"`
	Notes            string               `json:"notes"`
	PaymentTerms     string               `json:"payment_terms"`
	Currency         string               `json:"currency"`
	Language         string               `json:"language"`
	Template         string               `json:"template"`
	DiscountPercent  decimal.Decimal      `json:"discount_percent"`
	Subtotal         decimal.Decimal      `json:"subtotal"`
	DiscountTotal    decimal.Decimal      `json:"discount_total"`
	TaxTotal         decimal.Decimal      `json:"tax_total"`
	Total            decimal.Decimal      `json:"total"`
	SourceDocumentID *int64               `json:"source_document_id,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	Items            []Item               `json:"items"`

	// Last change of the issuer and recipient rows; part of the render
	// cache key.
	CompanyUpdatedAt time.Time `json:"-"`
	ClientUpdatedAt  time.Time `json:"-"`
}

// Editable reports whether the document content may still change.
func (d Document) Editable() bool {
	return d.Status == StatusDraft
}

// Item is one stored document line. Amount and TaxAmount include any
// document-level discount that applied when the document was saved.
type Item struct {
	ID              int64           `json:"id"`
	DocumentID      int64           `json:"document_id"`
	ProductID       *int64          `json:"product_id,omitempty"`
	Position        int             `json:"position"`
	Description     string          `json:"description"`
	Unit            string          `json:"unit"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Amount          decimal.Decimal `json:"amount"`
}

// LineItem converts the stored item to the calculator's input.
func (i Item) LineItem() billing.LineItem {
	return billing.LineItem{
		Description:     i.Description,
		Unit:            i.Unit,
		Quantity:        i.Quantity,
		UnitPrice:       i.UnitPrice,
		DiscountPercent: i.DiscountPercent,
		TaxRate:         i.TaxRate,
	}
}
