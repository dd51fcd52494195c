package documents

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/render"
	"github.com/odyssey-erp/odyssey-invoicing/internal/shared"
)

type CreateDocumentRequest struct {
	CompanyID       int64                `json:"company_id" validate:"required,gt=0"`
	ClientID        int64                `json:"client_id" validate:"required,gt=0"`
	Type            billing.DocumentType `json:"type" validate:"required,oneof=invoice offer"`
	IssueDate       time.Time            `json:"issue_date"`
	DueDate         *time.Time           `json:"due_date,omitempty"`
	Reference       string               `json:"reference" validate:"max=100"`
	Notes           string               `json:"notes" validate:"max=4000"`
	PaymentTerms    string               `json:"payment_terms" validate:"max=1000"`
	Currency        string               `json:"currency" validate:"omitempty,currency"`
	Language        string               `json:"language" validate:"omitempty,language"`
	Template        string               `json:"template" validate:"max=50"`
	DiscountPercent decimal.Decimal      `json:"discount_percent"`
	Items           []ItemRequest        `json:"items" validate:"dive"`
}

type UpdateDocumentRequest struct {
	ClientID        *int64           `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	IssueDate       *time.Time       `json:"issue_date,omitempty"`
	DueDate         *time.Time       `json:"due_date,omitempty"`
	Reference       *string          `json:"reference,omitempty" validate:"omitempty,max=100"`
	Notes           *string          `json:"notes,omitempty" validate:"omitempty,max=4000"`
	PaymentTerms    *string          `json:"payment_terms,omitempty" validate:"omitempty,max=1000"`
	Currency        *string          `json:"currency,omitempty" validate:"omitempty,currency"`
	Language        *string          `json:"language,omitempty" validate:"omitempty,language"`
	Template        *string          `json:"template,omitempty" validate:"omitempty,max=50"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	Items           *[]ItemRequest   `json:"items,omitempty" validate:"omitempty,dive"`
}

// ItemRequest is one line of a create or update. When ProductID is set,
// blank description and unit and a missing price or tax rate are taken from
// the product.
type ItemRequest struct {
	ProductID       *int64           `json:"product_id,omitempty" validate:"omitempty,gt=0"`
	Description     string           `json:"description" validate:"max=1000"`
	Unit            string           `json:"unit" validate:"max=20"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price,omitempty"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	TaxRate         *decimal.Decimal `json:"tax_rate,omitempty"`
}

type ListDocumentsRequest struct {
	CompanyID int64
	ClientID  int64
	Type      billing.DocumentType
	Status    Status
	Params    shared.ListParams
}

type StatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

// RenderOptions selects the template and theme of a render. Empty values
// fall back to the document's template and the configured theme.
type RenderOptions struct {
	Template string        `json:"template"`
	Theme    *render.Theme `json:"theme,omitempty"`
}

// RenderRequest renders raw records without persisting anything.
type RenderRequest struct {
	Source        billing.Source `json:"source"`
	Template      string         `json:"template"`
	Theme         *render.Theme  `json:"theme,omitempty"`
	HideLogo      bool           `json:"hide_logo"`
	HideSignature bool           `json:"hide_signature"`
	HideStamp     bool           `json:"hide_stamp"`
}

// ExportRequest describes a background export of a stored document.
type ExportRequest struct {
	DocumentID int64         `json:"document_id"`
	Template   string        `json:"template,omitempty"`
	Theme      *render.Theme `json:"theme,omitempty"`
	Share      bool          `json:"share"`
	Print      bool          `json:"print"`
}
