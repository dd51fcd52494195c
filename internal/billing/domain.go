// Package billing holds the invoice/offer document model together with the
// pure transforms that turn persisted records into render-ready data:
// the totals calculator, the money formatter and the document assembler.
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType distinguishes invoices from offers. Both share one data shape.
type DocumentType string

const (
	DocumentTypeInvoice DocumentType = "invoice"
	DocumentTypeOffer   DocumentType = "offer"
)

// Valid reports whether the type is one of the known document types.
func (t DocumentType) Valid() bool {
	return t == DocumentTypeInvoice || t == DocumentTypeOffer
}

// LineItem is one row of a document.
type LineItem struct {
	Description     string
	Unit            string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	TaxRate         decimal.Decimal
}

// Gross is quantity × unit price before any discount.
func (l LineItem) Gross() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Discount is the absolute discount granted on the line.
func (l LineItem) Discount() decimal.Decimal {
	discount, _, _ := CalculateLine(l.Quantity, l.UnitPrice, l.DiscountPercent, l.TaxRate)
	return discount
}

// Amount is the line amount after the per-item discount, before tax.
func (l LineItem) Amount() decimal.Decimal {
	_, _, amount := CalculateLine(l.Quantity, l.UnitPrice, l.DiscountPercent, l.TaxRate)
	return amount
}

// Tax is the tax due on the discounted line amount.
func (l LineItem) Tax() decimal.Decimal {
	_, tax, _ := CalculateLine(l.Quantity, l.UnitPrice, l.DiscountPercent, l.TaxRate)
	return tax
}

// DocumentSummary is derived from the items and never edited directly.
type DocumentSummary struct {
	GrossSubtotal decimal.Decimal
	TotalDiscount decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
}

// NetSubtotal is the gross subtotal minus all discounts.
func (s DocumentSummary) NetSubtotal() decimal.Decimal {
	return s.GrossSubtotal.Sub(s.TotalDiscount)
}

// Party is the issuer or the recipient of a document.
type Party struct {
	DisplayName string
	ContactName string
	Address     string
	TaxID       string
	Email       string
	Phone       string
	Website     string
}

// Metadata carries the free-form document header and footer fields.
type Metadata struct {
	Type            DocumentType
	Number          string
	IssueDate       time.Time
	DueDate         time.Time
	Reference       string
	Notes           string
	PaymentTerms    string
	Currency        string
	Language        string
	DiscountPercent decimal.Decimal
}

// Payment describes how the recipient pays the issuer.
type Payment struct {
	BankName      string
	AccountHolder string
	IBAN          string
	BIC           string
	PaymentLink   string
}

// Empty reports whether no payment detail is set.
func (p Payment) Empty() bool {
	return p == Payment{}
}

// Images holds optional embedded images as data URIs.
type Images struct {
	Logo      string
	Signature string
	Stamp     string
}

// Warning records a source value that could not be used and was defaulted.
type Warning struct {
	Field   string
	Value   string
	Message string
}

// DocumentData is the normalised aggregate consumed by renderers. It is built
// per render or save and never persisted itself.
type DocumentData struct {
	Issuer    Party
	Recipient Party
	Items     []LineItem
	Summary   DocumentSummary
	Metadata  Metadata
	Payment   Payment
	Images    Images
	Warnings  []Warning
}

// TemplateConfig drives assembly defaults for a render.
type TemplateConfig struct {
	ID              string
	DefaultCurrency string
	DefaultLanguage string
	HideLogo        bool
	HideSignature   bool
	HideStamp       bool
}
