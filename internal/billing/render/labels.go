package render

import (
	"golang.org/x/text/language"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
)

// Labels are the fixed captions of a document.
type Labels struct {
	Invoice      string
	Offer        string
	Number       string
	IssueDate    string
	DueDate      string
	ValidUntil   string
	Reference    string
	BillTo       string
	From         string
	TaxID        string
	Description  string
	Quantity     string
	Unit         string
	UnitPrice    string
	Discount     string
	Tax          string
	Amount       string
	Subtotal     string
	Total        string
	Notes        string
	PaymentTerms string
	Payment      string
	Bank         string
	Holder       string
	IBAN         string
	BIC          string
	PayOnline    string
	Signature    string
}

var englishLabels = Labels{
	Invoice:      "Invoice",
	Offer:        "Offer",
	Number:       "Number",
	IssueDate:    "Issue date",
	DueDate:      "Due date",
	ValidUntil:   "Valid until",
	Reference:    "Reference",
	BillTo:       "Bill to",
	From:         "From",
	TaxID:        "Tax ID",
	Description:  "Description",
	Quantity:     "Qty",
	Unit:         "Unit",
	UnitPrice:    "Unit price",
	Discount:     "Discount",
	Tax:          "Tax",
	Amount:       "Amount",
	Subtotal:     "Subtotal",
	Total:        "Total",
	Notes:        "Notes",
	PaymentTerms: "Payment terms",
	Payment:      "Payment details",
	Bank:         "Bank",
	Holder:       "Account holder",
	IBAN:         "IBAN",
	BIC:          "BIC",
	PayOnline:    "Pay online",
	Signature:    "Signature",
}

var germanLabels = Labels{
	Invoice:      "Rechnung",
	Offer:        "Angebot",
	Number:       "Nummer",
	IssueDate:    "Datum",
	DueDate:      "Fällig am",
	ValidUntil:   "Gültig bis",
	Reference:    "Referenz",
	BillTo:       "Empfänger",
	From:         "Absender",
	TaxID:        "USt-IdNr.",
	Description:  "Beschreibung",
	Quantity:     "Menge",
	Unit:         "Einheit",
	UnitPrice:    "Einzelpreis",
	Discount:     "Rabatt",
	Tax:          "MwSt.",
	Amount:       "Betrag",
	Subtotal:     "Zwischensumme",
	Total:        "Gesamt",
	Notes:        "Anmerkungen",
	PaymentTerms: "Zahlungsbedingungen",
	Payment:      "Zahlungsinformationen",
	Bank:         "Bank",
	Holder:       "Kontoinhaber",
	IBAN:         "IBAN",
	BIC:          "BIC",
	PayOnline:    "Online bezahlen",
	Signature:    "Unterschrift",
}

// LabelsFor returns the captions for a language code.
func LabelsFor(code string) Labels {
	if billing.MatchLanguage(code) == language.German {
		return germanLabels
	}
	return englishLabels
}

// Title is the caption for a document type.
func (l Labels) Title(t billing.DocumentType) string {
	if t == billing.DocumentTypeOffer {
		return l.Offer
	}
	return l.Invoice
}

// DueCaption is the caption of the due date row for a document type.
func (l Labels) DueCaption(t billing.DocumentType) string {
	if t == billing.DocumentTypeOffer {
		return l.ValidUntil
	}
	return l.DueDate
}
