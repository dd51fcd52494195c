package companies

import "time"

// Company is an issuer profile: the business that sends invoices and offers,
// together with the payment details and images printed on its documents.
type Company struct {
	ID              int64     `json:"id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	ContactName     string    `json:"contact_name"`
	AddressLine1    string    `json:"address_line1"`
	AddressLine2    string    `json:"address_line2"`
	PostalCode      string    `json:"postal_code"`
	City            string    `json:"city"`
	Country         string    `json:"country"`
	TaxID           string    `json:"tax_id"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Website         string    `json:"website"`
	BankName        string    `json:"bank_name"`
	AccountHolder   string    `json:"account_holder"`
	IBAN            string    `json:"iban"`
	BIC             string    `json:"bic"`
	PaymentLink     string    `json:"payment_link"`
	Logo            string    `json:"logo,omitempty"`
	Signature       string    `json:"signature,omitempty"`
	Stamp           string    `json:"stamp,omitempty"`
	DefaultCurrency string    `json:"default_currency"`
	DefaultLanguage string    `json:"default_language"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
