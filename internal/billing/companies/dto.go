package companies

type CreateCompanyRequest struct {
	Code            string `json:"code" validate:"required,max=50"`
	Name            string `json:"name" validate:"required,max=200"`
	ContactName     string `json:"contact_name" validate:"max=200"`
	AddressLine1    string `json:"address_line1" validate:"max=200"`
	AddressLine2    string `json:"address_line2" validate:"max=200"`
	PostalCode      string `json:"postal_code" validate:"max=20"`
	City            string `json:"city" validate:"max=100"`
	Country         string `json:"country" validate:"max=100"`
	TaxID           string `json:"tax_id" validate:"max=50"`
	Email           string `json:"email" validate:"omitempty,email"`
	Phone           string `json:"phone" validate:"max=50"`
	Website         string `json:"website" validate:"omitempty,url"`
	BankName        string `json:"bank_name" validate:"max=200"`
	AccountHolder   string `json:"account_holder" validate:"max=200"`
	IBAN            string `json:"iban" validate:"max=34"`
	BIC             string `json:"bic" validate:"max=11"`
	PaymentLink     string `json:"payment_link" validate:"omitempty,url"`
	Logo            string `json:"logo" validate:"omitempty,startswith=data:image/"`
	Signature       string `json:"signature" validate:"omitempty,startswith=data:image/"`
	Stamp           string `json:"stamp" validate:"omitempty,startswith=data:image/"`
	DefaultCurrency string `json:"default_currency" validate:"omitempty,currency"`
	DefaultLanguage string `json:"default_language" validate:"omitempty,language"`
}

type UpdateCompanyRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,max=200"`
	ContactName     *string `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	AddressLine1    *string `json:"address_line1,omitempty" validate:"omitempty,max=200"`
	AddressLine2    *string `json:"address_line2,omitempty" validate:"omitempty,max=200"`
	PostalCode      *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	City            *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Country         *string `json:"country,omitempty" validate:"omitempty,max=100"`
	TaxID           *string `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone           *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Website         *string `json:"website,omitempty" validate:"omitempty,url"`
	BankName        *string `json:"bank_name,omitempty" validate:"omitempty,max=200"`
	AccountHolder   *string `json:"account_holder,omitempty" validate:"omitempty,max=200"`
	IBAN            *string `json:"iban,omitempty" validate:"omitempty,max=34"`
	BIC             *string `json:"bic,omitempty" validate:"omitempty,max=11"`
	PaymentLink     *string `json:"payment_link,omitempty" validate:"omitempty,url"`
	Logo            *string `json:"logo,omitempty" validate:"omitempty,startswith=data:image/"`
	Signature       *string `json:"signature,omitempty" validate:"omitempty,startswith=data:image/"`
	Stamp           *string `json:"stamp,omitempty" validate:"omitempty,startswith=data:image/"`
	DefaultCurrency *string `json:"default_currency,omitempty" validate:"omitempty,currency"`
	DefaultLanguage *string `json:"default_language,omitempty" validate:"omitempty,language"`
}
