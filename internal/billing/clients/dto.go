package clients

import "github.com/odyssey-erp/odyssey-invoicing/internal/shared"

type CreateClientRequest struct {
	CompanyID    int64  `json:"company_id" validate:"required,gt=0"`
	CompanyName  string `json:"company_name" validate:"max=200"`
	FirstName    string `json:"first_name" validate:"max=100"`
	LastName     string `json:"last_name" validate:"max=100"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"max=50"`
	Website      string `json:"website" validate:"omitempty,url"`
	AddressLine1 string `json:"address_line1" validate:"max=200"`
	AddressLine2 string `json:"address_line2" validate:"max=200"`
	PostalCode   string `json:"postal_code" validate:"max=20"`
	City         string `json:"city" validate:"max=100"`
	Country      string `json:"country" validate:"max=100"`
	TaxID        string `json:"tax_id" validate:"max=50"`
	Notes        string `json:"notes" validate:"max=2000"`
}

type UpdateClientRequest struct {
	CompanyName  *string `json:"company_name,omitempty" validate:"omitempty,max=200"`
	FirstName    *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName     *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Website      *string `json:"website,omitempty" validate:"omitempty,url"`
	AddressLine1 *string `json:"address_line1,omitempty" validate:"omitempty,max=200"`
	AddressLine2 *string `json:"address_line2,omitempty" validate:"omitempty,max=200"`
	PostalCode   *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	City         *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Country      *string `json:"country,omitempty" validate:"omitempty,max=100"`
	TaxID        *string `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

type ListClientsRequest struct {
	CompanyID int64
	IsActive  *bool
	Params    shared.ListParams
}
