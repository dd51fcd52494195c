package products

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-invoicing/internal/shared"
)

type CreateProductRequest struct {
	CompanyID   int64           `json:"company_id" validate:"required,gt=0"`
	SKU         string          `json:"sku" validate:"required,max=64"`
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Unit        string          `json:"unit" validate:"max=20"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Unit        *string          `json:"unit,omitempty" validate:"omitempty,max=20"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

type ListProductsRequest struct {
	CompanyID int64
	IsActive  *bool
	Params    shared.ListParams
}
