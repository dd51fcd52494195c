package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalogue entry whose price, unit and tax rate prefill
// document items.
type Product struct {
	ID          int64           `json:"id"`
	CompanyID   int64           `json:"company_id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
