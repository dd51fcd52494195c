package products

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/httpx"
)

var hundred = decimal.NewFromInt(100)

func validatePrice(v decimal.Decimal) error {
	if v.IsNegative() {
		return httpx.FieldError("unit_price", "must not be negative")
	}
	return nil
}

func validateTaxRate(v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return httpx.FieldError("tax_rate", "must be between 0 and 100")
	}
	return nil
}
