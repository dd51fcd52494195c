package documents

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/httpx"
)

var hundred = decimal.NewFromInt(100)

func validatePercent(field string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return httpx.FieldError(field, "must be between 0 and 100")
	}
	return nil
}

func validateDates(issue time.Time, due *time.Time) error {
	if due != nil && !issue.IsZero() && due.Before(issue) {
		return httpx.FieldError("due_date", "must not be before issue_date")
	}
	return nil
}

func validateItems(items []Item) error {
	fields := make(map[string]string)
	for i, item := range items {
		prefix := fmt.Sprintf("items[%d].", i)
		if item.Description == "" {
			fields[prefix+"description"] = "is required"
		}
		if err := validatePercent("discount_percent", item.DiscountPercent); err != nil {
			fields[prefix+"discount_percent"] = "must be between 0 and 100"
		}
		if err := validatePercent("tax_rate", item.TaxRate); err != nil {
			fields[prefix+"tax_rate"] = "must be between 0 and 100"
		}
	}
	if len(fields) > 0 {
		return &httpx.ValidationError{Fields: fields}
	}
	return nil
}
