package billing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// CalculateLine returns the discount, tax and net amount of a single line.
// The net amount is quantity × unit price less the discount; tax is charged on
// the net amount.
func CalculateLine(quantity, unitPrice, discountPercent, taxRate decimal.Decimal) (discountAmount, taxAmount, lineAmount decimal.Decimal) {
	gross := quantity.Mul(unitPrice)
	discountAmount = gross.Mul(discountPercent).Div(hundred)
	lineAmount = gross.Sub(discountAmount)
	taxAmount = lineAmount.Mul(taxRate).Div(hundred)
	return
}

// ApplyDocumentDiscount returns a copy of items where every item without a
// discount of its own inherits the document-level discount percent.
func ApplyDocumentDiscount(items []LineItem, documentDiscountPercent decimal.Decimal) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	if documentDiscountPercent.IsZero() {
		return out
	}
	for i := range out {
		if out[i].DiscountPercent.IsZero() {
			out[i].DiscountPercent = documentDiscountPercent
		}
	}
	return out
}

// CalculateSummary derives the document totals. The subtotal is gross: it
// uses the original unit price so that discounts are only counted once, in
// TotalDiscount. Inputs are not validated and the total is not clamped; a
// discount above 100% yields a negative total.
func CalculateSummary(items []LineItem, documentDiscountPercent decimal.Decimal) DocumentSummary {
	var summary DocumentSummary
	for _, item := range ApplyDocumentDiscount(items, documentDiscountPercent) {
		discount, tax, _ := CalculateLine(item.Quantity, item.UnitPrice, item.DiscountPercent, item.TaxRate)
		summary.GrossSubtotal = summary.GrossSubtotal.Add(item.Gross())
		summary.TotalDiscount = summary.TotalDiscount.Add(discount)
		summary.Tax = summary.Tax.Add(tax)
	}
	summary.Total = summary.GrossSubtotal.Sub(summary.TotalDiscount).Add(summary.Tax)
	return summary
}
