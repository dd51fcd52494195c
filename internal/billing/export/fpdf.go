package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/render"
)

// FallbackPDF lays a document out directly with gofpdf. It ignores the HTML
// and draws from the structured data, so it works without Chromium. Images
// are not embedded.
type FallbackPDF struct{}

// RenderPDF implements PDFRenderer.
func (FallbackPDF) RenderPDF(ctx context.Context, doc billing.DocumentData, _ string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return BuildPDF(doc)
}

// BuildPDF renders a one-column A4 PDF for doc.
func BuildPDF(doc billing.DocumentData) ([]byte, error) {
	meta := doc.Metadata
	f := billing.NewFormatter(meta.Currency, meta.Language)
	labels := render.LabelsFor(meta.Language)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(labels.Title(meta.Type)+" "+meta.Number, true)
	pdf.SetCreator("odyssey-invoicing", true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, tr(labels.Title(meta.Type)))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	line := func(label, value string) {
		if value == "" {
			return
		}
		pdf.Cell(0, 5, tr(fmt.Sprintf("%s: %s", label, value)))
		pdf.Ln(5)
	}
	line(labels.Number, meta.Number)
	line(labels.IssueDate, f.Date(meta.IssueDate))
	line(labels.DueCaption(meta.Type), f.Date(meta.DueDate))
	line(labels.Reference, meta.Reference)
	pdf.Ln(4)

	party := func(caption string, p billing.Party) {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 5, tr(caption))
		pdf.Ln(5)
		pdf.SetFont("Arial", "", 10)
		for _, v := range []string{p.DisplayName, p.ContactName, p.Address, p.Email, p.Phone} {
			if v != "" {
				pdf.Cell(0, 5, tr(v))
				pdf.Ln(5)
			}
		}
		if p.TaxID != "" {
			pdf.Cell(0, 5, tr(labels.TaxID+": "+p.TaxID))
			pdf.Ln(5)
		}
		pdf.Ln(3)
	}
	party(labels.From, doc.Issuer)
	party(labels.BillTo, doc.Recipient)

	widths := []float64{80, 20, 30, 20, 30}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range []string{labels.Description, labels.Quantity, labels.UnitPrice, labels.Tax, labels.Amount} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, item := range doc.Items {
		cells := []string{item.Description, f.Quantity(item.Quantity), f.Amount(item.UnitPrice), f.Percent(item.TaxRate), f.Amount(item.Amount())}
		for i, c := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, tr(c), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	total := func(label string, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(130, 6, tr(label), "", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, tr(value), "", 1, "R", false, 0, "")
	}
	total(labels.Subtotal, f.Money(doc.Summary.GrossSubtotal), false)
	if doc.Summary.TotalDiscount.IsPositive() {
		total(labels.Discount, f.Money(doc.Summary.TotalDiscount.Neg()), false)
	}
	if doc.Summary.Tax.IsPositive() {
		total(labels.Tax, f.Money(doc.Summary.Tax), false)
	}
	total(labels.Total, f.Money(doc.Summary.Total), true)

	pdf.SetFont("Arial", "", 10)
	for _, block := range [][2]string{{labels.Notes, meta.Notes}, {labels.PaymentTerms, meta.PaymentTerms}} {
		if block[1] == "" {
			continue
		}
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 5, tr(block[0]))
		pdf.Ln(5)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, tr(block[1]), "", "L", false)
	}
	if !doc.Payment.Empty() {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 5, tr(labels.Payment))
		pdf.Ln(5)
		pdf.SetFont("Arial", "", 10)
		line(labels.Bank, doc.Payment.BankName)
		line(labels.Holder, doc.Payment.AccountHolder)
		line(labels.IBAN, doc.Payment.IBAN)
		line(labels.BIC, doc.Payment.BIC)
		line(labels.PayOnline, doc.Payment.PaymentLink)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
