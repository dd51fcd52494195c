package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/render"
)

const (
	summarySheet = "Document"
	itemsSheet   = "Items"
)

// BuildXLSX writes the document header and summary on one sheet and the line
// items on another. Amounts are stored as numbers so they stay editable.
func BuildXLSX(doc billing.DocumentData) ([]byte, error) {
	meta := doc.Metadata
	labels := render.LabelsFor(meta.Language)
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	rows := [][2]any{
		{labels.Title(meta.Type), meta.Number},
		{labels.IssueDate, dateCell(meta.IssueDate.IsZero(), meta.IssueDate.Format("2006-01-02"))},
		{labels.DueCaption(meta.Type), dateCell(meta.DueDate.IsZero(), meta.DueDate.Format("2006-01-02"))},
		{labels.From, doc.Issuer.DisplayName},
		{labels.BillTo, doc.Recipient.DisplayName},
		{"Currency", meta.Currency},
		{labels.Subtotal, doc.Summary.GrossSubtotal.InexactFloat64()},
		{labels.Discount, doc.Summary.TotalDiscount.InexactFloat64()},
		{labels.Tax, doc.Summary.Tax.InexactFloat64()},
		{labels.Total, doc.Summary.Total.InexactFloat64()},
	}
	for i, row := range rows {
		r := i + 1
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", r), row[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", r), row[1])
	}
	_ = f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), bold)
	_ = f.SetColWidth(summarySheet, "A", "B", 24)

	headers := []string{"#", labels.Description, labels.Quantity, labels.Unit, labels.UnitPrice, labels.Discount + " %", labels.Tax + " %", labels.Amount}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(itemsSheet, cell, h)
	}
	_ = f.SetCellStyle(itemsSheet, "A1", "H1", bold)
	_ = f.SetColWidth(itemsSheet, "B", "B", 40)
	for i, item := range doc.Items {
		row := i + 2
		values := []any{
			i + 1,
			item.Description,
			item.Quantity.InexactFloat64(),
			item.Unit,
			item.UnitPrice.InexactFloat64(),
			item.DiscountPercent.InexactFloat64(),
			item.TaxRate.InexactFloat64(),
			item.Amount().Round(4).InexactFloat64(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(itemsSheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// XLSXArtifact builds the spreadsheet for doc.
func XLSXArtifact(doc billing.DocumentData) (Artifact, error) {
	data, err := BuildXLSX(doc)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Name: FileName(doc, "xlsx"), ContentType: ContentTypeXLSX, Data: data}, nil
}

func dateCell(zero bool, formatted string) any {
	if zero {
		return ""
	}
	return formatted
}
