package render

import (
	"html/template"
	"io"
	"strings"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
	"github.com/odyssey-erp/odyssey-invoicing/web"
)

var classicTemplate = template.Must(template.New("classic.html").ParseFS(web.Templates, "templates/documents/classic.html"))

type documentView struct {
	Lang         string
	Title        string
	L            Labels
	Theme        themeView
	Number       string
	IssueDate    string
	DueCaption   string
	DueDate      string
	Reference    string
	Issuer       partyView
	Recipient    partyView
	Items        []itemView
	ShowDiscount bool
	Subtotal     string
	Discount     string
	Tax          string
	Total        string
	HasDiscount  bool
	HasTax       bool
	Notes        string
	PaymentTerms string
	Payment      billing.Payment
	HasPayment   bool
	Logo         template.URL
	Signature    template.URL
	Stamp        template.URL
}

type themeView struct {
	Primary template.CSS
	Accent  template.CSS
	Text    template.CSS
	Font    template.CSS
}

type partyView struct {
	Name       string
	Contact    string
	Address    string
	TaxIDLabel string
	TaxID      string
	Email      string
	Phone      string
	Website    string
}

type itemView struct {
	Position    int
	Description string
	Quantity    string
	Unit        string
	UnitPrice   string
	Discount    string
	Tax         string
	Amount      string
}

// RenderClassic is the built-in single-page layout. All text is escaped by
// html/template; images are embedded only when given as data:image URIs.
func RenderClassic(w io.Writer, doc billing.DocumentData, theme Theme) error {
	return classicTemplate.Execute(w, newDocumentView(doc, theme.Sanitize()))
}

func newDocumentView(doc billing.DocumentData, theme Theme) documentView {
	meta := doc.Metadata
	f := billing.NewFormatter(meta.Currency, meta.Language)
	labels := LabelsFor(meta.Language)

	view := documentView{
		Lang:  f.Language().String(),
		Title: labels.Title(meta.Type),
		L:     labels,
		Theme: themeView{
			Primary: template.CSS(theme.PrimaryColor),
			Accent:  template.CSS(theme.AccentColor),
			Text:    template.CSS(theme.TextColor),
			Font:    template.CSS(theme.FontFamily),
		},
		Number:       meta.Number,
		IssueDate:    f.Date(meta.IssueDate),
		DueCaption:   labels.DueCaption(meta.Type),
		DueDate:      f.Date(meta.DueDate),
		Reference:    meta.Reference,
		Issuer:       newPartyView(doc.Issuer, labels),
		Recipient:    newPartyView(doc.Recipient, labels),
		Items:        make([]itemView, 0, len(doc.Items)),
		Subtotal:     f.Money(doc.Summary.GrossSubtotal),
		Discount:     f.Money(doc.Summary.TotalDiscount.Neg()),
		Tax:          f.Money(doc.Summary.Tax),
		Total:        f.Money(doc.Summary.Total),
		HasDiscount:  doc.Summary.TotalDiscount.IsPositive(),
		HasTax:       doc.Summary.Tax.IsPositive(),
		Notes:        meta.Notes,
		PaymentTerms: meta.PaymentTerms,
		Payment:      doc.Payment,
		HasPayment:   !doc.Payment.Empty(),
		Logo:         dataImage(doc.Images.Logo),
		Signature:    dataImage(doc.Images.Signature),
		Stamp:        dataImage(doc.Images.Stamp),
	}

	for i, item := range doc.Items {
		if !item.DiscountPercent.IsZero() {
			view.ShowDiscount = true
		}
		view.Items = append(view.Items, itemView{
			Position:    i + 1,
			Description: item.Description,
			Quantity:    f.Quantity(item.Quantity),
			Unit:        item.Unit,
			UnitPrice:   f.Money(item.UnitPrice),
			Discount:    f.Percent(item.DiscountPercent),
			Tax:         f.Percent(item.TaxRate),
			Amount:      f.Money(item.Amount()),
		})
	}
	return view
}

func newPartyView(p billing.Party, labels Labels) partyView {
	return partyView{
		Name:       p.DisplayName,
		Contact:    p.ContactName,
		Address:    p.Address,
		TaxIDLabel: labels.TaxID,
		TaxID:      p.TaxID,
		Email:      p.Email,
		Phone:      p.Phone,
		Website:    p.Website,
	}
}

// dataImage admits only base64 data URIs of raster or SVG images so the
// output never references an external resource.
func dataImage(src string) template.URL {
	src = strings.TrimSpace(src)
	if !strings.HasPrefix(src, "data:image/") || !strings.Contains(src, ";base64,") {
		return ""
	}
	if strings.ContainsAny(src, "\"'<> \n\r\t") {
		return ""
	}
	return template.URL(src)
}
