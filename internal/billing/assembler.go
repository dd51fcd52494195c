package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// AddressSeparator joins the non-empty address components of a party.
const AddressSeparator = ", "

// Record is one loosely typed row as it comes out of storage or a request
// body. Numbers may arrive as text.
type Record map[string]any

// Source groups the raw records a document is assembled from.
type Source struct {
	Document Record   `json:"document"`
	Company  Record   `json:"company"`
	Client   Record   `json:"client"`
	Payment  Record   `json:"payment,omitempty"`
	Items    []Record `json:"items"`
}

// Assemble normalises raw records into DocumentData. Every field ends up with
// a usable value: missing data becomes the zero value and values that cannot
// be coerced are zeroed and reported in DocumentData.Warnings. Item discounts
// inherit the document-level discount before the summary is derived.
func Assemble(src Source, cfg TemplateConfig) DocumentData {
	a := &assembler{}

	meta := a.metadata(src.Document, cfg)
	items := make([]LineItem, 0, len(src.Items))
	for i, rec := range src.Items {
		items = append(items, a.lineItem(i, rec))
	}
	items = ApplyDocumentDiscount(items, meta.DiscountPercent)

	payment := src.Payment
	if len(payment) == 0 {
		payment = src.Company
	}

	data := DocumentData{
		Issuer:    a.party(src.Company),
		Recipient: a.party(src.Client),
		Items:     items,
		Summary:   CalculateSummary(items, decimal.Zero),
		Metadata:  meta,
		Payment:   assemblePayment(payment),
		Images:    assembleImages(src.Company, cfg),
		Warnings:  a.warnings,
	}
	return data
}

type assembler struct {
	warnings []Warning
}

func (a *assembler) warn(field string, value any, format string, args ...any) {
	a.warnings = append(a.warnings, Warning{
		Field:   field,
		Value:   fmt.Sprint(value),
		Message: fmt.Sprintf(format, args...),
	})
}

func (a *assembler) metadata(rec Record, cfg TemplateConfig) Metadata {
	meta := Metadata{
		Type:         parseDocumentType(str(rec, "type", "document_type", "documentType")),
		Number:       str(rec, "number", "document_number", "documentNumber", "invoice_number", "invoiceNumber"),
		Reference:    str(rec, "reference", "po_number", "poNumber"),
		Notes:        str(rec, "notes", "note"),
		PaymentTerms: str(rec, "payment_terms", "paymentTerms", "terms"),
	}
	meta.IssueDate = a.date("document.issue_date", rec, "issue_date", "issueDate", "date")
	meta.DueDate = a.date("document.due_date", rec, "due_date", "dueDate")
	meta.DiscountPercent = a.number("document.discount_percent", rec, "discount_percent", "discountPercent", "discount")

	code := str(rec, "currency", "currency_code", "currencyCode")
	if code != "" && !ValidCurrency(code) {
		a.warn("document.currency", code, "unknown currency, using %s", NormalizeCurrency("", cfg.DefaultCurrency))
	}
	meta.Currency = NormalizeCurrency(code, cfg.DefaultCurrency)

	lang := str(rec, "language", "lang", "locale")
	if lang == "" {
		lang = cfg.DefaultLanguage
	}
	meta.Language = MatchLanguage(lang).String()
	return meta
}

func (a *assembler) lineItem(idx int, rec Record) LineItem {
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", idx, name) }
	return LineItem{
		Description:     str(rec, "description", "name", "title"),
		Unit:            str(rec, "unit", "unit_name", "unitName"),
		Quantity:        a.number(field("quantity"), rec, "quantity", "qty"),
		UnitPrice:       a.number(field("unit_price"), rec, "unit_price", "unitPrice", "price"),
		DiscountPercent: a.number(field("discount_percent"), rec, "discount_percent", "discountPercent", "discount"),
		TaxRate:         a.number(field("tax_rate"), rec, "tax_rate", "taxRate", "tax"),
	}
}

func (a *assembler) party(rec Record) Party {
	person := joinNonEmpty(" ", str(rec, "first_name", "firstName"), str(rec, "last_name", "lastName"))
	display := str(rec, "company_name", "companyName", "name")
	if display == "" {
		display = person
	}
	contact := str(rec, "contact_name", "contactName")
	if contact == "" && person != display {
		contact = person
	}
	return Party{
		DisplayName: display,
		ContactName: contact,
		Address:     addressBlock(rec),
		TaxID:       str(rec, "tax_id", "taxId", "vat_id", "vatId"),
		Email:       str(rec, "email"),
		Phone:       str(rec, "phone", "phone_number", "phoneNumber"),
		Website:     str(rec, "website", "url"),
	}
}

func addressBlock(rec Record) string {
	return joinNonEmpty(AddressSeparator,
		str(rec, "address_line1", "addressLine1", "address", "street"),
		str(rec, "address_line2", "addressLine2"),
		joinNonEmpty(" ", str(rec, "postal_code", "postalCode", "zip"), str(rec, "city")),
		str(rec, "state", "region"),
		str(rec, "country"),
	)
}

func assemblePayment(rec Record) Payment {
	return Payment{
		BankName:      str(rec, "bank_name", "bankName"),
		AccountHolder: str(rec, "account_holder", "accountHolder"),
		IBAN:          str(rec, "iban", "IBAN"),
		BIC:           str(rec, "bic", "swift", "BIC"),
		PaymentLink:   str(rec, "payment_link", "paymentLink"),
	}
}

func assembleImages(rec Record, cfg TemplateConfig) Images {
	var images Images
	if !cfg.HideLogo {
		images.Logo = str(rec, "logo", "logo_url", "logoUrl")
	}
	if !cfg.HideSignature {
		images.Signature = str(rec, "signature", "signature_url", "signatureUrl")
	}
	if !cfg.HideStamp {
		images.Stamp = str(rec, "stamp", "stamp_url", "stampUrl")
	}
	return images
}

func parseDocumentType(raw string) DocumentType {
	switch strings.ToLower(raw) {
	case "offer", "quote", "quotation":
		return DocumentTypeOffer
	default:
		return DocumentTypeInvoice
	}
}

// number reads the first present key as a decimal. Absent and blank values
// are zero without a warning; anything unparsable is zero with a warning.
func (a *assembler) number(field string, rec Record, keys ...string) decimal.Decimal {
	raw, ok := lookup(rec, keys...)
	if !ok {
		return decimal.Zero
	}
	switch v := raw.(type) {
	case decimal.Decimal:
		return v
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero
		}
		return *v
	}
	text, err := cast.ToStringE(raw)
	if err != nil {
		a.warn(field, raw, "not a number")
		return decimal.Zero
	}
	text = normalizeNumber(text)
	if text == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		a.warn(field, raw, "not a number")
		return decimal.Zero
	}
	return d
}

func (a *assembler) date(field string, rec Record, keys ...string) time.Time {
	raw, ok := lookup(rec, keys...)
	if !ok {
		return time.Time{}
	}
	if s, isString := raw.(string); isString && strings.TrimSpace(s) == "" {
		return time.Time{}
	}
	t, err := cast.ToTimeE(raw)
	if err != nil {
		a.warn(field, raw, "not a date")
		return time.Time{}
	}
	return t
}

// normalizeNumber strips percent signs and blanks and resolves the decimal
// separator. When both ',' and '.' occur the last one is the decimal
// separator; a lone ',' is treated as the decimal separator.
func normalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, "'", "")
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0 && strings.Count(s, ",") == 1:
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}

func lookup(rec Record, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := rec[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func str(rec Record, keys ...string) string {
	for _, key := range keys {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(cast.ToString(v))
		if s != "" {
			return s
		}
	}
	return ""
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
