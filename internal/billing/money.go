package billing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Defaults used when a document carries no or an unknown currency/language.
const (
	DefaultCurrency = "EUR"
	DefaultLanguage = "en"
)

var (
	supportedLanguages = []language.Tag{language.English, language.German}
	languageMatcher    = language.NewMatcher(supportedLanguages)
)

// MatchLanguage maps a free-form language code to one of the supported
// languages. Unknown or malformed codes resolve to English.
func MatchLanguage(code string) language.Tag {
	code = strings.TrimSpace(code)
	if code == "" {
		return language.English
	}
	tag, err := language.Parse(code)
	if err != nil {
		return language.English
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf == language.No {
		return language.English
	}
	return supportedLanguages[idx]
}

// SupportedLanguage reports whether code resolves to one of the supported
// languages, e.g. "de-DE" or "en-GB".
func SupportedLanguage(code string) bool {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return false
	}
	_, _, conf := languageMatcher.Match(tag)
	return conf != language.No
}

// NormalizeCurrency returns the upper-cased ISO 4217 code for code, or
// fallback when code is not a known currency.
func NormalizeCurrency(code, fallback string) string {
	if unit, err := currency.ParseISO(strings.TrimSpace(code)); err == nil {
		return unit.String()
	}
	if unit, err := currency.ParseISO(strings.TrimSpace(fallback)); err == nil {
		return unit.String()
	}
	return DefaultCurrency
}

// ValidCurrency reports whether code is a known ISO 4217 currency.
func ValidCurrency(code string) bool {
	_, err := currency.ParseISO(strings.TrimSpace(code))
	return err == nil
}

// Formatter renders amounts, quantities and dates for one document. A single
// Formatter drives every monetary string of a render so the currency stays
// consistent between line items and the summary.
type Formatter struct {
	unit    currency.Unit
	scale   int
	tag     language.Tag
	group   string
	decimal string
}

// NewFormatter builds a formatter for the currency and language codes.
func NewFormatter(currencyCode, languageCode string) Formatter {
	unit := currency.MustParseISO(NormalizeCurrency(currencyCode, DefaultCurrency))
	scale, _ := currency.Standard.Rounding(unit)
	tag := MatchLanguage(languageCode)
	group, decimalSep := separators(tag)
	return Formatter{
		unit:    unit,
		scale:   scale,
		tag:     tag,
		group:   group,
		decimal: decimalSep,
	}
}

// separators asks the locale data for the grouping and decimal separators by
// formatting 1234.5.
func separators(tag language.Tag) (group, decimalSep string) {
	sample := message.NewPrinter(tag).Sprint(number.Decimal(1234.5, number.Scale(1)))
	i := strings.Index(sample, "234")
	j := strings.LastIndex(sample, "5")
	if i < 1 || j < i+3 {
		return ",", "."
	}
	return sample[1:i], sample[i+3 : j]
}

// Currency returns the ISO code used by the formatter.
func (f Formatter) Currency() string { return f.unit.String() }

// Language returns the resolved language tag.
func (f Formatter) Language() language.Tag { return f.tag }

// Scale returns the number of fraction digits of the currency.
func (f Formatter) Scale() int { return f.scale }

// Amount formats value with the currency scale but without a currency code.
func (f Formatter) Amount(value decimal.Decimal) string {
	return f.localize(value.StringFixed(int32(f.scale)))
}

// Money formats value as "<CODE> <amount>", e.g. "EUR 1,234.50".
func (f Formatter) Money(value decimal.Decimal) string {
	return f.unit.String() + " " + f.Amount(value)
}

// Quantity formats a quantity with at most three fraction digits.
func (f Formatter) Quantity(value decimal.Decimal) string {
	return f.localize(value.Round(3).String())
}

// Percent formats a percentage with at most two fraction digits and a
// trailing percent sign.
func (f Formatter) Percent(value decimal.Decimal) string {
	return f.localize(value.Round(2).String()) + "%"
}

// localize groups the integer digits of a plain decimal string such as
// "-1234567.50" and swaps in the locale's separators. The digits themselves
// are kept as they are.
func (f Formatter) localize(plain string) string {
	sign := ""
	if strings.HasPrefix(plain, "-") {
		sign, plain = "-", plain[1:]
	}
	intPart, frac, _ := strings.Cut(plain, ".")
	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(f.group)
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteString(f.decimal)
		b.WriteString(frac)
	}
	return b.String()
}

// Date formats t for the formatter's language. The zero time yields "".
func (f Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if f.tag == language.German {
		return t.Format("02.01.2006")
	}
	return t.Format("Jan 2, 2006")
}
