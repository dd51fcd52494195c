package render

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

// Theme is the visual configuration of a render. It is passed explicitly to
// every render call; there is no process-wide theme.
type Theme struct {
	PrimaryColor string `json:"primary_color"`
	AccentColor  string `json:"accent_color"`
	TextColor    string `json:"text_color"`
	FontFamily   string `json:"font_family"`
}

var (
	colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|[a-zA-Z]{3,20})$`)
	fontPattern  = regexp.MustCompile(`^[A-Za-z0-9 ,\-]{1,100}$`)
)

// DefaultTheme returns the house style.
func DefaultTheme() Theme {
	return Theme{
		PrimaryColor: "#1f2937",
		AccentColor:  "#2563eb",
		TextColor:    "#111827",
		FontFamily:   "Helvetica, Arial, sans-serif",
	}
}

// Sanitize replaces every value that is not a plain colour or font list with
// the default, so theme values can be placed into CSS verbatim.
func (t Theme) Sanitize() Theme {
	def := DefaultTheme()
	out := Theme{
		PrimaryColor: pick(t.PrimaryColor, def.PrimaryColor, colorPattern),
		AccentColor:  pick(t.AccentColor, def.AccentColor, colorPattern),
		TextColor:    pick(t.TextColor, def.TextColor, colorPattern),
		FontFamily:   pick(t.FontFamily, def.FontFamily, fontPattern),
	}
	return out
}

// Valid reports whether every non-empty value passes sanitisation unchanged.
func (t Theme) Valid() bool {
	for _, c := range []string{t.PrimaryColor, t.AccentColor, t.TextColor} {
		if c != "" && !colorPattern.MatchString(strings.TrimSpace(c)) {
			return false
		}
	}
	return t.FontFamily == "" || fontPattern.MatchString(strings.TrimSpace(t.FontFamily))
}

// Key is a short stable fingerprint of the sanitised theme, used in cache keys.
func (t Theme) Key() string {
	s := t.Sanitize()
	h := fnv.New32a()
	_, _ = h.Write([]byte(s.PrimaryColor + "|" + s.AccentColor + "|" + s.TextColor + "|" + s.FontFamily))
	return fmt.Sprintf("%08x", h.Sum32())
}

func pick(value, fallback string, pattern *regexp.Regexp) string {
	value = strings.TrimSpace(value)
	if value == "" || !pattern.MatchString(value) {
		return fallback
	}
	return value
}
