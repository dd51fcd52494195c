// Package render turns assembled billing documents into self-contained HTML.
// Templates are looked up by identifier in a Registry so new layouts can be
// added without touching callers.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
)

// DefaultTemplate is used when a render does not name a template.
const DefaultTemplate = "classic"

// ErrTemplateNotFound is returned when no template is registered under an id.
var ErrTemplateNotFound = errors.New("render: template not found")

// RenderFunc writes the HTML for one document. It must not retain doc or w.
type RenderFunc func(w io.Writer, doc billing.DocumentData, theme Theme) error

// Registry maps template identifiers to render functions.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]RenderFunc
}

// NewRegistry returns a registry populated with the built-in templates.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]RenderFunc)}
	r.Register(DefaultTemplate, RenderClassic)
	return r
}

// Register adds or replaces the render function for id.
func (r *Registry) Register(id string, fn RenderFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[id] = fn
}

// Has reports whether a template is registered under id. The empty id refers
// to the default template.
func (r *Registry) Has(id string) bool {
	_, ok := r.lookup(id)
	return ok
}

// Templates lists the registered identifiers in sorted order.
func (r *Registry) Templates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.funcs))
	for id := range r.funcs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Render writes the document using the template registered under id. The
// theme is sanitised before use.
func (r *Registry) Render(w io.Writer, id string, doc billing.DocumentData, theme Theme) error {
	fn, ok := r.lookup(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
	}
	return fn(w, doc, theme.Sanitize())
}

// RenderString is Render into a string.
func (r *Registry) RenderString(id string, doc billing.DocumentData, theme Theme) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, id, doc, theme); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Registry) lookup(id string) (RenderFunc, bool) {
	if id == "" {
		id = DefaultTemplate
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[id]
	return fn, ok
}
