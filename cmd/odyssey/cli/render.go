package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/render"
)

// RenderOptions defines available flags for the render command.
type RenderOptions struct {
	Input    io.Reader
	Template string
	Theme    render.Theme
	Currency string
	Language string
	// DataOnly prints the assembled document as JSON instead of HTML.
	DataOnly bool
	// Strict turns assembler warnings into exit code 10.
	Strict bool
	Stdout io.Writer
	Stderr io.Writer
}

// RenderCLI renders documents offline from a JSON source file.
type RenderCLI struct {
	registry *render.Registry
}

// NewRenderCLI constructs the helper around registry.
func NewRenderCLI(registry *render.Registry) *RenderCLI {
	if registry == nil {
		registry = render.NewRegistry()
	}
	return &RenderCLI{registry: registry}
}

// RenderCommand reads a billing.Source document, assembles it and writes
// the rendered HTML. Warnings go to stderr.
func (c *RenderCLI) RenderCommand(opts RenderOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Template == "" {
		opts.Template = render.DefaultTemplate
	}
	if !c.registry.Has(opts.Template) {
		_, _ = fmt.Fprintf(opts.Stderr, "render: unknown template %q (available: %v)\n", opts.Template, c.registry.Templates())
		return 1
	}
	if opts.Theme == (render.Theme{}) {
		opts.Theme = render.DefaultTheme()
	}
	if !opts.Theme.Valid() {
		_, _ = fmt.Fprintln(opts.Stderr, "render: theme colours and font must be plain CSS values")
		return 1
	}

	var src billing.Source
	dec := json.NewDecoder(opts.Input)
	dec.UseNumber()
	if err := dec.Decode(&src); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "render: decode source: %v\n", err)
		return 1
	}

	doc := billing.Assemble(src, billing.TemplateConfig{
		ID:              opts.Template,
		DefaultCurrency: opts.Currency,
		DefaultLanguage: opts.Language,
	})
	for _, w := range doc.Warnings {
		_, _ = fmt.Fprintf(opts.Stderr, "warning: %s=%q: %s\n", w.Field, w.Value, w.Message)
	}

	if opts.DataOnly {
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "render: encode json: %v\n", err)
			return 1
		}
	} else if err := c.registry.Render(opts.Stdout, opts.Template, doc, opts.Theme); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "render: %v\n", err)
		return 1
	}

	if opts.Strict && len(doc.Warnings) > 0 {
		return 10
	}
	return 0
}
