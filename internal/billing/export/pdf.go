package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
	"github.com/odyssey-erp/odyssey-invoicing/report"
)

// PDFRenderer turns a document into PDF bytes. Implementations may use the
// rendered HTML, the structured data, or both.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, doc billing.DocumentData, html string) ([]byte, error)
}

// GotenbergPDF prints the HTML with headless Chromium.
type GotenbergPDF struct {
	Client *report.Client
	Paper  report.PaperOptions
}

// NewGotenbergPDF wraps a Gotenberg client using A4 paper.
func NewGotenbergPDF(client *report.Client) *GotenbergPDF {
	return &GotenbergPDF{Client: client, Paper: report.A4()}
}

// RenderPDF implements PDFRenderer.
func (g *GotenbergPDF) RenderPDF(ctx context.Context, _ billing.DocumentData, html string) ([]byte, error) {
	if g == nil || g.Client == nil {
		return nil, fmt.Errorf("gotenberg client not configured")
	}
	return g.Client.RenderHTML(ctx, html, g.Paper)
}

// PDFPipeline tries the primary renderer and, when it fails for any reason
// other than cancellation, the fallback.
type PDFPipeline struct {
	Primary  PDFRenderer
	Fallback PDFRenderer
	Logger   *slog.Logger
}

// RenderPDF implements PDFRenderer.
func (p *PDFPipeline) RenderPDF(ctx context.Context, doc billing.DocumentData, html string) ([]byte, error) {
	if p.Primary == nil && p.Fallback == nil {
		return nil, errors.New("no pdf renderer configured")
	}
	if p.Primary == nil {
		return p.Fallback.RenderPDF(ctx, doc, html)
	}
	pdf, err := p.Primary.RenderPDF(ctx, doc, html)
	if err == nil {
		return pdf, nil
	}
	if p.Fallback == nil || ctx.Err() != nil {
		return nil, err
	}
	p.logger().Warn("primary pdf renderer failed, using fallback",
		slog.String("number", doc.Metadata.Number),
		slog.Any("error", err))
	pdf, fallbackErr := p.Fallback.RenderPDF(ctx, doc, html)
	if fallbackErr != nil {
		return nil, fmt.Errorf("fallback pdf: %w (primary: %v)", fallbackErr, err)
	}
	return pdf, nil
}

func (p *PDFPipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// PDFArtifact wraps PDF bytes with a file name derived from the document.
func PDFArtifact(doc billing.DocumentData, data []byte) Artifact {
	return Artifact{Name: FileName(doc, "pdf"), ContentType: ContentTypePDF, Data: data}
}

// FileName builds a download name such as "invoice-INV-202501-0001.pdf".
func FileName(doc billing.DocumentData, ext string) string {
	kind := string(doc.Metadata.Type)
	if kind == "" {
		kind = string(billing.DocumentTypeInvoice)
	}
	number := sanitizeFileComponent(doc.Metadata.Number)
	if number == "" {
		return kind + "." + ext
	}
	return kind + "-" + number + "." + ext
}

func sanitizeFileComponent(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			out = append(out, r)
		case r == ' ' || r == '/':
			out = append(out, '-')
		}
	}
	return string(out)
}
