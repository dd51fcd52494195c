package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/export"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/render"
	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/httpx"
)

// ExportResult reports what a full export produced.
type ExportResult struct {
	DocumentID int64             `json:"document_id"`
	FileName   string            `json:"file_name"`
	Size       int               `json:"size"`
	Link       *export.ShareLink `json:"link,omitempty"`
	Printer    string            `json:"printer,omitempty"`
}

// rendered is a document prepared for a sink.
type rendered struct {
	data     billing.DocumentData
	template string
	html     []byte
}

// Templates lists the registered template ids.
func (s *Service) Templates() []string {
	return s.registry.Templates()
}

// Data assembles the normalised document data of a stored document.
func (s *Service) Data(ctx context.Context, id int64, opts RenderOptions) (billing.DocumentData, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return billing.DocumentData{}, err
	}
	template, err := s.resolveTemplate(opts.Template, doc.Template)
	if err != nil {
		return billing.DocumentData{}, err
	}
	return s.assemble(ctx, doc.ID, template)
}

// Preview renders a stored document to HTML. Results are cached per document
// version, template and theme.
func (s *Service) Preview(ctx context.Context, id int64, opts RenderOptions) ([]byte, error) {
	doc, template, theme, err := s.prepare(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	key := htmlCacheKey(doc, template, theme)
	if html, ok := s.cached(ctx, key); ok {
		return html, nil
	}
	data, err := s.assemble(ctx, doc.ID, template)
	if err != nil {
		return nil, err
	}
	html, err := s.renderHTML(template, data, theme)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, html)
	return html, nil
}

// RenderAdhoc renders raw records that are not stored anywhere. The
// assembler warnings are returned alongside the HTML.
func (s *Service) RenderAdhoc(_ context.Context, req RenderRequest) ([]byte, []billing.Warning, error) {
	template, err := s.resolveTemplate(req.Template, "")
	if err != nil {
		return nil, nil, err
	}
	theme, err := s.theme(req.Theme)
	if err != nil {
		return nil, nil, err
	}
	cfg := s.templateConfig(template)
	cfg.HideLogo = req.HideLogo
	cfg.HideSignature = req.HideSignature
	cfg.HideStamp = req.HideStamp
	data := billing.Assemble(req.Source, cfg)
	html, err := s.renderHTML(template, data, theme)
	if err != nil {
		return nil, nil, err
	}
	return html, data.Warnings, nil
}

// PDF renders a stored document to PDF. Concurrent requests for the same
// document version share one render.
func (s *Service) PDF(ctx context.Context, id int64, opts RenderOptions) (export.Artifact, error) {
	artifact, err := s.pdfArtifact(ctx, id, opts)
	s.metrics.SinkOutcome(export.SinkPDF, string(export.OutcomeOf(err)))
	return artifact, err
}

func (s *Service) pdfArtifact(ctx context.Context, id int64, opts RenderOptions) (export.Artifact, error) {
	if s.pdf == nil {
		return export.Artifact{}, fmt.Errorf("%w: pdf rendering is not configured", httpx.ErrUnavailable)
	}
	doc, template, theme, err := s.prepare(ctx, id, opts)
	if err != nil {
		return export.Artifact{}, err
	}
	key := "pdf:" + htmlCacheKey(doc, template, theme)
	ch := s.flight.DoChan(key, func() (interface{}, error) {
		// Detached so one cancelled caller does not fail the others.
		flightCtx := context.WithoutCancel(ctx)
		r, err := s.renderDocument(flightCtx, doc, template, theme)
		if err != nil {
			return nil, err
		}
		out, err := s.pdf.RenderPDF(flightCtx, r.data, string(r.html))
		if err != nil {
			return nil, fmt.Errorf("render pdf: %w", err)
		}
		return export.PDFArtifact(r.data, out), nil
	})
	select {
	case <-ctx.Done():
		return export.Artifact{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return export.Artifact{}, res.Err
		}
		return res.Val.(export.Artifact), nil
	}
}

// XLSX exports a stored document as a spreadsheet.
func (s *Service) XLSX(ctx context.Context, id int64) (export.Artifact, error) {
	artifact, err := s.xlsxArtifact(ctx, id)
	s.metrics.SinkOutcome(export.SinkXLSX, string(export.OutcomeOf(err)))
	return artifact, err
}

func (s *Service) xlsxArtifact(ctx context.Context, id int64) (export.Artifact, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return export.Artifact{}, err
	}
	data, err := s.assemble(ctx, doc.ID, doc.Template)
	if err != nil {
		return export.Artifact{}, err
	}
	return export.XLSXArtifact(data)
}

// Share renders the PDF, uploads it and returns a download link.
func (s *Service) Share(ctx context.Context, id int64, opts RenderOptions) (export.ShareLink, error) {
	artifact, err := s.PDF(ctx, id, opts)
	if err != nil {
		return export.ShareLink{}, err
	}
	return s.shareArtifact(ctx, artifact)
}

func (s *Service) shareArtifact(ctx context.Context, artifact export.Artifact) (export.ShareLink, error) {
	if s.share == nil {
		err := fmt.Errorf("%w: %w", httpx.ErrUnavailable, export.ErrShareDisabled)
		s.metrics.SinkOutcome(export.SinkShare, string(export.OutcomeOf(err)))
		return export.ShareLink{}, err
	}
	link, err := s.share.Share(ctx, artifact)
	s.metrics.SinkOutcome(export.SinkShare, string(export.OutcomeOf(err)))
	if errors.Is(err, export.ErrShareDisabled) {
		return export.ShareLink{}, fmt.Errorf("%w: %w", httpx.ErrUnavailable, err)
	}
	return link, err
}

// Print renders the PDF and sends it to the configured printer.
func (s *Service) Print(ctx context.Context, id int64, opts RenderOptions) (string, error) {
	artifact, err := s.PDF(ctx, id, opts)
	if err != nil {
		return "", err
	}
	return s.printArtifact(ctx, artifact)
}

func (s *Service) printArtifact(ctx context.Context, artifact export.Artifact) (string, error) {
	printer := s.printer
	if printer == nil {
		printer = export.NewNullPrinter()
	}
	err := printer.Print(ctx, artifact)
	s.metrics.SinkOutcome(export.SinkPrint, string(export.OutcomeOf(err)))
	if errors.Is(err, export.ErrNoPrinter) {
		return "", fmt.Errorf("%w: %w", httpx.ErrUnavailable, err)
	}
	if err != nil {
		return "", err
	}
	s.logger.Info("document printed", slog.String("printer", printer.Name()), slog.String("file", artifact.Name))
	return printer.Name(), nil
}

// Export renders the PDF of a document and hands it to the requested sinks.
func (s *Service) Export(ctx context.Context, req ExportRequest) (ExportResult, error) {
	opts := RenderOptions{Template: req.Template, Theme: req.Theme}
	artifact, err := s.PDF(ctx, req.DocumentID, opts)
	if err != nil {
		return ExportResult{}, err
	}
	result := ExportResult{DocumentID: req.DocumentID, FileName: artifact.Name, Size: len(artifact.Data)}
	if req.Share {
		link, err := s.shareArtifact(ctx, artifact)
		if err != nil {
			return result, fmt.Errorf("share: %w", err)
		}
		result.Link = &link
	}
	if req.Print {
		name, err := s.printArtifact(ctx, artifact)
		if err != nil {
			return result, fmt.Errorf("print: %w", err)
		}
		result.Printer = name
	}
	return result, nil
}

// EnqueueExport schedules Export in the background and returns the task id.
func (s *Service) EnqueueExport(ctx context.Context, req ExportRequest) (string, error) {
	if s.enqueuer == nil {
		return "", fmt.Errorf("%w: background jobs are not configured", httpx.ErrUnavailable)
	}
	if _, err := s.repo.Get(ctx, req.DocumentID); err != nil {
		return "", err
	}
	if req.Template != "" && !s.registry.Has(req.Template) {
		return "", fmt.Errorf("%w: %w %q", httpx.ErrValidation, render.ErrTemplateNotFound, req.Template)
	}
	if _, err := s.theme(req.Theme); err != nil {
		return "", err
	}
	return s.enqueuer.EnqueueExport(ctx, req)
}

func (s *Service) prepare(ctx context.Context, id int64, opts RenderOptions) (*Document, string, render.Theme, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", render.Theme{}, err
	}
	template, err := s.resolveTemplate(opts.Template, doc.Template)
	if err != nil {
		return nil, "", render.Theme{}, err
	}
	theme, err := s.theme(opts.Theme)
	if err != nil {
		return nil, "", render.Theme{}, err
	}
	return doc, template, theme, nil
}

func (s *Service) renderDocument(ctx context.Context, doc *Document, template string, theme render.Theme) (*rendered, error) {
	data, err := s.assemble(ctx, doc.ID, template)
	if err != nil {
		return nil, err
	}
	key := htmlCacheKey(doc, template, theme)
	if html, ok := s.cached(ctx, key); ok {
		return &rendered{data: data, template: template, html: html}, nil
	}
	html, err := s.renderHTML(template, data, theme)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, html)
	return &rendered{data: data, template: template, html: html}, nil
}

func (s *Service) assemble(ctx context.Context, id int64, template string) (billing.DocumentData, error) {
	src, err := s.repo.LoadSource(ctx, id)
	if err != nil {
		return billing.DocumentData{}, err
	}
	data := billing.Assemble(src, s.templateConfig(template))
	if len(data.Warnings) > 0 {
		s.logger.Warn("document data defaulted",
			slog.Int64("id", id),
			slog.Int("warnings", len(data.Warnings)),
			slog.String("first_field", data.Warnings[0].Field),
		)
	}
	return data, nil
}

func (s *Service) renderHTML(template string, data billing.DocumentData, theme render.Theme) ([]byte, error) {
	start := time.Now()
	var buf bytes.Buffer
	if err := s.registry.Render(&buf, template, data, theme); err != nil {
		return nil, fmt.Errorf("render %s: %w", template, err)
	}
	s.metrics.ObserveRender(template, time.Since(start))
	return buf.Bytes(), nil
}

func (s *Service) templateConfig(template string) billing.TemplateConfig {
	return billing.TemplateConfig{
		ID:              template,
		DefaultCurrency: s.cfg.DefaultCurrency,
		DefaultLanguage: s.cfg.DefaultLanguage,
	}
}

// resolveTemplate picks the requested template, then the stored one, then the
// configured default. Unknown ids are validation errors.
func (s *Service) resolveTemplate(requested, stored string) (string, error) {
	id := strings.TrimSpace(requested)
	if id == "" {
		id = strings.TrimSpace(stored)
	}
	if id == "" {
		id = s.cfg.DefaultTemplate
	}
	if !s.registry.Has(id) {
		return "", fmt.Errorf("%w: %w %q", httpx.ErrValidation, render.ErrTemplateNotFound, id)
	}
	return id, nil
}

// theme overlays the non-empty values of t on the configured theme.
func (s *Service) theme(t *render.Theme) (render.Theme, error) {
	base := s.cfg.Theme
	if t == nil {
		return base, nil
	}
	if !t.Valid() {
		return render.Theme{}, httpx.FieldError("theme", "colours must be hex or named colours and the font a plain font list")
	}
	if v := strings.TrimSpace(t.PrimaryColor); v != "" {
		base.PrimaryColor = v
	}
	if v := strings.TrimSpace(t.AccentColor); v != "" {
		base.AccentColor = v
	}
	if v := strings.TrimSpace(t.TextColor); v != "" {
		base.TextColor = v
	}
	if v := strings.TrimSpace(t.FontFamily); v != "" {
		base.FontFamily = v
	}
	return base, nil
}

// htmlCacheKey identifies one rendered version of a document. Edits to the
// issuing company or the client change the key as well as edits to the
// document itself.
func htmlCacheKey(doc *Document, template string, theme render.Theme) string {
	return fmt.Sprintf("html:%d:%d.%d.%d:%s:%s", doc.ID,
		doc.UpdatedAt.UnixNano(), doc.CompanyUpdatedAt.UnixNano(), doc.ClientUpdatedAt.UnixNano(),
		template, theme.Key())
}

func (s *Service) cached(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	html, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("render cache read failed", slog.Any("error", err))
		return nil, false
	}
	s.metrics.RenderCacheHit(ok)
	return html, ok
}

func (s *Service) store(ctx context.Context, key string, html []byte) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, html, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("render cache write failed", slog.Any("error", err))
	}
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, fmt.Sprintf("html:%d:", id)); err != nil {
		s.logger.Warn("render cache invalidation failed", slog.Int64("id", id), slog.Any("error", err))
	}
}
