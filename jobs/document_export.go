package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/documents"
	jobmetrics "github.com/odyssey-erp/odyssey-invoicing/internal/jobs"
	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/httpx"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Exporter runs a full document export.
type Exporter interface {
	Export(ctx context.Context, req documents.ExportRequest) (documents.ExportResult, error)
}

// DocumentExportJob renders documents to PDF in the background and shares or
// prints them as requested.
type DocumentExportJob struct {
	Exporter Exporter
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewDocumentExportJob wires dependencies for the export handler.
func NewDocumentExportJob(exporter Exporter, logger *slog.Logger, metrics *jobmetrics.Metrics) *DocumentExportJob {
	return &DocumentExportJob{Exporter: exporter, Logger: logger, Metrics: metrics}
}

// Handle processes document export tasks.
func (j *DocumentExportJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Exporter == nil {
		return errors.New("document export: handler not configured")
	}
	var payload documents.ExportRequest
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.DocumentID <= 0 {
		return fmt.Errorf("document export: missing document id: %w", asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskDocumentExport)
	logger := j.logger().With(slog.Int64("document_id", payload.DocumentID))

	result, err := j.Exporter.Export(ctx, payload)
	if err != nil {
		logger.Error("document export failed", slog.Any("error", err))
		err = tracker.End(err)
		if permanent(err) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}
	j.metrics().AddDocuments(TaskDocumentExport, 1)
	attrs := []any{slog.String("file", result.FileName), slog.Int("bytes", result.Size)}
	if result.Link != nil {
		attrs = append(attrs, slog.String("share_key", result.Link.Key))
	}
	if result.Printer != "" {
		attrs = append(attrs, slog.String("printer", result.Printer))
	}
	logger.Info("document exported", attrs...)
	return tracker.End(nil)
}

// permanent reports errors a retry cannot fix.
func permanent(err error) bool {
	return errors.Is(err, httpx.ErrNotFound) ||
		errors.Is(err, httpx.ErrValidation) ||
		errors.Is(err, httpx.ErrUnavailable)
}

func (j *DocumentExportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDocumentExport))
	}
	return slog.Default().With(slog.String("job", TaskDocumentExport))
}

func (j *DocumentExportJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
