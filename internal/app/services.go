package app

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/companies"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/documents"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/export"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/products"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/render"
	"github.com/odyssey-erp/odyssey-invoicing/internal/observability"
	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-invoicing/internal/shared"
	"github.com/odyssey-erp/odyssey-invoicing/report"
)

// RenderCachePrefix namespaces rendered HTML in Redis.
const RenderCachePrefix = "odyssey:render"

// DocumentDeps groups the runtime collaborators of the documents service.
// Share, Printer, Enqueuer and Metrics are optional.
type DocumentDeps struct {
	Pool     *pgxpool.Pool
	Redis    redis.UniversalClient
	Registry *render.Registry
	Report   *report.Client
	Share    documents.Sharer
	Printer  export.Printer
	Enqueuer documents.Enqueuer
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// NewDocumentsService builds the documents service the API and the worker
// share, so both render with identical defaults.
func NewDocumentsService(cfg *Config, deps DocumentDeps) *documents.Service {
	pipeline := &export.PDFPipeline{Primary: export.NewGotenbergPDF(deps.Report), Logger: deps.Logger}
	if cfg.PDFFallback {
		pipeline.Fallback = export.FallbackPDF{}
	}
	d := documents.Dependencies{
		Repo:        documents.NewRepository(deps.Pool),
		Products:    products.NewRepository(deps.Pool),
		Companies:   companies.NewRepository(deps.Pool),
		Registry:    deps.Registry,
		Cache:       cache.NewStore(deps.Redis, RenderCachePrefix),
		PDF:         pipeline,
		Share:       deps.Share,
		Printer:     deps.Printer,
		Idempotency: shared.NewIdempotencyStore(deps.Pool),
		Enqueuer:    deps.Enqueuer,
		Logger:      deps.Logger,
	}
	if deps.Metrics != nil {
		d.Metrics = deps.Metrics
	}
	return documents.NewService(documents.Config{
		DefaultCurrency: cfg.DefaultCurrency,
		DefaultLanguage: cfg.DefaultLanguage,
		DefaultTemplate: cfg.DefaultTemplate,
		Theme:           cfg.Theme(),
		CacheTTL:        cfg.RenderCacheTTL,
		PaymentTermDays: cfg.PaymentTermDays,
	}, d)
}

// NewShareStore returns nil when no bucket is configured; the share sink then
// reports itself unavailable.
func NewShareStore(ctx context.Context, cfg *Config) (documents.Sharer, error) {
	if cfg.S3Bucket == "" {
		return nil, nil
	}
	client, err := export.NewS3Client(ctx, cfg.S3())
	if err != nil {
		return nil, err
	}
	return export.NewShareStore(client, cfg.S3Bucket, cfg.ShareLinkTTL), nil
}
