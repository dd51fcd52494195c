package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-invoicing/cmd/odyssey/cli"
	"github.com/odyssey-erp/odyssey-invoicing/internal/app"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/clients"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/companies"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/documents"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/export"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/products"
	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/render"
	"github.com/odyssey-erp/odyssey-invoicing/internal/observability"
	"github.com/odyssey-erp/odyssey-invoicing/internal/platform/db"
	"github.com/odyssey-erp/odyssey-invoicing/jobs"
	"github.com/odyssey-erp/odyssey-invoicing/migrations"
	"github.com/odyssey-erp/odyssey-invoicing/report"
)

const usage = `usage: odyssey [command]

commands:
  serve                    run the HTTP API (default)
  migrate                  apply pending database migrations
  render [flags] [file]    render a JSON document source to HTML offline
  jobs trigger <name>      enqueue overdue-sweep or idempotency-cleanup
  jobs stats [queue]       print queue statistics
`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	var code int
	switch cmd {
	case "serve":
		code = serve()
	case "migrate":
		code = migrate()
	case "render":
		code = renderCommand(args)
	case "jobs":
		code = jobsCommand(args)
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
	default:
		fmt.Fprintf(os.Stderr, "odyssey: unknown command %q\n\n%s", cmd, usage)
		code = 2
	}
	os.Exit(code)
}

func serve() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	registry := render.NewRegistry()
	reportClient := report.NewClient(cfg.GotenbergURL)

	shareStore, err := app.NewShareStore(ctx, cfg)
	if err != nil {
		logger.Error("init share store", slog.Any("error", err))
		return 1
	}
	printer, err := export.NewPrinterFromConfig(cfg.PrinterType, cfg.PrinterAddr)
	if err != nil {
		logger.Error("init printer", slog.Any("error", err))
		return 1
	}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	companiesService := companies.NewService(companies.NewRepository(dbpool))
	clientsService := clients.NewService(clients.NewRepository(dbpool))
	productsService := products.NewService(products.NewRepository(dbpool))
	documentsService := app.NewDocumentsService(cfg, app.DocumentDeps{
		Pool:     dbpool,
		Redis:    redisClient,
		Registry: registry,
		Report:   reportClient,
		Share:    shareStore,
		Printer:  printer,
		Enqueuer: jobClient,
		Metrics:  metrics,
		Logger:   logger,
	})

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		CompaniesHandler: companies.NewHandler(logger, companiesService),
		ClientsHandler:   clients.NewHandler(logger, clientsService),
		ProductsHandler:  products.NewHandler(logger, productsService),
		DocumentsHandler: documents.NewHandler(logger, documentsService),
		ReportHandler:    report.NewHandler(reportClient, registry, logger),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return 1
	}
	return 0
}

func migrate() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		return 1
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer pool.Close()

	applied, err := db.Migrate(ctx, pool, migrations.Files, logger)
	if err != nil {
		logger.Error("migrate", slog.Any("error", err))
		return 1
	}
	logger.Info("migrations complete", slog.Int("applied", applied))
	return 0
}

func renderCommand(args []string) int {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	template := fs.String("template", render.DefaultTemplate, "template id")
	currency := fs.String("currency", "", "fallback currency code")
	language := fs.String("language", "", "fallback language")
	primary := fs.String("primary-color", "", "theme primary colour")
	accent := fs.String("accent-color", "", "theme accent colour")
	font := fs.String("font-family", "", "theme font list")
	dataOnly := fs.Bool("data", false, "print the assembled document as JSON")
	strict := fs.Bool("strict", false, "exit 10 when the source produced warnings")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	theme := render.DefaultTheme()
	if *primary != "" {
		theme.PrimaryColor = *primary
	}
	if *accent != "" {
		theme.AccentColor = *accent
	}
	if *font != "" {
		theme.FontFamily = *font
	}

	opts := cli.RenderOptions{
		Template: *template,
		Theme:    theme,
		Currency: *currency,
		Language: *language,
		DataOnly: *dataOnly,
		Strict:   *strict,
	}
	if path := fs.Arg(0); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "render: %v\n", err)
			return 1
		}
		defer func() { _ = f.Close() }()
		opts.Input = f
	}
	return cli.NewRenderCLI(nil).RenderCommand(opts)
}

func jobsCommand(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}
	jobsCLI, err := cli.NewJobsCLI(redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jobs: %v\n", err)
		return 1
	}
	defer func() { _ = jobsCLI.Close() }()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "jobs trigger: name required (%s, %s)\n", cli.JobOverdueSweep, cli.JobIdempotencyCleanup)
			return 2
		}
		info, err := jobsCLI.Trigger(ctx, args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs trigger: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stdout, "enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
	case "stats":
		queue := ""
		if len(args) > 1 {
			queue = args[1]
		}
		stats, err := jobsCLI.InspectQueue(ctx, queue)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs stats: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stdout, "%s: pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	default:
		fmt.Fprintf(os.Stderr, "jobs: unknown subcommand %q\n", args[0])
		return 2
	}
	return 0
}
