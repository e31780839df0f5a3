package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"olist-dashboard/internal/config"
	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/handlers"
	"olist-dashboard/internal/middleware"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/server"
	"olist-dashboard/internal/services"
	"olist-dashboard/internal/store"
	"olist-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	cacheMaxAge   = "public, max-age=300"
)

// newDashboardHandler renders the page shell with the date picker preset to
// the dataset bounds.
func newDashboardHandler(analytics *services.Analytics, topLocations int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		page := templates.DefaultPage()
		if topLocations > 0 {
			page.TopLocations = topLocations
		}
		if bounds, ok := analytics.Bounds(); ok {
			page.Start = bounds.Start.Format(models.DayLayout)
			page.End = bounds.End.Format(models.DayLayout)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(page).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// openSource picks the dataset source named by the configuration. The returned
// closer releases a database connection and is nil for CSV.
func openSource(ctx context.Context, cfg config.DatasetConfig, logger *slog.Logger) (services.Source, io.Closer, error) {
	switch cfg.Source {
	case config.SourceCSV:
		return dataset.NewCSVSource(cfg.CSVFile, cfg.SnapshotDir, logger), nil, nil
	case config.SourceSQLite:
		st, err := store.Open(ctx, store.DriverSQLite, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil
	case config.SourcePostgres:
		st, err := store.Open(ctx, store.DriverPostgres, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil
	default:
		return nil, nil, fmt.Errorf("unknown dataset source %q", cfg.Source)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"address", cfg.Address(),
		"dataset_source", cfg.Dataset.Source,
	)

	analytics := services.NewAnalytics(
		services.WithLimits(services.Limits{
			TopLocations:  cfg.Dashboard.TopLocations,
			TopCategories: cfg.Dashboard.TopCategories,
		}),
		services.WithLogger(logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Dataset.LoadTimeout)
	defer cancel()

	src, closer, err := openSource(ctx, cfg.Dataset, logger)
	if err != nil {
		logger.Error("failed to open dataset source", "source", cfg.Dataset.Source, "error", err)
		os.Exit(1)
	}

	if err := analytics.Load(ctx, src); err != nil {
		var schemaErr *dataset.SchemaError
		if errors.As(err, &schemaErr) {
			logger.Error("dataset is missing required columns", "missing", schemaErr.Missing)
		} else {
			logger.Error("failed to load dataset", "error", err)
		}
		os.Exit(1)
	}

	templateHandlers := &server.TemplateHandlers{
		Dashboard: newDashboardHandler(analytics, cfg.Dashboard.TopLocations),
	}

	display := handlers.Display{
		Currency: cfg.Dashboard.Currency,
		Locale:   cfg.Dashboard.CurrencyLocale,
	}
	srv := server.NewServer(analytics, logger, display, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	if closer != nil {
		gracefulServer.RegisterShutdownHook("dataset store", func(ctx context.Context) error {
			logger.Info("closing dataset store")
			return closer.Close()
		})
	}

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
