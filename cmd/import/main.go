// Command import loads the order dataset CSV into the SQLite store used by
// DATASET_SOURCE=sqlite.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"olist-dashboard/internal/config"
	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	csvPath := flag.String("csv", cfg.Dataset.CSVFile, "dataset CSV file")
	dbPath := flag.String("db", cfg.Dataset.SQLitePath, "SQLite database file")
	timeout := flag.Duration("timeout", 5*time.Minute, "import timeout")
	flag.Parse()

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, logger, *csvPath, *dbPath); err != nil {
		var schemaErr *dataset.SchemaError
		if errors.As(err, &schemaErr) {
			logger.Error("dataset is missing required columns", "missing", schemaErr.Missing)
		} else {
			logger.Error("import failed", "error", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, csvPath, dbPath string) error {
	start := time.Now()

	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	records, stats, err := dataset.LoadCSV(ctx, file)
	if err != nil {
		return fmt.Errorf("parse %s: %w", csvPath, err)
	}
	logger.Info("csv parsed",
		"filename", csvPath,
		"rows", stats.Rows,
		"skipped", stats.Skipped,
		"missing_price", stats.MissingPrice,
	)

	st, err := store.Open(ctx, store.DriverSQLite, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.ReplaceOrders(ctx, records)
	if err != nil {
		return err
	}

	logger.Info("import completed",
		"database", dbPath,
		"records", n,
		"duration", time.Since(start),
	)
	return nil
}
