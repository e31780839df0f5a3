package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"olist-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// ParseStats describes one CSV parse.
type ParseStats struct {
	Rows    int
	Skipped int
	// MissingPrice counts kept rows whose price was blank or not a finite number.
	MissingPrice int
}

// LoadCSV reads an order dataset from r. The header must contain every
// column in RequiredColumns; otherwise a *SchemaError is returned before any
// row is read. Rows with an unreadable timestamp are skipped.
func LoadCSV(ctx context.Context, r io.Reader) ([]models.OrderRecord, ParseStats, error) {
	var stats ParseStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, stats, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, stats, fmt.Errorf("read header: %w", err)
	}

	idx, err := indexColumns(header)
	if err != nil {
		return nil, stats, err
	}

	records := make([]models.OrderRecord, 0, batchSize)
	batch := make([][]string, 0, batchSize)

	for {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stats.Skipped++
			continue
		}
		batch = append(batch, row)

		if len(batch) >= batchSize {
			if records, err = parseBatch(ctx, idx, batch, records, &stats); err != nil {
				return nil, stats, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if records, err = parseBatch(ctx, idx, batch, records, &stats); err != nil {
			return nil, stats, err
		}
	}

	if len(records) == 0 {
		return nil, stats, fmt.Errorf("no valid records found")
	}
	return records, stats, nil
}

// parseBatch parses rows concurrently and appends them to records in file order.
func parseBatch(ctx context.Context, idx columnIndex, batch [][]string, records []models.OrderRecord, stats *ParseStats) ([]models.OrderRecord, error) {
	type parsed struct {
		rec          models.OrderRecord
		valid        bool
		priceMissing bool
	}
	results := make([]parsed, len(batch))

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	for i, row := range batch {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, priceMissing, err := parseRecord(idx, row)
			if err != nil {
				return nil
			}
			results[i] = parsed{rec: rec, valid: true, priceMissing: priceMissing}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return records, err
	}

	for _, p := range results {
		stats.Rows++
		if !p.valid {
			stats.Skipped++
			continue
		}
		if p.priceMissing {
			stats.MissingPrice++
		}
		records = append(records, p.rec)
	}
	return records, nil
}

// CSVSource loads a CSV file, reusing a gob snapshot of the parsed records
// when one newer than the file exists in SnapshotDir.
type CSVSource struct {
	Path        string
	SnapshotDir string
	Logger      *slog.Logger
}

func NewCSVSource(path, snapshotDir string, logger *slog.Logger) *CSVSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSource{Path: path, SnapshotDir: snapshotDir, Logger: logger}
}

func (s *CSVSource) Name() string {
	return "csv:" + s.Path
}

func (s *CSVSource) Load(ctx context.Context) ([]models.OrderRecord, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}

	if s.SnapshotDir != "" {
		if snap, err := loadSnapshot(s.SnapshotDir, s.Path); err == nil && info.ModTime().Before(snap.CreatedAt) {
			s.Logger.Info("loaded dataset snapshot", "records", len(snap.Records), "created_at", snap.CreatedAt)
			return snap.Records, nil
		}
	}

	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	start := time.Now()
	records, stats, err := LoadCSV(ctx, file)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("csv parsed",
		"filename", s.Path,
		"rows", stats.Rows,
		"skipped", stats.Skipped,
		"missing_price", stats.MissingPrice,
		"duration", time.Since(start),
	)
	if stats.Skipped > 0 {
		s.Logger.Warn("skipped unreadable rows", "count", stats.Skipped)
	}

	if s.SnapshotDir != "" {
		if err := saveSnapshot(s.SnapshotDir, s.Path, records); err != nil {
			s.Logger.Warn("failed to save snapshot", "error", err)
		}
	}
	return records, nil
}
