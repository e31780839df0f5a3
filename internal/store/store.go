// Package store keeps the order dataset in SQLite or Postgres as an
// alternative to the CSV file.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/models"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	timestampLayout = "2006-01-02T15:04:05Z"
)

const selectOrders = `SELECT order_id, customer_id, purchased_at, total_order_price,
	customer_city, customer_state, approval_time_diff, delivery_time_diff,
	on_time_delivery, review_score, review_comment, review_category, product_category
FROM orders
ORDER BY row_num`

const insertOrder = `INSERT INTO orders (row_num, order_id, customer_id, purchased_at, total_order_price,
	customer_city, customer_state, approval_time_diff, delivery_time_diff,
	on_time_delivery, review_score, review_comment, review_category, product_category)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

type Store struct {
	db     *sql.DB
	driver string
	dsn    string
}

// Open connects to the database and applies migrations.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(driver, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, driver: driver, dsn: dsn}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Name() string {
	if s.driver == DriverPostgres {
		return "postgres"
	}
	return s.driver + ":" + s.dsn
}

// Load returns every stored order in insertion order.
func (s *Store) Load(ctx context.Context) ([]models.OrderRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectOrders)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	records := make([]models.OrderRecord, 0)
	for rows.Next() {
		var (
			rec         models.OrderRecord
			purchasedAt string
		)
		if err := rows.Scan(
			&rec.OrderID,
			&rec.CustomerID,
			&purchasedAt,
			&rec.TotalOrderPrice,
			&rec.CustomerCity,
			&rec.CustomerState,
			&rec.ApprovalTimeDiff,
			&rec.DeliveryTimeDiff,
			&rec.OnTimeDelivery,
			&rec.ReviewScore,
			&rec.ReviewComment,
			&rec.ReviewCategory,
			&rec.ProductCategory,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		rec.PurchasedAt, err = dataset.ParseTimestamp(purchasedAt)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", rec.OrderID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no valid records found")
	}
	return records, nil
}

// ReplaceOrders swaps the stored dataset for records in one transaction.
func (s *Store) ReplaceOrders(ctx context.Context, records []models.OrderRecord) (int, error) {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders`); err != nil {
		return 0, fmt.Errorf("clear orders: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertOrder)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			i+1,
			rec.OrderID,
			rec.CustomerID,
			rec.PurchasedAt.UTC().Format(timestampLayout),
			rec.TotalOrderPrice,
			rec.CustomerCity,
			rec.CustomerState,
			rec.ApprovalTimeDiff,
			rec.DeliveryTimeDiff,
			rec.OnTimeDelivery,
			rec.ReviewScore,
			rec.ReviewComment,
			rec.ReviewCategory,
			rec.ProductCategory,
		); err != nil {
			return 0, fmt.Errorf("insert order %s: %w", rec.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "orders stored",
		"driver", s.driver,
		"records", len(records),
		"duration", time.Since(start))
	return len(records), nil
}
