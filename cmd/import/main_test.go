package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/store"
)

const header = "order_id,customer_id,order_purchase_timestamp,total_order_price,customer_city,customer_state," +
	"review_comment_value,approval_time_diff,delivery_time_diff,on_time_delivery,review_score," +
	"review_category,product_category_name_english\n"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun_ImportsInFileOrder(t *testing.T) {
	csvPath := writeCSV(t, header+
		"o3,c3,2018-03-01 10:00:00,30,curitiba,PR,good,1,5,1,5,positive,toys\n"+
		"o1,c1,2018-01-01 10:00:00,10,sao paulo,SP,,,,0,1,negative,bed_bath_table\n"+
		"o2,c2,2018-02-01 10:00:00,,rio de janeiro,RJ,bad,2,,,3,neutral,\n")
	dbPath := filepath.Join(t.TempDir(), "data", "orders.db")
	ctx := context.Background()

	require.NoError(t, run(ctx, testLogger(), csvPath, dbPath))

	st, err := store.Open(ctx, store.DriverSQLite, dbPath)
	require.NoError(t, err)
	defer st.Close()

	got, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	ids := make([]string, len(got))
	for i, rec := range got {
		ids[i] = rec.OrderID
	}
	assert.Equal(t, []string{"o3", "o1", "o2"}, ids)
	assert.Zero(t, got[2].TotalOrderPrice)
	assert.Equal(t, "rio de janeiro", got[2].CustomerCity)
}

func TestRun_ReplacesPreviousImport(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "orders.db")
	ctx := context.Background()

	first := writeCSV(t, header+
		"o1,c1,2018-01-01 10:00:00,10,sao paulo,SP,,,,,5,,\n"+
		"o2,c2,2018-01-02 10:00:00,20,sao paulo,SP,,,,,5,,\n")
	require.NoError(t, run(ctx, testLogger(), first, dbPath))

	second := writeCSV(t, header+"o9,c9,2018-05-01 10:00:00,90,natal,RN,,,,,4,,\n")
	require.NoError(t, run(ctx, testLogger(), second, dbPath))

	st, err := store.Open(ctx, store.DriverSQLite, dbPath)
	require.NoError(t, err)
	defer st.Close()

	got, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "o9", got[0].OrderID)
}

func TestRun_SchemaError(t *testing.T) {
	csvPath := writeCSV(t, "order_id,total_order_price\no1,10\n")

	err := run(context.Background(), testLogger(), csvPath, filepath.Join(t.TempDir(), "orders.db"))
	require.Error(t, err)

	var schemaErr *dataset.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, schemaErr.Missing, "customer_id")
}

func TestRun_MissingFile(t *testing.T) {
	err := run(context.Background(), testLogger(), filepath.Join(t.TempDir(), "absent.csv"), filepath.Join(t.TempDir(), "orders.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open csv")
}
