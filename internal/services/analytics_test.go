package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olist-dashboard/internal/models"
)

type fakeSource struct {
	records []models.OrderRecord
	err     error
	calls   int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Load(ctx context.Context) ([]models.OrderRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewAnalytics(t *testing.T) {
	a := NewAnalytics()
	require.NotNil(t, a)
	assert.NotNil(t, a.logger)
	assert.Equal(t, Limits{TopLocations: 4, TopCategories: 10}, a.Limits())

	_, ok := a.Bounds()
	assert.False(t, ok)
}

func TestNewAnalytics_Options(t *testing.T) {
	logger := newTestLogger()
	a := NewAnalytics(WithLimits(Limits{TopLocations: 2}), WithLogger(logger))

	assert.Equal(t, Limits{TopLocations: 2, TopCategories: 10}, a.Limits())
	assert.Same(t, logger, a.logger)
}

func TestAnalytics_Load(t *testing.T) {
	src := &fakeSource{records: sampleRecords()}
	a := NewAnalytics(WithLogger(newTestLogger()))

	require.NoError(t, a.Load(context.Background(), src))

	bounds, ok := a.Bounds()
	require.True(t, ok)
	assert.Equal(t, day(2018, 1, 3), bounds.Start)
	assert.Equal(t, day(2018, 3, 20), bounds.End)

	stats := a.Stats()
	assert.Equal(t, 6, stats["record_count"])
	assert.Equal(t, "fake", stats["source"])
	assert.Equal(t, "2018-01-03", stats["min_date"])
	assert.Equal(t, "2018-03-20", stats["max_date"])
}

func TestAnalytics_LoadErrorKeepsData(t *testing.T) {
	a := NewAnalytics(WithLogger(newTestLogger()))
	require.NoError(t, a.Load(context.Background(), &fakeSource{records: sampleRecords()}))

	loadErr := errors.New("boom")
	err := a.Load(context.Background(), &fakeSource{err: loadErr})
	require.Error(t, err)
	assert.ErrorIs(t, err, loadErr)

	_, ok := a.Bounds()
	assert.True(t, ok)
	assert.Equal(t, 6, a.Stats()["record_count"])
}

func TestAnalytics_Reload(t *testing.T) {
	a := NewAnalytics(WithLogger(newTestLogger()))
	assert.ErrorIs(t, a.Reload(context.Background()), ErrNoSource)

	src := &fakeSource{records: sampleRecords()}
	require.NoError(t, a.Load(context.Background(), src))

	src.records = src.records[:2]
	require.NoError(t, a.Reload(context.Background()))
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, 2, a.Stats()["record_count"])
}

func TestParseRange(t *testing.T) {
	bounds := models.NewDateRange(day(2018, 1, 3), day(2018, 3, 20))

	tests := []struct {
		name      string
		start     string
		end       string
		want      models.DateRange
		expectErr bool
	}{
		{"defaults", "", "", bounds, false},
		{"start only", "2018-02-01", "", models.NewDateRange(day(2018, 2, 1), day(2018, 3, 20)), false},
		{"end only", "", "2018-02-01", models.NewDateRange(day(2018, 1, 3), day(2018, 2, 1)), false},
		{"both", "2018-01-10", "2018-01-20", models.NewDateRange(day(2018, 1, 10), day(2018, 1, 20)), false},
		{"single day", "2018-01-10", "2018-01-10", models.NewDateRange(day(2018, 1, 10), day(2018, 1, 10)), false},
		{"bad start", "01/02/2018", "", bounds, true},
		{"bad end", "", "2018-13-01", bounds, true},
		{"inverted", "2018-03-01", "2018-01-01", bounds, true},
		{"overlaps start", "2017-12-01", "2018-01-10", models.NewDateRange(day(2017, 12, 1), day(2018, 1, 10)), false},
		{"entirely after", "2030-01-01", "2030-02-01", bounds, true},
		{"entirely before", "2017-01-01", "2017-06-30", bounds, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.start, tt.end, bounds)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalytics_ResolveRange(t *testing.T) {
	a := NewAnalytics(WithLogger(newTestLogger()))
	a.SetData(sampleRecords())
	bounds, _ := a.Bounds()

	r, warning := a.ResolveRange("2018-01-10", "2018-02-10")
	assert.Empty(t, warning)
	assert.Equal(t, models.NewDateRange(day(2018, 1, 10), day(2018, 2, 10)), r)

	r, warning = a.ResolveRange("2018-02-10", "2018-01-10")
	assert.Contains(t, warning, "Invalid date range")
	assert.Equal(t, bounds, r)

	r, warning = a.ResolveRange("garbage", "")
	assert.NotEmpty(t, warning)
	assert.Equal(t, bounds, r)

	r, warning = a.ResolveRange("2030-01-01", "2030-02-01")
	assert.Contains(t, warning, "outside the dataset")
	assert.Equal(t, bounds, r)
}

func TestAnalytics_Recompute(t *testing.T) {
	a := NewAnalytics(WithLimits(Limits{TopLocations: 2, TopCategories: 1}), WithLogger(newTestLogger()))
	a.SetData(sampleRecords())

	t.Run("full range", func(t *testing.T) {
		bounds, _ := a.Bounds()
		tables := a.Recompute(context.Background(), bounds)

		assert.Equal(t, 6, tables.RecordCount)
		assert.Equal(t, 6, tables.TotalOrders)
		assert.InDelta(t, 120.0, tables.TotalRevenue, 1e-9)
		assert.Len(t, tables.Monthly, 3)
		assert.Len(t, tables.TopCities, 2)
		assert.Len(t, tables.TopStates, 2)
		assert.Len(t, tables.TopSatisfied, 1)
		assert.Equal(t, "bed_bath_table", tables.TopSatisfied[0].Category)
		require.NotNil(t, tables.ReviewValues.Mode)
		assert.Equal(t, "good", tables.ReviewValues.Mode.Value)
		require.NotNil(t, tables.AvgApprovalHours)
		assert.InDelta(t, 2.0, *tables.AvgApprovalHours, 1e-9)
		require.NotNil(t, tables.AvgDeliveryDays)
	})

	t.Run("range is clamped", func(t *testing.T) {
		tables := a.Recompute(context.Background(), models.NewDateRange(day(2017, 1, 1), day(2018, 1, 31)))
		assert.Equal(t, models.NewDateRange(day(2018, 1, 3), day(2018, 1, 31)), tables.Range)
		assert.Equal(t, 3, tables.RecordCount)
		assert.InDelta(t, 60.0, tables.TotalRevenue, 1e-9)
	})

	t.Run("empty selection", func(t *testing.T) {
		tables := a.Recompute(context.Background(), models.NewDateRange(day(2018, 2, 11), day(2018, 2, 28)))
		assert.Zero(t, tables.RecordCount)
		assert.Zero(t, tables.TotalOrders)
		assert.Zero(t, tables.TotalRevenue)
		assert.Empty(t, tables.Monthly)
		assert.Empty(t, tables.TopCities)
		assert.Nil(t, tables.ReviewValues.Mode)
		assert.Nil(t, tables.AvgApprovalHours)
		assert.Nil(t, tables.AvgDeliveryDays)
		assert.Empty(t, tables.TopSatisfied)
	})
}

func TestAnalytics_EmptyData(t *testing.T) {
	a := NewAnalytics(WithLogger(newTestLogger()))

	tables := a.Recompute(context.Background(), models.NewDateRange(day(2018, 1, 1), day(2018, 2, 1)))
	assert.Zero(t, tables.RecordCount)
	assert.NotNil(t, tables.Monthly)
	assert.Empty(t, tables.Monthly)
	assert.Empty(t, tables.TopCities)
	assert.Empty(t, tables.ReviewValues.Counts)

	stats := a.Stats()
	assert.Equal(t, 0, stats["record_count"])
	assert.NotContains(t, stats, "min_date")
}

func TestAnalytics_ConcurrentAccess(t *testing.T) {
	a := NewAnalytics(WithLogger(newTestLogger()))
	a.SetData(sampleRecords())
	bounds, _ := a.Bounds()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tables := a.Recompute(context.Background(), bounds)
			assert.NotEmpty(t, tables.Monthly)
		}()
		go func() {
			defer wg.Done()
			a.SetData(sampleRecords())
		}()
	}
	wg.Wait()
}

func BenchmarkAnalytics_Recompute(b *testing.B) {
	a := NewAnalytics(WithLogger(newTestLogger()))
	a.SetData(sampleRecords())
	bounds, _ := a.Bounds()
	ctx := context.Background()

	b.ResetTimer()
	for b.Loop() {
		_ = a.Recompute(ctx, bounds)
	}
}
