package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"olist-dashboard/internal/models"
	"olist-dashboard/internal/observability"
)

const (
	DefaultTopLocations  = 4
	DefaultTopCategories = 10
)

// Source yields the validated order records of a dataset.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]models.OrderRecord, error)
}

type Limits struct {
	TopLocations  int
	TopCategories int
}

// DerivedTables is everything the dashboard shows for one date range.
type DerivedTables struct {
	Range       models.DateRange `json:"range"`
	RecordCount int              `json:"record_count"`

	Monthly      []models.MonthlyRollup `json:"monthly"`
	TotalOrders  int                    `json:"total_orders"`
	TotalRevenue float64                `json:"total_revenue"`

	TopCities []models.LocationCount `json:"top_cities"`
	TopStates []models.LocationCount `json:"top_states"`

	ReviewValues ReviewDistribution `json:"review_values"`

	AvgApprovalHours *float64            `json:"avg_approval_hours"`
	AvgDeliveryDays  *float64            `json:"avg_delivery_days"`
	ApprovalTrend    []models.TrendPoint `json:"approval_trend"`
	DeliveryTrend    []models.TrendPoint `json:"delivery_trend"`

	OnTime          []models.ValueCount    `json:"on_time"`
	Satisfaction    []models.ValueCount    `json:"satisfaction"`
	TopSatisfied    []models.CategoryCount `json:"top_satisfied"`
	TopDissatisfied []models.CategoryCount `json:"top_dissatisfied"`
}

// Recompute derives every dashboard table from records filtered to r.
func Recompute(records []models.OrderRecord, r models.DateRange, limits Limits) DerivedTables {
	filtered := FilterByRange(records, r)
	monthly := MonthlyRollup(filtered)
	orders, revenue := RollupTotals(monthly)
	categories := CategorySatisfactionCounts(filtered)

	if bounds, ok := Bounds(records); ok {
		r = ClampRange(models.NewDateRange(r.Start, r.End), bounds)
	}

	tables := DerivedTables{
		Range:           r,
		RecordCount:     len(filtered),
		Monthly:         monthly,
		TotalOrders:     orders,
		TotalRevenue:    revenue,
		TopCities:       TopByLocation(filtered, models.FieldCity, limits.TopLocations),
		TopStates:       TopByLocation(filtered, models.FieldState, limits.TopLocations),
		ReviewValues:    ReviewValueDistribution(filtered),
		ApprovalTrend:   TimeDiffTrend(filtered, models.MetricApproval),
		DeliveryTrend:   TimeDiffTrend(filtered, models.MetricDelivery),
		OnTime:          OnTimeDistribution(filtered),
		Satisfaction:    SatisfactionDistribution(filtered),
		TopSatisfied:    categories.Top(models.Satisfied, limits.TopCategories),
		TopDissatisfied: categories.Top(models.Dissatisfied, limits.TopCategories),
	}
	if v, ok := MeanMetric(filtered, models.MetricApproval); ok {
		tables.AvgApprovalHours = &v
	}
	if v, ok := MeanMetric(filtered, models.MetricDelivery); ok {
		tables.AvgDeliveryDays = &v
	}
	return tables
}

// Analytics holds the loaded dataset. Records are never mutated after a load;
// each request recomputes its own derived tables.
type Analytics struct {
	mu       sync.RWMutex
	records  []models.OrderRecord
	bounds   models.DateRange
	src      Source
	source   string
	loadedAt time.Time
	limits   Limits
	logger   *slog.Logger
}

type Option func(*Analytics)

func WithLimits(limits Limits) Option {
	return func(a *Analytics) {
		if limits.TopLocations > 0 {
			a.limits.TopLocations = limits.TopLocations
		}
		if limits.TopCategories > 0 {
			a.limits.TopCategories = limits.TopCategories
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		records: []models.OrderRecord{},
		limits:  Limits{TopLocations: DefaultTopLocations, TopCategories: DefaultTopCategories},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analytics) SetData(records []models.OrderRecord) {
	bounds, _ := Bounds(records)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = records
	a.bounds = bounds
	a.loadedAt = time.Now()
}

// Load replaces the dataset with the records of src.
func (a *Analytics) Load(ctx context.Context, src Source) error {
	start := time.Now()
	a.logger.Info("loading dataset", "source", src.Name())

	records, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", src.Name(), err)
	}

	a.SetData(records)
	a.mu.Lock()
	a.src = src
	a.source = src.Name()
	a.mu.Unlock()

	duration := time.Since(start)
	a.logger.Info("dataset loaded",
		"source", src.Name(),
		"records", len(records),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(records))/duration.Seconds()))
	return nil
}

// ErrNoSource is returned by Reload before any source has been loaded.
var ErrNoSource = errors.New("no dataset source loaded")

// Reload reads the last loaded source again. On failure the current dataset
// stays in place.
func (a *Analytics) Reload(ctx context.Context) error {
	a.mu.RLock()
	src := a.src
	a.mu.RUnlock()

	if src == nil {
		return ErrNoSource
	}
	return a.Load(ctx, src)
}

func (a *Analytics) Bounds() (models.DateRange, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.bounds, len(a.records) > 0
}

func (a *Analytics) Limits() Limits {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.limits
}

// ResolveRange parses user supplied YYYY-MM-DD bounds. Empty values default to
// the dataset bounds. Unparseable or inverted input falls back to the full
// bounds and returns a warning for display.
func (a *Analytics) ResolveRange(start, end string) (models.DateRange, string) {
	bounds, _ := a.Bounds()
	r, err := ParseRange(start, end, bounds)
	if err != nil {
		return bounds, fmt.Sprintf("Invalid date range (%v), showing the full dataset instead.", err)
	}
	return r, ""
}

// ParseRange parses start and end against the defaults in bounds.
func ParseRange(start, end string, bounds models.DateRange) (models.DateRange, error) {
	r := bounds
	if start != "" {
		t, err := time.Parse(models.DayLayout, start)
		if err != nil {
			return bounds, fmt.Errorf("start %q: %w", start, err)
		}
		r.Start = t
	}
	if end != "" {
		t, err := time.Parse(models.DayLayout, end)
		if err != nil {
			return bounds, fmt.Errorf("end %q: %w", end, err)
		}
		r.End = t
	}
	if !r.Valid() {
		return bounds, fmt.Errorf("start %s is after end %s", r.Start.Format(models.DayLayout), r.End.Format(models.DayLayout))
	}
	if !bounds.Start.IsZero() && (r.End.Before(bounds.Start) || r.Start.After(bounds.End)) {
		return bounds, fmt.Errorf("range %s lies outside the dataset (%s)", r, bounds)
	}
	return r, nil
}

// Recompute derives the dashboard tables for r from the current dataset.
func (a *Analytics) Recompute(ctx context.Context, r models.DateRange) DerivedTables {
	spanCtx, span := observability.StartSpan(ctx, "analytics.recompute")
	defer span.Log(spanCtx, a.logger)

	a.mu.RLock()
	records, limits := a.records, a.limits
	a.mu.RUnlock()

	span.SetTag("range", r.String())
	tables := Recompute(records, r, limits)
	span.SetTag("records", fmt.Sprint(tables.RecordCount))
	return tables
}

// Stats is used by the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"record_count": len(a.records),
		"source":       a.source,
		"loaded_at":    a.loadedAt,
	}
	if len(a.records) > 0 {
		stats["min_date"] = a.bounds.Start.Format(models.DayLayout)
		stats["max_date"] = a.bounds.End.Format(models.DayLayout)
	}
	return stats
}
