package services

import (
	"cmp"
	"slices"
	"time"

	"olist-dashboard/internal/models"
)

const (
	rollupLabelLayout = "2006-January"
	trendLabelLayout  = "2006-01"
)

// Bounds returns the day-truncated min and max purchase timestamps.
func Bounds(records []models.OrderRecord) (models.DateRange, bool) {
	if len(records) == 0 {
		return models.DateRange{}, false
	}
	lo, hi := records[0].PurchasedAt, records[0].PurchasedAt
	for _, rec := range records[1:] {
		if rec.PurchasedAt.Before(lo) {
			lo = rec.PurchasedAt
		}
		if rec.PurchasedAt.After(hi) {
			hi = rec.PurchasedAt
		}
	}
	return models.NewDateRange(lo, hi), true
}

// ClampRange moves each end of r into the bounds. A range lying entirely
// outside the bounds collapses onto the nearest bound's day; an inverted r
// stays inverted.
func ClampRange(r, bounds models.DateRange) models.DateRange {
	clamp := func(t time.Time) time.Time {
		switch {
		case t.Before(bounds.Start):
			return bounds.Start
		case t.After(bounds.End):
			return bounds.End
		}
		return t
	}
	return models.DateRange{Start: clamp(r.Start), End: clamp(r.End)}
}

// FilterByRange keeps the records purchased within r, in their original order.
func FilterByRange(records []models.OrderRecord, r models.DateRange) []models.OrderRecord {
	bounds, ok := Bounds(records)
	if !ok {
		return []models.OrderRecord{}
	}
	r = ClampRange(models.NewDateRange(r.Start, r.End), bounds)
	if !r.Valid() {
		return []models.OrderRecord{}
	}

	filtered := make([]models.OrderRecord, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.PurchasedAt) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// MonthlyRollup buckets records by purchase month. Every month between the
// first and last order is present, empty months with zero count and revenue.
func MonthlyRollup(records []models.OrderRecord) []models.MonthlyRollup {
	if len(records) == 0 {
		return []models.MonthlyRollup{}
	}

	type bucket struct {
		orders  map[string]struct{}
		revenue float64
	}
	buckets := make(map[time.Time]*bucket)
	first, last := models.TruncateMonth(records[0].PurchasedAt), models.TruncateMonth(records[0].PurchasedAt)

	for _, rec := range records {
		month := models.TruncateMonth(rec.PurchasedAt)
		b := buckets[month]
		if b == nil {
			b = &bucket{orders: make(map[string]struct{})}
			buckets[month] = b
		}
		b.orders[rec.OrderID] = struct{}{}
		b.revenue += rec.TotalOrderPrice

		if month.Before(first) {
			first = month
		}
		if month.After(last) {
			last = month
		}
	}

	result := make([]models.MonthlyRollup, 0, len(buckets))
	for month := first; !month.After(last); month = month.AddDate(0, 1, 0) {
		row := models.MonthlyRollup{Month: month, Label: month.Format(rollupLabelLayout)}
		if b := buckets[month]; b != nil {
			row.OrderCount = len(b.orders)
			row.Revenue = b.revenue
		}
		result = append(result, row)
	}
	return result
}

// RollupTotals sums the order counts and revenue of a rollup.
func RollupTotals(rows []models.MonthlyRollup) (orders int, revenue float64) {
	for _, row := range rows {
		orders += row.OrderCount
		revenue += row.Revenue
	}
	return orders, revenue
}

// TopByLocation ranks locations by distinct customers. Equal counts are
// ordered by location name. n <= 0 returns every location.
func TopByLocation(records []models.OrderRecord, field models.LocationField, n int) []models.LocationCount {
	customers := make(map[string]map[string]struct{})
	for _, rec := range records {
		key := rec.CustomerCity
		if field == models.FieldState {
			key = rec.CustomerState
		}
		set := customers[key]
		if set == nil {
			set = make(map[string]struct{})
			customers[key] = set
		}
		set[rec.CustomerID] = struct{}{}
	}

	result := make([]models.LocationCount, 0, len(customers))
	for location, set := range customers {
		result = append(result, models.LocationCount{Location: location, CustomerCount: len(set)})
	}
	slices.SortFunc(result, func(a, b models.LocationCount) int {
		if c := cmp.Compare(b.CustomerCount, a.CustomerCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Location, b.Location)
	})
	return limit(result, n)
}

type ReviewDistribution struct {
	Counts []models.ValueCount `json:"counts"`
	// Mode is the most frequent non-missing value; nil when there is none.
	Mode *models.ValueCount `json:"mode"`
}

// ReviewValueDistribution counts review comment values, with missing values
// in their own bucket.
func ReviewValueDistribution(records []models.OrderRecord) ReviewDistribution {
	counts := make(map[string]int)
	missing := 0
	for _, rec := range records {
		if !rec.ReviewComment.Valid {
			missing++
			continue
		}
		counts[rec.ReviewComment.String]++
	}

	dist := ReviewDistribution{Counts: make([]models.ValueCount, 0, len(counts)+1)}
	for value, n := range counts {
		dist.Counts = append(dist.Counts, models.ValueCount{Value: value, Count: n})
	}
	if missing > 0 {
		dist.Counts = append(dist.Counts, models.ValueCount{Missing: true, Count: missing})
	}
	slices.SortFunc(dist.Counts, compareValueCounts)

	for i := range dist.Counts {
		if !dist.Counts[i].Missing {
			mode := dist.Counts[i]
			dist.Mode = &mode
			break
		}
	}
	return dist
}

func compareValueCounts(a, b models.ValueCount) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	if a.Missing != b.Missing {
		if a.Missing {
			return 1
		}
		return -1
	}
	return cmp.Compare(a.Value, b.Value)
}

func metricValue(rec models.OrderRecord, metric models.TimeMetric) (float64, bool) {
	switch metric {
	case models.MetricApproval:
		return rec.ApprovalTimeDiff.Float64, rec.ApprovalTimeDiff.Valid
	case models.MetricDelivery:
		return rec.DeliveryTimeDiff.Float64, rec.DeliveryTimeDiff.Valid
	default:
		return 0, false
	}
}

// TimeDiffTrend averages metric per purchase month. Months without a single
// valid observation are left out.
func TimeDiffTrend(records []models.OrderRecord, metric models.TimeMetric) []models.TrendPoint {
	type acc struct {
		sum float64
		n   int
	}
	months := make(map[time.Time]*acc)
	for _, rec := range records {
		v, ok := metricValue(rec, metric)
		if !ok {
			continue
		}
		month := models.TruncateMonth(rec.PurchasedAt)
		a := months[month]
		if a == nil {
			a = &acc{}
			months[month] = a
		}
		a.sum += v
		a.n++
	}

	result := make([]models.TrendPoint, 0, len(months))
	for month, a := range months {
		result = append(result, models.TrendPoint{
			Month: month,
			Label: month.Format(trendLabelLayout),
			Mean:  a.sum / float64(a.n),
		})
	}
	slices.SortFunc(result, func(a, b models.TrendPoint) int {
		return a.Month.Compare(b.Month)
	})
	return result
}

// MeanMetric averages metric over all records that carry it.
func MeanMetric(records []models.OrderRecord, metric models.TimeMetric) (float64, bool) {
	var sum float64
	n := 0
	for _, rec := range records {
		if v, ok := metricValue(rec, metric); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// SatisfactionForScore maps a 1..5 review score to its label.
func SatisfactionForScore(score int) models.SatisfactionLabel {
	switch {
	case score < 1 || score > 5:
		return models.Unrated
	case score >= 4:
		return models.Satisfied
	case score <= 2:
		return models.Dissatisfied
	default:
		return models.Neutral
	}
}

func ClassifySatisfaction(rec models.OrderRecord) models.SatisfactionLabel {
	return SatisfactionForScore(rec.ReviewScore)
}

var satisfactionOrder = []models.SatisfactionLabel{models.Satisfied, models.Neutral, models.Dissatisfied}

// SatisfactionDistribution counts records per label. Unrated records are not counted.
func SatisfactionDistribution(records []models.OrderRecord) []models.ValueCount {
	counts := make(map[models.SatisfactionLabel]int, len(satisfactionOrder))
	for _, rec := range records {
		counts[ClassifySatisfaction(rec)]++
	}
	result := make([]models.ValueCount, 0, len(satisfactionOrder))
	for _, label := range satisfactionOrder {
		result = append(result, models.ValueCount{Value: string(label), Count: counts[label]})
	}
	return result
}

// OnTimeDistribution counts on-time ("Yes"), late ("No") and unknown deliveries.
func OnTimeDistribution(records []models.OrderRecord) []models.ValueCount {
	var yes, no, missing int
	for _, rec := range records {
		switch {
		case !rec.OnTimeDelivery.Valid:
			missing++
		case rec.OnTimeDelivery.Bool:
			yes++
		default:
			no++
		}
	}
	result := []models.ValueCount{
		{Value: "Yes", Count: yes},
		{Value: "No", Count: no},
	}
	if missing > 0 {
		result = append(result, models.ValueCount{Missing: true, Count: missing})
	}
	return result
}

type categoryKey struct {
	category string
	label    models.SatisfactionLabel
}

// CategorySatisfaction is the product category by satisfaction label cross-tab.
type CategorySatisfaction struct {
	counts map[categoryKey]int
}

// CategorySatisfactionCounts cross-tabulates product category against the
// satisfaction label. Records without a category or with an unrated score are
// not counted.
func CategorySatisfactionCounts(records []models.OrderRecord) CategorySatisfaction {
	cs := CategorySatisfaction{counts: make(map[categoryKey]int)}
	for _, rec := range records {
		label := ClassifySatisfaction(rec)
		if rec.ProductCategory == "" || label == models.Unrated {
			continue
		}
		cs.counts[categoryKey{rec.ProductCategory, label}]++
	}
	return cs
}

func (cs CategorySatisfaction) Count(category string, label models.SatisfactionLabel) int {
	return cs.counts[categoryKey{category, label}]
}

func (cs CategorySatisfaction) Len() int {
	return len(cs.counts)
}

// Top ranks categories by their count for label, ties by category name.
// k <= 0 returns every category.
func (cs CategorySatisfaction) Top(label models.SatisfactionLabel, k int) []models.CategoryCount {
	result := make([]models.CategoryCount, 0)
	for key, n := range cs.counts {
		if key.label == label {
			result = append(result, models.CategoryCount{Category: key.category, Label: label, Count: n})
		}
	}
	slices.SortFunc(result, func(a, b models.CategoryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return limit(result, k)
}

func limit[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
