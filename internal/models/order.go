package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// OrderRecord is one row of the order-level dataset.
type OrderRecord struct {
	OrderID          string
	CustomerID       string
	PurchasedAt      time.Time
	TotalOrderPrice  float64
	CustomerCity     string
	CustomerState    string
	ApprovalTimeDiff sql.NullFloat64 // hours
	DeliveryTimeDiff sql.NullFloat64 // days
	OnTimeDelivery   sql.NullBool
	ReviewScore      int
	ReviewComment    sql.NullString
	ReviewCategory   string
	ProductCategory  string
}

// DateRange is a closed interval of calendar days. End covers the whole day.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: TruncateDay(start), End: TruncateDay(end)}
}

// Contains reports whether ts falls on or between the range's days.
func (r DateRange) Contains(ts time.Time) bool {
	return !ts.Before(r.Start) && ts.Before(r.End.AddDate(0, 0, 1))
}

func (r DateRange) Valid() bool {
	return !r.Start.After(r.End)
}

func (r DateRange) String() string {
	return r.Start.Format(DayLayout) + ".." + r.End.Format(DayLayout)
}

func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"start": r.Start.Format(DayLayout),
		"end":   r.End.Format(DayLayout),
	})
}

const DayLayout = "2006-01-02"

func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func TruncateMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

type LocationField string

const (
	FieldCity  LocationField = "city"
	FieldState LocationField = "state"
)

type TimeMetric string

const (
	MetricApproval TimeMetric = "approval_time_diff"
	MetricDelivery TimeMetric = "delivery_time_diff"
)

type SatisfactionLabel string

const (
	Satisfied    SatisfactionLabel = "Satisfied"
	Neutral      SatisfactionLabel = "Neutral"
	Dissatisfied SatisfactionLabel = "Dissatisfied"
	// Unrated covers scores outside 1..5, including a missing score.
	Unrated SatisfactionLabel = "Unrated"
)

type MonthlyRollup struct {
	Month      time.Time `json:"-"`
	Label      string    `json:"order_date"`
	OrderCount int       `json:"order_count"`
	Revenue    float64   `json:"revenue"`
}

type LocationCount struct {
	Location      string `json:"location"`
	CustomerCount int    `json:"customer_count"`
}

type ValueCount struct {
	Value   string `json:"value"`
	Missing bool   `json:"missing,omitempty"`
	Count   int    `json:"count"`
}

type TrendPoint struct {
	Month time.Time `json:"-"`
	Label string    `json:"month"`
	Mean  float64   `json:"mean"`
}

type CategoryCount struct {
	Category string            `json:"category"`
	Label    SatisfactionLabel `json:"label"`
	Count    int               `json:"count"`
}
