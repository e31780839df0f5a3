package dataset

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"olist-dashboard/internal/models"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	models.DayLayout,
}

// ParseTimestamp accepts the timestamp formats found in exported datasets.
// Values without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func isNull(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "null", "none", "na", "n/a":
		return true
	}
	return false
}

// parseNullFloat treats unreadable and non-finite values as missing.
func parseNullFloat(s string) sql.NullFloat64 {
	if isNull(s) {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func parseNullString(s string) sql.NullString {
	if isNull(s) {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ParseFlag reads the boolean-like on-time delivery column.
func ParseFlag(s string) sql.NullBool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true", "t", "yes", "y", "on time":
		return sql.NullBool{Bool: true, Valid: true}
	case "0", "0.0", "false", "f", "no", "n", "late":
		return sql.NullBool{Bool: false, Valid: true}
	}
	return sql.NullBool{}
}

// parseScore returns 0 for a missing or unreadable score. Scores may be
// exported as floats ("5.0").
func parseScore(s string) int {
	if isNull(s) {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

// parseRecord fails only on an unreadable purchase timestamp. A missing price
// keeps the row at a price of 0; the second result reports it.
func parseRecord(idx columnIndex, row []string) (models.OrderRecord, bool, error) {
	purchasedAt, err := ParseTimestamp(idx.get(row, ColPurchaseTimestamp))
	if err != nil {
		return models.OrderRecord{}, false, err
	}

	price := parseNullFloat(idx.get(row, ColTotalOrderPrice))

	return models.OrderRecord{
		OrderID:          idx.get(row, ColOrderID),
		CustomerID:       idx.get(row, ColCustomerID),
		PurchasedAt:      purchasedAt,
		TotalOrderPrice:  price.Float64,
		CustomerCity:     idx.get(row, ColCustomerCity),
		CustomerState:    idx.get(row, ColCustomerState),
		ApprovalTimeDiff: parseNullFloat(idx.get(row, ColApprovalTimeDiff)),
		DeliveryTimeDiff: parseNullFloat(idx.get(row, ColDeliveryTimeDiff)),
		OnTimeDelivery:   ParseFlag(idx.get(row, ColOnTimeDelivery)),
		ReviewScore:      parseScore(idx.get(row, ColReviewScore)),
		ReviewComment:    parseNullString(idx.get(row, ColReviewComment)),
		ReviewCategory:   idx.get(row, ColReviewCategory),
		ProductCategory:  idx.get(row, ColProductCategory),
	}, !price.Valid, nil
}
