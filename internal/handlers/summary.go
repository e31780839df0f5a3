package handlers

import (
	"net/http"

	"olist-dashboard/internal/format"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/services"
)

// Display controls how headline numbers are formatted.
type Display struct {
	Currency string
	Locale   string
}

func DefaultDisplay() Display {
	return Display{Currency: "BRL", Locale: "es-CO"}
}

// Summary holds the headline metrics shown above the charts.
type Summary struct {
	Range            models.DateRange      `json:"range"`
	TotalOrders      int                   `json:"total_orders"`
	TotalOrdersText  string                `json:"total_orders_display"`
	TotalRevenue     float64               `json:"total_revenue"`
	TotalRevenueText string                `json:"total_revenue_display"`
	TopCity          *models.LocationCount `json:"top_city"`
	TopState         *models.LocationCount `json:"top_state"`
	TopReviewValue   *models.ValueCount    `json:"top_review_value"`
	AvgApprovalHours *float64              `json:"avg_approval_hours"`
	AvgApprovalText  string                `json:"avg_approval_display"`
	AvgDeliveryDays  *float64              `json:"avg_delivery_days"`
	AvgDeliveryText  string                `json:"avg_delivery_display"`
	Satisfaction     []models.ValueCount   `json:"satisfaction"`
	MostSatisfied    *models.CategoryCount `json:"most_satisfied"`
	MostDissatisfied *models.CategoryCount `json:"most_dissatisfied"`
}

func buildSummary(t services.DerivedTables, d Display) Summary {
	return Summary{
		Range:            t.Range,
		TotalOrders:      t.TotalOrders,
		TotalOrdersText:  format.Count(t.TotalOrders),
		TotalRevenue:     t.TotalRevenue,
		TotalRevenueText: format.Money(t.TotalRevenue, d.Currency, d.Locale),
		TopCity:          first(t.TopCities),
		TopState:         first(t.TopStates),
		TopReviewValue:   t.ReviewValues.Mode,
		AvgApprovalHours: t.AvgApprovalHours,
		AvgApprovalText:  format.Hours(t.AvgApprovalHours),
		AvgDeliveryDays:  t.AvgDeliveryDays,
		AvgDeliveryText:  format.Days(t.AvgDeliveryDays),
		Satisfaction:     t.Satisfaction,
		MostSatisfied:    first(t.TopSatisfied),
		MostDissatisfied: first(t.TopDissatisfied),
	}
}

func first[T any](s []T) *T {
	if len(s) == 0 {
		return nil
	}
	v := s[0]
	return &v
}

// rangeParams reads the optional start/end query parameters.
func rangeParams(r *http.Request) (start, end string) {
	q := r.URL.Query()
	return q.Get("start"), q.Get("end")
}
