// Package dataset loads the order-level dashboard dataset and checks it
// against the required column contract.
package dataset

import (
	"fmt"
	"strings"
)

const (
	ColPurchaseTimestamp = "order_purchase_timestamp"
	ColOrderID           = "order_id"
	ColTotalOrderPrice   = "total_order_price"
	ColCustomerCity      = "customer_city"
	ColCustomerState     = "customer_state"
	ColReviewComment     = "review_comment_value"
	ColApprovalTimeDiff  = "approval_time_diff"
	ColDeliveryTimeDiff  = "delivery_time_diff"
	ColOnTimeDelivery    = "on_time_delivery"
	ColReviewScore       = "review_score"
	ColReviewCategory    = "review_category"
	ColProductCategory   = "product_category_name_english"
	ColCustomerID        = "customer_id"
)

// RequiredColumns must all be present in the header of a dataset.
var RequiredColumns = []string{
	ColPurchaseTimestamp,
	ColOrderID,
	ColTotalOrderPrice,
	ColCustomerCity,
	ColCustomerState,
	ColReviewComment,
	ColApprovalTimeDiff,
	ColDeliveryTimeDiff,
	ColOnTimeDelivery,
	ColReviewScore,
	ColReviewCategory,
	ColProductCategory,
	ColCustomerID,
}

// SchemaError reports required columns missing from a dataset header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing columns in dataset: %s", strings.Join(e.Missing, ", "))
}

// columnIndex maps every required column to its position in header.
type columnIndex map[string]int

func indexColumns(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return idx, nil
}

func (c columnIndex) get(row []string, col string) string {
	i := c[col]
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
