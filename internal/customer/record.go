package customer

import (
	"fmt"
	"math"
	"time"
)

// Column names of the omnichannel customer dataset.
const (
	ColMasterID             = "master_id"
	ColOrderChannel         = "order_channel"
	ColLastOrderChannel     = "last_order_channel"
	ColFirstOrderDate       = "first_order_date"
	ColLastOrderDate        = "last_order_date"
	ColLastOrderDateOnline  = "last_order_date_online"
	ColLastOrderDateOffline = "last_order_date_offline"
	ColOrderNumOnline       = "order_num_total_ever_online"
	ColOrderNumOffline      = "order_num_total_ever_offline"
	ColValueOffline         = "customer_value_total_ever_offline"
	ColValueOnline          = "customer_value_total_ever_online"
	ColCategories           = "interested_in_categories_12"
)

// Columns lists every column the loaders require, in export order.
var Columns = []string{
	ColMasterID,
	ColOrderChannel,
	ColLastOrderChannel,
	ColFirstOrderDate,
	ColLastOrderDate,
	ColLastOrderDateOnline,
	ColLastOrderDateOffline,
	ColOrderNumOnline,
	ColOrderNumOffline,
	ColValueOffline,
	ColValueOnline,
	ColCategories,
}

// Record is one customer's purchase history as supplied by a data source.
type Record struct {
	MasterID             string      `json:"master_id"`
	OrderChannel         string      `json:"order_channel"`
	LastOrderChannel     string      `json:"last_order_channel"`
	FirstOrderDate       time.Time   `json:"first_order_date"`
	LastOrderDate        time.Time   `json:"last_order_date"`
	LastOrderDateOnline  time.Time   `json:"last_order_date_online"`
	LastOrderDateOffline time.Time   `json:"last_order_date_offline"`
	OrderNumOnline       float64     `json:"order_num_total_ever_online"`
	OrderNumOffline      float64     `json:"order_num_total_ever_offline"`
	ValueOffline         float64     `json:"customer_value_total_ever_offline"`
	ValueOnline          float64     `json:"customer_value_total_ever_online"`
	Categories           CategorySet `json:"interested_in_categories_12"`
}

// ValidationError pinpoints the offending row and column of a malformed input.
// Row is 1-based over data rows; 0 refers to the header or schema.
type ValidationError struct {
	Row    int
	Column string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
	}
	if e.Value == "" {
		return fmt.Sprintf("row %d, column %q: %s", e.Row, e.Column, e.Reason)
	}
	return fmt.Sprintf("row %d, column %q: %s (value %q)", e.Row, e.Column, e.Reason, e.Value)
}

// Validate checks the invariants every data source must uphold.
func (r Record) Validate(row int) error {
	if r.MasterID == "" {
		return &ValidationError{Row: row, Column: ColMasterID, Reason: "empty customer identifier"}
	}

	numeric := []struct {
		col   string
		val   float64
		count bool
	}{
		{ColOrderNumOnline, r.OrderNumOnline, true},
		{ColOrderNumOffline, r.OrderNumOffline, true},
		{ColValueOffline, r.ValueOffline, false},
		{ColValueOnline, r.ValueOnline, false},
	}
	for _, n := range numeric {
		switch {
		case math.IsNaN(n.val) || math.IsInf(n.val, 0):
			return &ValidationError{Row: row, Column: n.col, Value: fmt.Sprint(n.val), Reason: "not a finite number"}
		case n.val < 0:
			return &ValidationError{Row: row, Column: n.col, Value: fmt.Sprint(n.val), Reason: "negative value"}
		case n.count && n.val != math.Trunc(n.val):
			return &ValidationError{Row: row, Column: n.col, Value: fmt.Sprint(n.val), Reason: "order count is not a whole number"}
		}
	}

	if r.FirstOrderDate.IsZero() {
		return &ValidationError{Row: row, Column: ColFirstOrderDate, Reason: "missing timestamp"}
	}
	if r.LastOrderDate.IsZero() {
		return &ValidationError{Row: row, Column: ColLastOrderDate, Reason: "missing timestamp"}
	}
	if r.LastOrderDate.Before(r.FirstOrderDate) {
		return &ValidationError{
			Row:    row,
			Column: ColLastOrderDate,
			Value:  r.LastOrderDate.Format(time.DateOnly),
			Reason: "last order precedes first order",
		}
	}
	return nil
}
