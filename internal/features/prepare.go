package features

import (
	"cmp"
	"slices"

	"cltv-rfm/internal/customer"
	"cltv-rfm/internal/stats"

	"github.com/rs/zerolog/log"
)

// Customer is a record after outlier capping, enriched with cross-channel totals.
type Customer struct {
	customer.Record
	TotalPurchases int     `json:"total_number_of_purchases"`
	TotalSpend     float64 `json:"total_price"`
}

// column binds a capped column name to its field on a record.
type column struct {
	name  string
	field func(r *customer.Record) *float64
}

var cappedColumns = []column{
	{customer.ColOrderNumOnline, func(r *customer.Record) *float64 { return &r.OrderNumOnline }},
	{customer.ColOrderNumOffline, func(r *customer.Record) *float64 { return &r.OrderNumOffline }},
	{customer.ColValueOffline, func(r *customer.Record) *float64 { return &r.ValueOffline }},
	{customer.ColValueOnline, func(r *customer.Record) *float64 { return &r.ValueOnline }},
}

// CapColumns clamps the four per-channel total columns to their outlier fences.
// The slice is modified in place; callers that need the raw values keep a copy.
func CapColumns(records []customer.Record) []stats.CapResult {
	results := make([]stats.CapResult, 0, len(cappedColumns))
	values := make([]float64, len(records))

	for _, col := range cappedColumns {
		for i := range records {
			values[i] = *col.field(&records[i])
		}
		res := stats.CapOutliers(col.name, values)
		for i := range records {
			*col.field(&records[i]) = values[i]
		}
		results = append(results, res)

		log.Debug().
			Str("column", res.Column).
			Float64("lower", res.Lower).
			Float64("upper", res.Upper).
			Int("capped", res.Capped).
			Msg("Outlier capping applied")
	}
	return results
}

// Derive adds the cross-channel purchase count and spend totals.
func Derive(records []customer.Record) []Customer {
	out := make([]Customer, len(records))
	for i, r := range records {
		out[i] = Customer{
			Record:         r,
			TotalPurchases: int(r.OrderNumOnline + r.OrderNumOffline),
			TotalSpend:     r.ValueOnline + r.ValueOffline,
		}
	}
	return out
}

// Prepare copies the input, optionally caps outliers and derives totals.
// The input records are never modified.
func Prepare(records []customer.Record, capOutliers bool) ([]Customer, []stats.CapResult) {
	working := slices.Clone(records)

	var caps []stats.CapResult
	if capOutliers {
		caps = CapColumns(working)
	}
	return Derive(working), caps
}

// ChannelStats summarises customers by their order channel.
type ChannelStats struct {
	Channel        string  `json:"order_channel"`
	Customers      int     `json:"customers"`
	TotalPurchases int     `json:"total_number_of_purchases"`
	TotalSpend     float64 `json:"total_price"`
}

// ChannelSummary groups customers by order channel, sorted by channel name.
func ChannelSummary(customers []Customer) []ChannelStats {
	byChannel := make(map[string]*ChannelStats)
	for _, c := range customers {
		s, ok := byChannel[c.OrderChannel]
		if !ok {
			s = &ChannelStats{Channel: c.OrderChannel}
			byChannel[c.OrderChannel] = s
		}
		s.Customers++
		s.TotalPurchases += c.TotalPurchases
		s.TotalSpend += c.TotalSpend
	}

	out := make([]ChannelStats, 0, len(byChannel))
	for _, s := range byChannel {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b ChannelStats) int {
		return cmp.Compare(a.Channel, b.Channel)
	})
	return out
}
