package report

import (
	"sort"
	"time"

	"github.com/adlens/insight/internal/models"
)

// DailyRow is one point of the chart time series: all records sharing a UTC
// calendar day folded together. The summed fields are impressions, spend and
// sales, matching the chart legend.
type DailyRow struct {
	Date        time.Time `json:"date"`
	Impressions float64   `json:"impressions"`
	Spend       float64   `json:"spend"`
	Sales       float64   `json:"sales"`
}

// AggregateDaily groups records by calendar day and sums the configured
// metrics. Output is sorted ascending by date with exactly one row per
// distinct day; input order never matters. Empty input produces an empty,
// non-nil slice.
func AggregateDaily(records []models.ReportRecord) []DailyRow {
	byDay := make(map[time.Time]*DailyRow)
	for _, rec := range records {
		day := Day(rec.Date)
		row, ok := byDay[day]
		if !ok {
			row = &DailyRow{Date: day}
			byDay[day] = row
		}
		row.Impressions += rec.Impressions
		row.Spend += rec.Spend
		row.Sales += rec.Sales
	}

	out := make([]DailyRow, 0, len(byDay))
	for _, row := range byDay {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
