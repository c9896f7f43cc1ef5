package report

import (
	"math"
	"time"

	"github.com/adlens/insight/internal/models"
)

// clampMetric forces a metric into the finite non-negative range every sum
// downstream assumes. NaN, infinities and negatives all become 0.
func clampMetric(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Day truncates t to its UTC calendar day. All date comparisons in the
// pipeline happen on these midnight-UTC values, so a record can never shift
// across a day boundary with the server's local zone.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Normalize returns a copy of r with every metric clamped and the date
// truncated to a UTC day. Applying it twice yields the same record.
func Normalize(r models.ReportRecord) models.ReportRecord {
	r.Date = Day(r.Date)
	r.Impressions = clampMetric(r.Impressions)
	r.Clicks = clampMetric(r.Clicks)
	r.Spend = clampMetric(r.Spend)
	r.Sales = clampMetric(r.Sales)
	r.UnitsSold = clampMetric(r.UnitsSold)
	r.ErrorCount = clampMetric(r.ErrorCount)
	return r
}

// NormalizeRaw converts the wire rows into strict records. Rows whose date
// did not parse are dropped here, never passed downstream with a zero date;
// the returned count says how many were discarded.
func NormalizeRaw(raw []models.RawDailyReport) (records []models.ReportRecord, dropped int) {
	records = make([]models.ReportRecord, 0, len(raw))
	for _, r := range raw {
		if r.Date.IsZero() {
			dropped++
			continue
		}
		records = append(records, Normalize(models.ReportRecord{
			Date:           r.Date.Time,
			CampaignName:   r.CampaignName,
			CampaignID:     int64(r.CampaignID),
			CampaignStatus: r.CampaignStatus,
			ClientID:       r.ClientID,
			Impressions:    float64(r.Impressions),
			Clicks:         float64(r.Clicks),
			Spend:          float64(r.Spend),
			Sales:          float64(r.Sales1d),
			UnitsSold:      float64(r.UnitsSoldSameSku30d),
			ErrorCount:     float64(r.ErrorCount),
		}))
	}
	return records, dropped
}
