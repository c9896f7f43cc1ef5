package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Metric is a numeric value as delivered by the upstream reporting API.
// The wire representation is unreliable: the same field can arrive as a JSON
// number, a numeric string, null, or be absent entirely. Decoding never
// fails; anything that does not parse to a finite number becomes 0.
type Metric float64

// UnmarshalJSON coerces numbers, numeric strings, null and garbage to a
// finite float64.
func (m *Metric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = 0
		return nil
	}
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*m = 0
		return nil
	}
	*m = Metric(f)
	return nil
}

// FlexTime is a timestamp that tolerates the date formats the upstream is
// known to emit: date-only, RFC 3339, and RFC 3339 without a zone. A value
// that parses to nothing stays zero.
type FlexTime struct {
	time.Time
}

var flexTimeLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *FlexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		t.Time = time.Time{}
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range flexTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Time = time.Time{}
	return nil
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}

// RawDailyReport is one campaign-day row exactly as the upstream delivers it,
// before any normalization. Field types absorb the wire's mixed shapes.
type RawDailyReport struct {
	Date                FlexTime `json:"date"`
	CampaignName        string   `json:"campaignName"`
	CampaignID          Metric   `json:"campaignId"`
	CampaignStatus      string   `json:"campaignStatus"`
	ClientID            string   `json:"clientId"`
	Impressions         Metric   `json:"impressions"`
	Clicks              Metric   `json:"clicks"`
	Spend               Metric   `json:"spend"`
	Sales1d             Metric   `json:"sales1d"`
	UnitsSoldSameSku30d Metric   `json:"unitsSoldSameSku30d"`
	ErrorCount          Metric   `json:"errorCount"`
}

// ReportRecord is the strict, normalized form of a daily report row. Date is
// a UTC calendar day (midnight) and every metric is finite and non-negative.
// All aggregation downstream operates on this type only.
type ReportRecord struct {
	Date           time.Time `json:"date"`
	CampaignName   string    `json:"campaignName"`
	CampaignID     int64     `json:"campaignId"`
	CampaignStatus string    `json:"campaignStatus"`
	ClientID       string    `json:"clientId"`
	Impressions    float64   `json:"impressions"`
	Clicks         float64   `json:"clicks"`
	Spend          float64   `json:"spend"`
	Sales          float64   `json:"sales"`
	UnitsSold      float64   `json:"unitsSold"`
	ErrorCount     float64   `json:"errorCount"`
}

// Client is one advertiser account in the side collection used to resolve
// clientId keys to display names.
type Client struct {
	ClientID      string   `json:"clientId"`
	ClientName    string   `json:"clientName"`
	LastHandshake FlexTime `json:"lastHandshake"`
}
