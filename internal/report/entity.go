package report

import (
	"math"
	"sort"
	"strings"

	"github.com/adlens/insight/internal/models"
)

// BudgetPolicy controls the display budget attached to campaign rows. Every
// row starts at Default; folding in a record whose campaignId appears in
// Overrides replaces the label (last write wins, not cumulative).
type BudgetPolicy struct {
	Default   string
	Overrides map[int64]string
}

// CampaignRow is one entity of the campaign summary table: all records
// sharing a campaign name folded together, with rates computed from the
// final sums.
type CampaignRow struct {
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	Budget      string  `json:"budget"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Spend       float64 `json:"spend"`
	CTR         float64 `json:"ctr"`
	CPC         float64 `json:"cpc"`
}

// SellerRow is one entity of the per-client summary: sold units, attributed
// sales and ad spend for a single client, ranked by sales.
type SellerRow struct {
	STT            int     `json:"stt"`
	ClientID       string  `json:"clientId"`
	AccountName    string  `json:"accountName"`
	Sold           float64 `json:"sold"`
	Sales          float64 `json:"sales"`
	Ads            float64 `json:"ads"`
	AdsToSaleRatio float64 `json:"adsToSaleRatio"`
	Errors         float64 `json:"errors"`
}

// SellerTotals are the grand totals over the full, unpaginated seller report.
type SellerTotals struct {
	Sold           float64 `json:"sold"`
	Sales          float64 `json:"sales"`
	Ads            float64 `json:"ads"`
	AdsToSaleRatio float64 `json:"adsToSaleRatio"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AggregateCampaigns folds records into one row per distinct campaign name,
// preserving first-seen order. Records with an empty name are skipped, the
// same absent-key policy the seller view applies to clientId. CTR and CPC
// are computed strictly after the fold, from the final sums, and carry
// two-decimal display precision.
func AggregateCampaigns(records []models.ReportRecord, policy BudgetPolicy) []CampaignRow {
	byName := make(map[string]*CampaignRow)
	order := make([]string, 0)

	for _, rec := range records {
		name := rec.CampaignName
		if name == "" {
			continue
		}
		row, ok := byName[name]
		if !ok {
			row = &CampaignRow{
				Name:   name,
				Status: rec.CampaignStatus,
				Budget: policy.Default,
			}
			byName[name] = row
			order = append(order, name)
		}
		row.Impressions += rec.Impressions
		row.Clicks += rec.Clicks
		row.Spend += rec.Spend
		if override, ok := policy.Overrides[rec.CampaignID]; ok {
			row.Budget = override
		}
	}

	out := make([]CampaignRow, 0, len(order))
	for _, name := range order {
		row := byName[name]
		if row.Impressions > 0 {
			row.CTR = round2(row.Clicks / row.Impressions * 100)
		}
		if row.Clicks > 0 {
			row.CPC = round2(row.Spend / row.Clicks)
		}
		out = append(out, *row)
	}
	return out
}

// AggregateSellers folds records into one row per distinct clientId, resolves
// display names through the index, computes the ads/sale ratio from final
// sums, sorts descending by sales and assigns the 1-based stt rank. Records
// without a clientId are skipped.
func AggregateSellers(records []models.ReportRecord, clients ClientIndex) []SellerRow {
	byClient := make(map[string]*SellerRow)

	for _, rec := range records {
		if rec.ClientID == "" {
			continue
		}
		row, ok := byClient[rec.ClientID]
		if !ok {
			row = &SellerRow{
				ClientID:    rec.ClientID,
				AccountName: clients.Name(rec.ClientID),
			}
			byClient[rec.ClientID] = row
		}
		row.Sold += rec.UnitsSold
		row.Sales += rec.Sales
		row.Ads += rec.Spend
		row.Errors += rec.ErrorCount
	}

	out := make([]SellerRow, 0, len(byClient))
	for _, row := range byClient {
		if row.Sales > 0 {
			row.AdsToSaleRatio = row.Ads / row.Sales * 100
		}
		out = append(out, *row)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Sales > out[j].Sales })
	for i := range out {
		out[i].STT = i + 1
	}
	return out
}

// ComputeSellerTotals sums the full seller report for the SUM footer row.
func ComputeSellerTotals(rows []SellerRow) SellerTotals {
	var t SellerTotals
	for _, r := range rows {
		t.Sold += r.Sold
		t.Sales += r.Sales
		t.Ads += r.Ads
	}
	if t.Sales > 0 {
		t.AdsToSaleRatio = t.Ads / t.Sales * 100
	}
	return t
}

// DistinctCampaigns lists campaign names in first-seen order for the
// selection control.
func DistinctCampaigns(records []models.ReportRecord) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, rec := range records {
		if rec.CampaignName == "" {
			continue
		}
		if _, ok := seen[rec.CampaignName]; ok {
			continue
		}
		seen[rec.CampaignName] = struct{}{}
		out = append(out, rec.CampaignName)
	}
	return out
}

// SearchCampaignRows keeps the rows whose name contains term,
// case-insensitive. An empty term keeps everything.
func SearchCampaignRows(rows []CampaignRow, term string) []CampaignRow {
	if term == "" {
		return rows
	}
	term = strings.ToLower(term)
	out := make([]CampaignRow, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Name), term) {
			out = append(out, r)
		}
	}
	return out
}

// SearchSellerRows keeps the rows whose account name contains term,
// case-insensitive. Ranks are not reassigned; stt keeps its position in the
// full report.
func SearchSellerRows(rows []SellerRow, term string) []SellerRow {
	if term == "" {
		return rows
	}
	term = strings.ToLower(term)
	out := make([]SellerRow, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.AccountName), term) {
			out = append(out, r)
		}
	}
	return out
}
