package report

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCampaignCSV serializes the full, unpaginated campaign summary.
func WriteCampaignCSV(w io.Writer, rows []CampaignRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "status", "budget", "impressions", "clicks", "ctr", "spend", "cpc"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Name,
			r.Status,
			r.Budget,
			fmt.Sprintf("%.0f", r.Impressions),
			fmt.Sprintf("%.0f", r.Clicks),
			fmt.Sprintf("%.2f", r.CTR),
			fmt.Sprintf("%.2f", r.Spend),
			fmt.Sprintf("%.2f", r.CPC),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSellerCSV serializes the full, unpaginated seller summary including
// the totals footer.
func WriteSellerCSV(w io.Writer, rows []SellerRow, totals SellerTotals) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"stt", "account", "sold", "sales", "ads", "ads_to_sale"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			fmt.Sprintf("%d", r.STT),
			r.AccountName,
			fmt.Sprintf("%.0f", r.Sold),
			fmt.Sprintf("%.2f", r.Sales),
			fmt.Sprintf("%.2f", r.Ads),
			fmt.Sprintf("%.2f", r.AdsToSaleRatio),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	sum := []string{
		"",
		"SUM",
		fmt.Sprintf("%.0f", totals.Sold),
		fmt.Sprintf("%.2f", totals.Sales),
		fmt.Sprintf("%.2f", totals.Ads),
		fmt.Sprintf("%.2f", totals.AdsToSaleRatio),
	}
	if err := cw.Write(sum); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
