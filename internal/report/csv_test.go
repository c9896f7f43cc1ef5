package report

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCampaignCSV(t *testing.T) {
	rows := []CampaignRow{
		{Name: "Spring Sale", Status: "enabled", Budget: "$5.00", Impressions: 4000, Clicks: 120, Spend: 60, CTR: 3, CPC: 0.5},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCampaignCSV(&buf, rows))

	got, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"name", "status", "budget", "impressions", "clicks", "ctr", "spend", "cpc"}, got[0])
	assert.Equal(t, []string{"Spring Sale", "enabled", "$5.00", "4000", "120", "3.00", "60.00", "0.50"}, got[1])
}

func TestWriteSellerCSVIncludesTotals(t *testing.T) {
	rows := []SellerRow{
		{STT: 1, AccountName: "Beta Goods", Sold: 10, Sales: 300, Ads: 90, AdsToSaleRatio: 30},
		{STT: 2, AccountName: "Acme Retail", Sold: 8, Sales: 200, Ads: 50, AdsToSaleRatio: 25},
	}
	totals := ComputeSellerTotals(rows)

	var buf bytes.Buffer
	require.NoError(t, WriteSellerCSV(&buf, rows, totals))

	got, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, []string{"stt", "account", "sold", "sales", "ads", "ads_to_sale"}, got[0])
	assert.Equal(t, "1", got[1][0])
	assert.Equal(t, "SUM", got[3][1])
	assert.Equal(t, "18", got[3][2])
	assert.Equal(t, "500.00", got[3][3])
	assert.Equal(t, "140.00", got[3][4])
	assert.Equal(t, "28.00", got[3][5])
}

func TestWriteCSVEmptyRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCampaignCSV(&buf, nil))
	got, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, got, 1) // header only
}
