package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adlens/insight/internal/config"
	"github.com/adlens/insight/internal/dashboard"
	"github.com/adlens/insight/internal/models"
	"github.com/adlens/insight/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubFetcher struct {
	reports []models.RawDailyReport
	clients []models.Client
}

func (s *stubFetcher) FetchReports(ctx context.Context) ([]models.RawDailyReport, error) {
	return s.reports, nil
}

func (s *stubFetcher) FetchClients(ctx context.Context) ([]models.Client, error) {
	return s.clients, nil
}

func ft(s string) models.FlexTime {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return models.FlexTime{Time: t}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	fetcher := &stubFetcher{
		reports: []models.RawDailyReport{
			{Date: ft("2024-06-10"), CampaignName: "Spring Sale", CampaignID: 123459, ClientID: "c1", Impressions: 1000, Clicks: 50, Spend: 25, Sales1d: 100},
			{Date: ft("2024-06-11"), CampaignName: "Brand Push", CampaignID: 123458, ClientID: "c2", Impressions: 500, Clicks: 10, Spend: 90, Sales1d: 300},
		},
		clients: []models.Client{
			{ClientID: "c1", ClientName: "Acme Retail"},
			{ClientID: "c2", ClientName: "Beta Goods"},
		},
	}

	orch := dashboard.New(context.Background(), fetcher, dashboard.Options{
		Budget:           report.BudgetPolicy{Default: "$5.00", Overrides: map[int64]string{123459: "$3.00"}},
		PageSize:         10,
		DefaultRangeDays: 10,
		Logger:           zap.NewNop(),
		Now:              func() time.Time { return time.Date(2024, 6, 11, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, orch.Refresh(context.Background()))

	cfg := &config.Config{}
	return NewServer(&Dependencies{
		Config:       cfg,
		Logger:       zap.NewNop(),
		Orchestrator: orch,
	})
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestDashboardEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var v dashboard.View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	assert.Equal(t, dashboard.StateReady, v.State)
	assert.Len(t, v.Campaigns, 2)
	assert.Len(t, v.Daily, 2)
	assert.Equal(t, 1, v.Pagination.CurrentPage)
}

func TestDashboardFilterParams(t *testing.T) {
	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard?campaign=Spring+Sale&view=campaign", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var v dashboard.View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	require.Len(t, v.Campaigns, 1)
	assert.Equal(t, "Spring Sale", v.Campaigns[0].Name)
	assert.Equal(t, "$3.00", v.Campaigns[0].Budget)
}

func TestDashboardSellerView(t *testing.T) {
	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard?view=seller", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var v dashboard.View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	require.Len(t, v.Sellers, 2)
	assert.Equal(t, "Beta Goods", v.Sellers[0].AccountName)
	require.NotNil(t, v.SellerTotals)
}

func TestDashboardRejectsBadParams(t *testing.T) {
	srv := newTestServer(t)

	for _, url := range []string{
		"/dashboard?start=garbage",
		"/dashboard?view=banana",
		"/dashboard?page_size=0",
		"/dashboard?page_size=abc",
		"/dashboard?page=xyz",
	} {
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, url)
	}
}

func TestDashboardMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/dashboard", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/dashboard/refresh", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var v dashboard.View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	assert.Equal(t, dashboard.StateReady, v.State)
}

func TestExportEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/export.csv", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "Spring Sale")
	assert.Contains(t, rr.Body.String(), "Brand Push")
}

func TestKPIEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/dashboard/kpi", strings.NewReader(`{"kpiTarget":"ACOS < 30%"}`))
	srv.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/kpi", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"kpiTarget":"ACOS < 30%"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/dashboard/kpi", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/kpi", nil))
	assert.JSONEq(t, `{"kpiTarget":""}`, rr.Body.String())
}

func TestClientsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/clients", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var infos []dashboard.ClientInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, dashboard.StatusOffline, infos[0].Status)
}
