package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, baseURL string, retries int) *Client {
	t.Helper()
	return NewClient(Options{
		BaseURL:    baseURL,
		Timeout:    2 * time.Second,
		MaxRetries: retries,
	}, zap.NewNop())
}

func TestFetchReports(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/CampaignDailyReports", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date":"2024-01-01","campaignName":"A","impressions":100,"clicks":"5","spend":null},
			{"date":"2024-01-02","campaignName":"B","impressions":200}
		]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 1)
	reports, err := c.FetchReports(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "A", reports[0].CampaignName)
	assert.Equal(t, 5.0, float64(reports[0].Clicks))
	assert.Equal(t, 0.0, float64(reports[0].Spend))
}

func TestFetchClients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/Clients", r.URL.Path)
		w.Write([]byte(`[{"clientId":"c1","clientName":"Acme Retail","lastHandshake":"2024-01-05T10:00:00Z"}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 1)
	clients, err := c.FetchClients(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme Retail", clients[0].ClientName)
	assert.False(t, clients[0].LastHandshake.IsZero())
}

func TestFetchNetworkErrorOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	_, err := c.FetchReports(context.Background())
	require.Error(t, err)

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusInternalServerError, netErr.Status)
}

func TestFetchDataShapeErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"error":"maintenance"}`)) // 200 but not an array
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	_, err := c.FetchReports(context.Background())
	require.Error(t, err)

	var shapeErr *DataShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	reports, err := c.FetchReports(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, srv.URL, 5)
	_, err := c.FetchReports(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
