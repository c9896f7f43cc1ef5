package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/adlens/insight/internal/models"
	"go.uber.org/zap"
)

// NetworkError means the transport failed or the upstream answered with a
// non-2xx status.
type NetworkError struct {
	Path   string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream fetch %s failed: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("upstream fetch %s failed with status %d", e.Path, e.Status)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DataShapeError means the upstream answered 2xx but the body was not the
// expected JSON array. It is fatal for the fetch cycle; nothing is coerced.
type DataShapeError struct {
	Path   string
	Detail string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("upstream %s returned unexpected shape: %s", e.Path, e.Detail)
}

// Client fetches the two raw collections from the reporting backend.
type Client struct {
	baseURL    string
	reports    string
	clients    string
	httpc      *http.Client
	maxRetries int
	log        *zap.Logger
}

// Options configures a Client. Paths default to the backend's conventional
// collection routes.
type Options struct {
	BaseURL     string
	ReportsPath string
	ClientsPath string
	Timeout     time.Duration
	MaxRetries  int
}

// NewClient builds an upstream client with sane defaults.
func NewClient(opts Options, log *zap.Logger) *Client {
	if opts.ReportsPath == "" {
		opts.ReportsPath = "/api/CampaignDailyReports"
	}
	if opts.ClientsPath == "" {
		opts.ClientsPath = "/api/Clients"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		reports:    opts.ReportsPath,
		clients:    opts.ClientsPath,
		httpc:      &http.Client{Timeout: opts.Timeout},
		maxRetries: opts.MaxRetries,
		log:        log,
	}
}

// FetchReports retrieves the campaign daily report collection.
func (c *Client) FetchReports(ctx context.Context) ([]models.RawDailyReport, error) {
	var out []models.RawDailyReport
	if err := c.fetchCollection(ctx, c.reports, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchClients retrieves the client collection.
func (c *Client) FetchClients(ctx context.Context) ([]models.Client, error) {
	var out []models.Client
	if err := c.fetchCollection(ctx, c.clients, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// fetchCollection GETs path and decodes the body into dst, which must point
// at a slice. Transport failures and non-2xx statuses are retried with
// exponential backoff and jitter; a 2xx body that is not a JSON array is a
// DataShapeError and is not retried.
func (c *Client) fetchCollection(ctx context.Context, path string, dst any) error {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			sleep := time.Duration((1<<attempt)*100) * time.Millisecond
			sleep += time.Duration(rand.Intn(150)) * time.Millisecond
			select {
			case <-ctx.Done():
				return &NetworkError{Path: path, Err: ctx.Err()}
			case <-time.After(sleep):
			}
		}

		body, netErr := c.get(ctx, path)
		if netErr != nil {
			lastErr = netErr
			c.log.Warn("upstream fetch attempt failed",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Error(netErr),
			)
			continue
		}

		trimmed := bytes.TrimSpace(body)
		if len(trimmed) == 0 || trimmed[0] != '[' {
			return &DataShapeError{Path: path, Detail: "expected a JSON array"}
		}
		if err := json.Unmarshal(trimmed, dst); err != nil {
			return &DataShapeError{Path: path, Detail: err.Error()}
		}
		return nil
	}

	return lastErr
}

func (c *Client) get(ctx context.Context, path string) ([]byte, *NetworkError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &NetworkError{Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &NetworkError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, &NetworkError{Path: path, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Path: path, Err: err}
	}
	return body, nil
}
