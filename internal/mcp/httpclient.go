package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/fittracker/internal/models"
	"github.com/claude/fittracker/internal/storage"
)

// HTTPClient implements DataSource by calling the fittracker REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		// keep errors.Is(err, storage.ErrNotFound) working for remote callers
		return fmt.Errorf("httpclient: %s: %w", path, storage.ErrNotFound)
	default:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) LoadSessionTemplates(ctx context.Context) ([]models.SessionTemplate, error) {
	var templates []models.SessionTemplate
	if err := c.get(ctx, "/api/v1/templates", nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (c *HTTPClient) GetSessionInstance(ctx context.Context, id string) (models.SessionInstance, error) {
	var inst models.SessionInstance
	err := c.get(ctx, "/api/v1/instances/"+url.PathEscape(id), nil, &inst)
	return inst, err
}

func (c *HTTPClient) SessionInstancesForDate(ctx context.Context, date string) ([]models.SessionInstance, error) {
	var list []models.SessionInstance
	if err := c.get(ctx, "/api/v1/instances", url.Values{"date": {date}}, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) SessionInstancesForDateRange(ctx context.Context, start, end string) ([]models.SessionInstance, error) {
	var list []models.SessionInstance
	if err := c.get(ctx, "/api/v1/instances", url.Values{"start": {start}, "end": {end}}, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) WorkoutProgressForSession(ctx context.Context, sessionID string) ([]models.WorkoutProgress, error) {
	var resp struct {
		Progress []models.WorkoutProgress `json:"progress"`
	}
	err := c.get(ctx, "/api/v1/instances/"+url.PathEscape(sessionID)+"/progress", nil, &resp)
	if errors.Is(err, storage.ErrNotFound) {
		return []models.WorkoutProgress{}, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Progress, nil
}

func (c *HTTPClient) GetTrainingSummary(ctx context.Context, start, end, bucket string) ([]storage.TrainingSummaryPeriod, error) {
	params := url.Values{}
	params.Set("start", start)
	params.Set("end", end)
	params.Set("bucket", bucket)

	var periods []storage.TrainingSummaryPeriod
	if err := c.get(ctx, "/api/v1/training-summary", params, &periods); err != nil {
		return nil, err
	}
	return periods, nil
}

func (c *HTTPClient) GetDataStats(ctx context.Context) (*storage.DataStats, error) {
	var stats storage.DataStats
	if err := c.get(ctx, "/api/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
