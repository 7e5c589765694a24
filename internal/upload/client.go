package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/fittracker/internal/ingest"
)

// ErrUnauthorized is returned when the server rejects the API key. It is
// not retried.
var ErrUnauthorized = errors.New("api key rejected")

// Client posts training CSVs to a fittracker server.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	attempts   int
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the fittracker server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		attempts: 3,
		backoff:  time.Second,
	}
}

// SendCSV posts one CSV body to the import endpoint and returns the
// server's import report. Retries up to 3 times with exponential backoff
// on transport errors and 5xx responses.
func (c *Client) SendCSV(ctx context.Context, filename string, data []byte, dryRun bool) (*ingest.Result, error) {
	params := url.Values{"filename": {filename}}
	if dryRun {
		params.Set("dry_run", "true")
	}
	endpoint := c.serverURL + "/api/v1/import/training?" + params.Encode()

	var lastErr error
	for attempt := range c.attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		result, retry, err := c.post(ctx, endpoint, data)
		if err == nil {
			return result, nil
		}
		if !retry {
			return result, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("after %d attempts: %w", c.attempts, lastErr)
}

func (c *Client) post(ctx context.Context, endpoint string, data []byte) (*ingest.Result, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var result ingest.Result
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, false, fmt.Errorf("decoding import report: %w", err)
		}
		return &result, false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, ErrUnauthorized
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("import failed (status %d): %s", resp.StatusCode, body)
	default:
		return nil, false, fmt.Errorf("import rejected (status %d): %s", resp.StatusCode, body)
	}
}
