package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/internal/domain/types"
)

// ErrStatus is returned for unexpected HTTP status codes.
var ErrStatus = errors.New("unexpected status")

// Ack is the POST /reports response.
type Ack struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	ReportID  string `json:"report_id"`
	Seq       uint64 `json:"seq"`
}

type batchRequest struct {
	HoursWorkedAvailable bool        `json:"hours_worked_available"`
	Rows                 []model.Row `json:"rows"`
}

// Client wraps http.Client with the service's routes.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a client for the service at base.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{base: base, client: &http.Client{Timeout: timeout}}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK)
	return err
}

// Submit posts a batch. The returned status is 202 for accepted and 200
// for duplicates; any other status is an error wrapping ErrStatus.
func (c *Client) Submit(ctx context.Context, hours bool, rows []model.Row) (Ack, int, error) {
	body, err := json.Marshal(batchRequest{HoursWorkedAvailable: hours, Rows: rows})
	if err != nil {
		return Ack{}, 0, fmt.Errorf("failed to marshal batch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/reports", bytes.NewReader(body))
	if err != nil {
		return Ack{}, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Ack{}, 0, err
	}
	data, err := readResponseBody(resp)
	if err != nil {
		return Ack{}, resp.StatusCode, err
	}
	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return Ack{}, resp.StatusCode, fmt.Errorf("%w: %d: %s", ErrStatus, resp.StatusCode, bytes.TrimSpace(data))
	}
	var ack Ack
	if err := json.Unmarshal(data, &ack); err != nil {
		return Ack{}, resp.StatusCode, fmt.Errorf("failed to decode ack: %w", err)
	}
	return ack, resp.StatusCode, nil
}

// Latest fetches GET /reports/latest.
func (c *Client) Latest(ctx context.Context) (model.ProcessedReport, error) {
	var r model.ProcessedReport
	data, err := c.do(ctx, http.MethodGet, "/reports/latest", nil, http.StatusOK)
	if err != nil {
		return r, err
	}
	return r, json.Unmarshal(data, &r)
}

// Leaderboard fetches GET /leaderboard for score.
func (c *Client) Leaderboard(ctx context.Context, score model.ScoreKind, n int) ([]types.Entry, error) {
	q := url.Values{"score": {string(score)}, "limit": {strconv.Itoa(n)}}
	data, err := c.do(ctx, http.MethodGet, "/leaderboard?"+q.Encode(), nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var entries []types.Entry
	return entries, json.Unmarshal(data, &entries)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, want int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	data, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != want {
		return nil, fmt.Errorf("%w: %s %s: %d", ErrStatus, method, path, resp.StatusCode)
	}
	return data, nil
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}
