package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// NotFoundError reports a 404 from the daemon API.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// Client talks to a running daemon over its HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption customizes the API client.
type ClientOption func(*Client)

// WithClientHTTPClient overrides the default HTTP client.
func WithClientHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient constructs an API client for the given bind address or base URL.
// A bare host:port is promoted to http.
func NewClient(address, token string, opts ...ClientOption) *Client {
	base := strings.TrimSpace(address)
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	client := &Client{
		baseURL:    strings.TrimRight(base, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Ping verifies the daemon is reachable.
func (c *Client) Ping(ctx context.Context) error {
	var resp HealthResponse
	return c.do(ctx, http.MethodGet, "/api/health", nil, &resp)
}

// Submit posts a generation request and returns the accepted job handle.
func (c *Client) Submit(ctx context.Context, req GenerationRequest) (SubmitResponse, error) {
	var resp SubmitResponse
	err := c.do(ctx, http.MethodPost, "/api/jobs", req, &resp)
	return resp, err
}

// Job fetches a single job by id.
func (c *Client) Job(ctx context.Context, id int64) (*Job, error) {
	var resp JobResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/jobs/%d", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

// Jobs lists jobs, optionally filtered by status.
func (c *Client) Jobs(ctx context.Context, statuses []string) ([]Job, error) {
	path := "/api/jobs"
	if len(statuses) > 0 {
		values := url.Values{}
		for _, status := range statuses {
			if trimmed := strings.TrimSpace(status); trimmed != "" {
				values.Add("status", trimmed)
			}
		}
		if encoded := values.Encode(); encoded != "" {
			path += "?" + encoded
		}
	}
	var resp JobListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// Status fetches daemon diagnostics.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var resp DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp)
	return resp, err
}

// SyncFeed runs a feed reconciliation now and returns the diff.
func (c *Client) SyncFeed(ctx context.Context) (FeedSyncResponse, error) {
	var resp FeedSyncResponse
	err := c.do(ctx, http.MethodPost, "/api/feed/sync", nil, &resp)
	return resp, err
}

// Retry resets failed jobs back to accepted. With no ids every failed job is
// retried.
func (c *Client) Retry(ctx context.Context, ids []int64) (int64, error) {
	var resp CountResponse
	payload := map[string][]int64{"ids": ids}
	if err := c.do(ctx, http.MethodPost, "/api/jobs/retry", payload, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// ResetStuck rolls jobs stuck in a processing status back to the preceding
// ready status.
func (c *Client) ResetStuck(ctx context.Context) (int64, error) {
	var resp CountResponse
	if err := c.do(ctx, http.MethodPost, "/api/jobs/reset", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Remove deletes a job row.
func (c *Client) Remove(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/jobs/%d", id), nil, nil)
}

// Clear removes finished jobs. Scope is "completed", "failed", or "all".
func (c *Client) Clear(ctx context.Context, scope string) (int64, error) {
	var resp CountResponse
	path := "/api/jobs/clear?scope=" + url.QueryEscape(strings.TrimSpace(scope))
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	if c.baseURL == "" {
		return fmt.Errorf("api client: no daemon address configured")
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api client: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("api client: new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api client: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &NotFoundError{Resource: method + " " + path}
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, payload.Error)
		}
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("api client: decode response: %w", err)
	}
	return nil
}
