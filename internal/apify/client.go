// Package apify is a minimal client for the Apify actor-run API (v2): start
// an actor run, poll its status, and download the run's dataset items.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.apify.com/v2"

// Run status values reported by the actor-run API.
const (
	StatusReady     = "READY"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the Apify v2 API. The token is passed as a query parameter,
// which is how the actor-run endpoints authenticate.
type Client struct {
	token   string
	baseURL string
	client  HTTPClient
}

// New creates a Client with a default HTTP client.
func New(token string) *Client {
	return NewWithClient(token, defaultBaseURL, &http.Client{Timeout: 30 * time.Second})
}

// NewWithClient creates a Client with a custom base URL and HTTP client
// (useful for testing).
func NewWithClient(token, baseURL string, hc HTTPClient) *Client {
	return &Client{token: token, baseURL: baseURL, client: hc}
}

// Run mirrors the data envelope of an actor run.
type Run struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type runEnvelope struct {
	Data Run `json:"data"`
}

// StartRun submits an actor run with the given input and returns the run in
// its initial state. actorID uses the "<owner>~<actor>" form.
func (c *Client) StartRun(ctx context.Context, actorID string, input any) (Run, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return Run{}, fmt.Errorf("marshal input: %w", err)
	}

	endpoint := fmt.Sprintf("%s/acts/%s/runs?token=%s", c.baseURL, url.PathEscape(actorID), url.QueryEscape(c.token))
	raw, err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Run{}, err
	}

	var env runEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Run{}, fmt.Errorf("decode run: %w", err)
	}
	if env.Data.ID == "" {
		return Run{}, fmt.Errorf("actor %s: response carries no run id", actorID)
	}
	return env.Data, nil
}

// GetRun fetches the current state of an actor run.
func (c *Client) GetRun(ctx context.Context, runID string) (Run, error) {
	endpoint := fmt.Sprintf("%s/actor-runs/%s?token=%s", c.baseURL, url.PathEscape(runID), url.QueryEscape(c.token))
	raw, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Run{}, err
	}

	var env runEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Run{}, fmt.Errorf("decode run: %w", err)
	}
	return env.Data, nil
}

// DatasetItems downloads the default dataset of a finished run. Items are
// returned raw — shaping them is the provider adapter's job.
func (c *Client) DatasetItems(ctx context.Context, runID string) ([]json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/actor-runs/%s/dataset/items?token=%s", c.baseURL, url.PathEscape(runID), url.QueryEscape(c.token))
	raw, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode dataset items: %w", err)
	}
	return items, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("apify returned %d: %s", resp.StatusCode, truncateBody(raw))
	}
	return raw, nil
}

func truncateBody(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "…"
	}
	return string(b)
}
