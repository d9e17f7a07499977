// Package runner provides the client for the external blending solver / ETL service.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client proxies requests to the runner with the shared-secret header.
//
// The solver call carries no client-side timeout and no retry: a run can
// legitimately take minutes, and the operator watches the request complete.
// That tradeoff is inherited from the original dashboard on purpose.
type Client struct {
	baseURL string
	secret  string
	client  *http.Client
	probe   *http.Client // short-timeout client for reachability checks only
	log     zerolog.Logger
}

// New creates a new runner client.
func New(baseURL, secret string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		client:  &http.Client{},
		probe:   &http.Client{Timeout: 3 * time.Second},
		log:     log.With().Str("client", "runner").Logger(),
	}
}

// Configured reports whether a runner URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// Response carries the runner's reply for verbatim passthrough.
// Body is always valid JSON: non-JSON upstream text gets wrapped in an
// error envelope with a truncated raw excerpt.
type Response struct {
	StatusCode int
	Body       []byte
}

// Run forwards the solver payload to POST {RUNNER_URL}/run.
func (c *Client) Run(ctx context.Context, payload any) (*Response, error) {
	return c.post(ctx, "/run", payload)
}

// ETL triggers the lot ingestion at POST {RUNNER_URL}/etl.
func (c *Client) ETL(ctx context.Context, payload any) (*Response, error) {
	return c.post(ctx, "/etl", payload)
}

// Health checks GET {RUNNER_URL}/health with a short timeout. Used by the
// system status endpoint, never by the proxy path.
func (c *Client) Health(ctx context.Context) error {
	if !c.Configured() {
		return fmt.Errorf("runner URL not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.probe.Do(req)
	if err != nil {
		return fmt.Errorf("runner unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("runner health returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*Response, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("RUNNER_URL is not configured")
	}

	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode runner payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build runner request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-runner-secret", c.secret)

	c.log.Info().Str("path", path).Msg("Calling runner")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not connect to runner: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read runner response: %w", err)
	}

	out := raw
	if len(bytes.TrimSpace(raw)) == 0 {
		out = []byte("{}")
	} else if !json.Valid(raw) {
		wrapped, _ := json.Marshal(map[string]any{
			"error": "runner did not return JSON",
			"raw":   excerpt(raw, 500),
		})
		out = wrapped
	}

	return &Response{StatusCode: resp.StatusCode, Body: out}, nil
}

func excerpt(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n]
	}
	return s
}
