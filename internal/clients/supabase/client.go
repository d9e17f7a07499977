// Package supabase provides a thin read client for the Supabase PostgREST gateway.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to {project}/rest/v1 with the service-role (or anon) key.
// Only reads: every write to the lot tables happens through the external
// runner, never from the dashboard.
type Client struct {
	baseURL string
	key     string
	client  *http.Client
	log     zerolog.Logger
}

// New creates a new PostgREST client.
func New(baseURL, key string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("client", "supabase").Logger(),
	}
}

// Query describes a single table read.
type Query struct {
	Table   string
	Select  string   // column list; defaults to *
	Filters []string // raw PostgREST conditions, e.g. "model_name=eq.actual_daily"
	Order   []string // e.g. "zona.asc", "loaded_at.desc"
	Limit   int
}

// Rows executes the query and decodes the JSON array response into dest.
func (c *Client) Rows(ctx context.Context, q Query, dest any) error {
	endpoint, err := c.buildURL(q)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", q.Table, err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("table", q.Table).Str("url", endpoint).Msg("Querying table")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase request failed for %s: %w", q.Table, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read supabase response for %s: %w", q.Table, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("supabase returned status %d for %s: %s", resp.StatusCode, q.Table, excerpt(body, 300))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to parse supabase response for %s: %w", q.Table, err)
	}
	return nil
}

func (c *Client) buildURL(q Query) (string, error) {
	if q.Table == "" {
		return "", fmt.Errorf("supabase query missing table")
	}

	sel := q.Select
	if sel == "" {
		sel = "*"
	}

	values := url.Values{}
	values.Set("select", sel)
	for _, f := range q.Filters {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			return "", fmt.Errorf("invalid supabase filter %q", f)
		}
		values.Add(k, v)
	}
	if len(q.Order) > 0 {
		values.Set("order", strings.Join(q.Order, ","))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}

	return c.baseURL + "/rest/v1/" + q.Table + "?" + values.Encode(), nil
}

// InList renders values as a quoted PostgREST in-list: ("A","B","C").
// Quoting matches the original dashboard's escaping (JSON string encoding),
// which keeps codes containing commas or quotes safe.
func InList(vals []string) string {
	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		b, _ := json.Marshal(v)
		parts = append(parts, string(b))
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func excerpt(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n]
	}
	return s
}
