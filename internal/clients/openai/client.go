// Package openai provides the minimal Responses API client used for the
// market commentary. Only structured (json_schema) output is supported.
package openai

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

const defaultEndpoint = "https://api.openai.com/v1/responses"

// Client calls the hosted completion API.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

// New creates a new client. An empty endpoint uses the public API.
func New(apiKey, endpoint string, log zerolog.Logger) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 120 * time.Second},
		log:      log.With().Str("client", "openai").Logger(),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type textFormat struct {
	Type   string          `json:"type"`
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type request struct {
	Model string    `json:"model"`
	Input []message `json:"input"`
	Text  struct {
		Format textFormat `json:"format"`
	} `json:"text"`
}

type response struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateJSON runs one system+user exchange with a strict json_schema
// output format and returns the model's raw JSON text.
func (c *Client) GenerateJSON(ctx context.Context, model, system, user, schemaName string, schema json.RawMessage) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("OPENAI_API_KEY is not configured")
	}

	reqBody := request{
		Model: model,
		Input: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	reqBody.Text.Format = textFormat{
		Type:   "json_schema",
		Name:   schemaName,
		Strict: true,
		Schema: schema,
	}

	buf, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.log.Debug().Str("model", model).Msg("Requesting commentary")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("OpenAI request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read OpenAI response: %w", err)
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse OpenAI response: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", fmt.Errorf("OpenAI error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAI returned status %d", resp.StatusCode)
	}

	var out strings.Builder
	for _, item := range parsed.Output {
		for _, content := range item.Content {
			if content.Type == "output_text" {
				out.WriteString(content.Text)
			}
		}
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("OpenAI returned empty output text")
	}
	return text, nil
}
