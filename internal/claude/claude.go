// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package claude provides the Claude Messages API plumbing shared by the
// screening and optimization stages.
package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/pkg/types"
)

// APIURL is the Claude API endpoint. Package-level var for test substitution.
var APIURL = "https://api.anthropic.com/v1/messages"

// Client calls the Claude Messages API.
type Client struct {
	APIKey string
	Model  string
	HTTP   *http.Client

	// MaxRetries bounds retry attempts on rate-limited calls (default 3).
	MaxRetries int
}

// NewClient builds a Client from the shared AI configuration.
func NewClient(cfg types.AIConfig, httpClient *http.Client) *Client {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Client{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		HTTP:       httpClient,
		MaxRetries: maxRetries,
	}
}

// request is the request body for the Claude Messages API.
type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

// message is a single message in the Claude API conversation.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// response is the response body from the Claude Messages API.
type response struct {
	Content []contentBlock `json:"content"`
}

// contentBlock is a content block in the Claude API response.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Complete sends one user prompt and returns the first text block of the
// response. Rate-limited calls are retried with backoff.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := request{
		Model:     c.Model,
		MaxTokens: 1024,
		Messages: []message{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, APIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp response
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}
