// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/cite-engine/internal/httputil"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeBackend calls the Claude Messages API. The JSON-only instruction in
// the system prompt stands in for OpenAI's JSON object mode.
type ClaudeBackend struct {
	APIKey     string
	Model      string
	MaxRetries int
	Client     *http.Client
}

// NewClaudeBackend creates a backend from cfg. An empty apiKey is accepted
// here and reported as ErrMissingAPIKey when Analyze is called.
func NewClaudeBackend(cfg types.LLMConfig, apiKey string) *ClaudeBackend {
	model := cfg.Model
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = "claude-sonnet-4-5"
	}
	return &ClaudeBackend{
		APIKey:     apiKey,
		Model:      model,
		MaxRetries: cfg.MaxRetries,
		Client:     &http.Client{Timeout: cfg.Timeout},
	}
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Analyze sends all pairs in one Messages call and parses the analysis.
func (c *ClaudeBackend) Analyze(ctx context.Context, pairs []types.MatchedPair) (Response, error) {
	if c.APIKey == "" {
		return Response{}, ErrMissingAPIKey
	}

	system, err := renderSystemPrompt()
	if err != nil {
		return Response{}, fmt.Errorf("rendering prompt: %w", err)
	}
	user, err := userPayload(pairs)
	if err != nil {
		return Response{}, err
	}

	bodyBytes, err := json.Marshal(claudeRequest{
		Model:     c.Model,
		MaxTokens: 4096,
		System:    system,
		Messages:  []claudeMessage{{Role: "user", Content: user}},
	})
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return Response{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return Response{}, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Response{}, fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return Response{}, fmt.Errorf("%w: decoding Claude response: %v", ErrMalformedResponse, err)
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return parseResponse(block.Text)
		}
	}
	return Response{}, fmt.Errorf("%w: no text content in Claude API response", ErrMalformedResponse)
}
