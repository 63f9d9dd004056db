// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/pdiddy/cite-engine/pkg/types"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// noJSONModeModels lists OpenAI models that reject the json_object
// response format.
var noJSONModeModels = []string{"gpt-4-0314", "gpt-4-0613", "gpt-4-32k"}

// supportsJSONMode reports whether model accepts response_format
// json_object. Unknown names, such as those served by compatible
// endpoints, are assumed to.
func supportsJSONMode(model string) bool {
	if model == "gpt-4" {
		return false
	}
	for _, p := range noJSONModeModels {
		if strings.HasPrefix(model, p) {
			return false
		}
	}
	return true
}

// OpenAIBackend calls the OpenAI chat completions API, in JSON object mode
// when the model supports it.
// Transient failures (429, 5xx, transport) are retried by the client up to
// MaxRetries times; parse failures are not.
type OpenAIBackend struct {
	apiKey string
	model  string
	client openai.Client
}

// OpenAIOption adds a request option to the underlying client.
type OpenAIOption = option.RequestOption

// WithHTTPClient replaces the HTTP client (for testing).
func WithHTTPClient(c *http.Client) OpenAIOption {
	return option.WithHTTPClient(c)
}

// NewOpenAIBackend creates a backend from cfg. An empty apiKey is accepted
// here and reported as ErrMissingAPIKey when Analyze is called.
func NewOpenAIBackend(cfg types.LLMConfig, apiKey string, opts ...OpenAIOption) *OpenAIBackend {
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(cfg.Timeout))
	}
	reqOpts = append(reqOpts, opts...)

	return &OpenAIBackend{
		apiKey: apiKey,
		model:  model,
		client: openai.NewClient(reqOpts...),
	}
}

// Analyze sends all pairs in one chat completion and parses the analysis.
func (b *OpenAIBackend) Analyze(ctx context.Context, pairs []types.MatchedPair) (Response, error) {
	if b.apiKey == "" {
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

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}
	// Older models get the prompt's JSON instructions only.
	if supportsJSONMode(b.model) {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("calling OpenAI chat completions: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}
	return parseResponse(resp.Choices[0].Message.Content)
}
