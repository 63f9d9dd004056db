// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is the OpenAI embedding model used when none is set.
const DefaultOpenAIModel = "text-embedding-3-small"

// OpenAIEmbedder calls the OpenAI embeddings API.
type OpenAIEmbedder struct {
	apiKey     string
	model      string
	batchSize  int
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	client     openai.Client
}

// OpenAIOption configures an OpenAIEmbedder.
type OpenAIOption func(*OpenAIEmbedder)

// WithOpenAIModel sets the embedding model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(e *OpenAIEmbedder) { e.model = model }
}

// WithOpenAIBaseURL points the client at another OpenAI-compatible endpoint.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(e *OpenAIEmbedder) { e.baseURL = url }
}

// WithOpenAIBatchSize caps the number of inputs per request.
func WithOpenAIBatchSize(n int) OpenAIOption {
	return func(e *OpenAIEmbedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithOpenAITimeout bounds each embeddings call.
func WithOpenAITimeout(d time.Duration) OpenAIOption {
	return func(e *OpenAIEmbedder) { e.timeout = d }
}

// WithOpenAIHTTPClient replaces the HTTP client (for testing).
func WithOpenAIHTTPClient(c *http.Client) OpenAIOption {
	return func(e *OpenAIEmbedder) { e.httpClient = c }
}

// NewOpenAIEmbedder creates an OpenAI embedder. An empty apiKey is accepted
// here and reported as ErrMissingAPIKey on the first Embed call.
func NewOpenAIEmbedder(apiKey string, opts ...OpenAIOption) *OpenAIEmbedder {
	e := &OpenAIEmbedder{
		apiKey:    apiKey,
		model:     DefaultOpenAIModel,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.client = openai.NewClient(e.requestOptions()...)
	return e
}

// ModelName returns the name of the embedding model.
func (e *OpenAIEmbedder) ModelName() string { return e.model }

// Embed encodes texts in batches of at most batchSize.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if e.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	out := make([][]float64, 0, len(texts))
	for _, batch := range batches(texts, e.batchSize) {
		resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: batch},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("calling OpenAI embeddings: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("OpenAI returned %d embeddings for %d inputs", len(resp.Data), len(batch))
		}
		vecs := make([][]float64, len(batch))
		for _, d := range resp.Data {
			if d.Index < 0 || int(d.Index) >= len(batch) {
				return nil, fmt.Errorf("OpenAI returned embedding index %d out of range", d.Index)
			}
			vecs[d.Index] = d.Embedding
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *OpenAIEmbedder) requestOptions() []option.RequestOption {
	opts := []option.RequestOption{option.WithAPIKey(e.apiKey)}
	if e.baseURL != "" {
		opts = append(opts, option.WithBaseURL(e.baseURL))
	}
	if e.timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(e.timeout))
	}
	if e.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(e.httpClient))
	}
	return opts
}
