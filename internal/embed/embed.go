// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed turns sentences into fixed-dimension vectors. The keyword
// extractor and the semantic matcher share one Embedder built at process
// start; implementations hold no per-request state.
package embed

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/cite-engine/pkg/types"
)

// ErrMissingAPIKey is returned when a provider that needs a key has none.
var ErrMissingAPIKey = errors.New("embedding provider API key is not configured")

// Embedder encodes texts into vectors. The returned slice has one vector
// per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	ModelName() string
}

// New builds the Embedder selected by cfg.Provider. apiKey is only used by
// providers that need one.
func New(cfg types.EmbeddingConfig, apiKey string) (Embedder, error) {
	switch cfg.Provider {
	case "", types.EmbeddingOllama:
		opts := []OllamaOption{WithBatchSize(cfg.BatchSize)}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Model != "" {
			opts = append(opts, WithModel(cfg.Model))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		return NewOllamaEmbedder(opts...), nil
	case types.EmbeddingOpenAI:
		opts := []OpenAIOption{WithOpenAIBatchSize(cfg.BatchSize), WithOpenAITimeout(cfg.Timeout)}
		if cfg.BaseURL != "" {
			opts = append(opts, WithOpenAIBaseURL(cfg.BaseURL))
		}
		if cfg.Model != "" {
			opts = append(opts, WithOpenAIModel(cfg.Model))
		}
		return NewOpenAIEmbedder(apiKey, opts...), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// batches splits texts into consecutive chunks of at most size elements.
func batches(texts []string, size int) [][]string {
	if size <= 0 {
		size = len(texts)
	}
	var out [][]string
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		out = append(out, texts[start:end])
	}
	return out
}
