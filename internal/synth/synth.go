// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth asks a language model whether each matched essay sentence
// needs a citation and, if so, for a rewrite carrying an "(Author, Year)"
// citation. All pairs of a request go to the model in one call.
package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/cite-engine/internal/citation"
	"github.com/pdiddy/cite-engine/pkg/types"
)

var (
	// ErrMalformedResponse is returned when the model output cannot be
	// parsed, lacks the analysis list, or has the wrong number of entries.
	ErrMalformedResponse = errors.New("malformed language model response")

	// ErrMissingAPIKey is returned when the selected provider has no key.
	ErrMissingAPIKey = errors.New("language model API key is not configured")
)

// Backend abstracts the chat completion API so tests can supply a mock.
// Implementations send every pair in a single request and return the raw
// per-pair verdicts.
type Backend interface {
	Analyze(ctx context.Context, pairs []types.MatchedPair) (Response, error)
}

// Response is the JSON object the model is instructed to return.
type Response struct {
	Analysis []Verdict `json:"analysis"`
}

// Verdict is one entry of the model's analysis list.
type Verdict struct {
	OriginalSentence  string  `json:"original_sentence"`
	RewrittenSentence string  `json:"rewritten_sentence"`
	Citation          *string `json:"citation"`
	NeedsCitation     bool    `json:"needs_citation"`
}

// Synthesizer turns matched pairs into citation decisions.
type Synthesizer struct {
	backend Backend
	logger  *zap.Logger
}

// New creates a Synthesizer. A nil logger discards output.
func New(backend Backend, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{backend: backend, logger: logger}
}

// Synthesize returns one decision per pair, in pair order. Zero pairs make
// no backend call. The original sentence and paragraph index of each
// decision come from the pair at the same position, not from the model.
func (s *Synthesizer) Synthesize(ctx context.Context, pairs []types.MatchedPair) ([]types.CitationDecision, error) {
	if len(pairs) == 0 {
		return []types.CitationDecision{}, nil
	}

	resp, err := s.backend.Analyze(ctx, pairs)
	if err != nil {
		return nil, err
	}
	if len(resp.Analysis) != len(pairs) {
		return nil, fmt.Errorf("%w: %d analysis entries for %d pairs", ErrMalformedResponse, len(resp.Analysis), len(pairs))
	}

	decisions := make([]types.CitationDecision, len(pairs))
	for i, pair := range pairs {
		v := resp.Analysis[i]
		d := types.CitationDecision{
			OriginalSentence:  pair.EssaySentence,
			RewrittenSentence: strings.TrimSpace(v.RewrittenSentence),
			Citation:          v.Citation,
			NeedsCitation:     v.NeedsCitation,
			ParagraphIndex:    pair.ParagraphIndex,
		}
		if d.RewrittenSentence == "" {
			d.RewrittenSentence = pair.EssaySentence
		}
		if d.NeedsCitation && d.Citation != nil && !citation.Valid(*d.Citation) {
			s.logger.Warn("citation does not match (Author, Year) form",
				zap.Int("pair", i),
				zap.String("citation", *d.Citation))
		}
		decisions[i] = d
	}
	return decisions, nil
}

// NewBackend builds the Backend selected by cfg.Provider with the matching
// key from openAIKey or anthropicKey.
func NewBackend(cfg types.LLMConfig, openAIKey, anthropicKey string) (Backend, error) {
	switch cfg.Provider {
	case "", types.LLMOpenAI:
		return NewOpenAIBackend(cfg, openAIKey), nil
	case types.LLMAnthropic:
		return NewClaudeBackend(cfg, anthropicKey), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
