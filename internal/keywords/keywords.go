// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package keywords extracts search terms from essay text by ranking
// candidate n-grams by embedding similarity to the whole document.
package keywords

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/cite-engine/internal/embed"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// tokenPattern matches runs of two or more Unicode letters, marks, digits
// or underscores.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)

// Extractor ranks keyphrase candidates with a shared Embedder.
type Extractor struct {
	embedder embed.Embedder
	topN     int
	minN     int
	maxN     int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTopN sets the maximum number of terms returned.
func WithTopN(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.topN = n
		}
	}
}

// WithNgramRange bounds candidate length in words.
func WithNgramRange(minN, maxN int) Option {
	return func(e *Extractor) {
		if minN > 0 && maxN >= minN {
			e.minN, e.maxN = minN, maxN
		}
	}
}

// New creates an Extractor returning up to 5 terms of 1-3 words by default.
func New(embedder embed.Embedder, opts ...Option) *Extractor {
	e := &Extractor{embedder: embedder, topN: 5, minN: 1, maxN: 3}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FromConfig builds an Extractor from cfg.
func FromConfig(embedder embed.Embedder, cfg types.KeywordConfig) *Extractor {
	return New(embedder, WithTopN(cfg.TopN), WithNgramRange(cfg.MinNgram, cfg.MaxNgram))
}

// Extract returns up to topN search terms for sentences, most relevant
// first. A document with no candidates yields an empty list.
func (e *Extractor) Extract(ctx context.Context, sentences []types.EssaySentence) ([]types.SearchTerm, error) {
	doc := strings.Join(types.SentenceTexts(sentences), " ")
	candidates := Candidates(doc, e.minN, e.maxN)
	if len(candidates) == 0 {
		return []types.SearchTerm{}, nil
	}

	vecs, err := e.embedder.Embed(ctx, append([]string{doc}, candidates...))
	if err != nil {
		return nil, fmt.Errorf("embedding keyword candidates: %w", err)
	}
	if len(vecs) != len(candidates)+1 {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(candidates)+1)
	}

	type scored struct {
		term  string
		score float64
	}
	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{term: c, score: embed.Cosine(vecs[0], vecs[i+1])}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := min(e.topN, len(ranked))
	terms := make([]types.SearchTerm, n)
	for i := range n {
		terms[i] = ranked[i].term
	}
	return terms, nil
}

// Candidates returns the unique minN..maxN-grams of doc in alphabetical
// order. Text is lowercased and stop words are removed before n-grams
// are formed.
func Candidates(doc string, minN, maxN int) []string {
	var tokens []string
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(doc), -1) {
		if !IsStopWord(tok) {
			tokens = append(tokens, tok)
		}
	}

	seen := make(map[string]struct{})
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			seen[strings.Join(tokens[i:i+n], " ")] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
