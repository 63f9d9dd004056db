// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match pairs essay sentences with the most similar sentence of
// each paper abstract. A pair is kept only when its cosine similarity is
// strictly above the threshold.
package match

import (
	"context"
	"fmt"
	"math"

	"github.com/pdiddy/cite-engine/internal/citation"
	"github.com/pdiddy/cite-engine/internal/embed"
	"github.com/pdiddy/cite-engine/internal/segment"
		"github.com/pdiddy/cite-engine/pkg/types"
)

// DefaultThreshold is the similarity a best match must exceed.
const DefaultThreshold = 0.5

// Matcher holds the shared embedder and segmenter. It keeps no
// per-request state.
type Matcher struct {
	embedder  embed.Embedder
	segmenter segment.Segmenter
	threshold float64
}

// New creates a Matcher. A non-positive threshold selects DefaultThreshold.
func New(embedder embed.Embedder, segmenter segment.Segmenter, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{embedder: embedder, segmenter: segmenter, threshold: threshold}
}

// Threshold returns the strict lower bound on match scores.
func (m *Matcher) Threshold() float64 { return m.threshold }

// paperSpan locates one paper's abstract sentences in the flattened batch.
type paperSpan struct {
	paper      types.Paper
	start, end int
}

// Match returns at most one pair per (essay sentence, paper), ordered by
// paper then by essay sentence. Essay sentences are embedded once and all
// abstract sentences of all papers in a second call.
func (m *Matcher) Match(ctx context.Context, sentences []types.EssaySentence, papers []types.Paper) ([]types.MatchedPair, error) {
	pairs := []types.MatchedPair{}
	if len(sentences) == 0 || len(papers) == 0 {
		return pairs, nil
	}

	var spans []paperSpan
	var abstractSents []string
	for _, p := range papers {
		if !p.HasAbstract() {
			continue
		}
		segs := m.segmenter.Split(p.Abstract)
		if len(segs) == 0 {
			continue
		}
		spans = append(spans, paperSpan{paper: p, start: len(abstractSents), end: len(abstractSents) + len(segs)})
		abstractSents = append(abstractSents, segs...)
	}
	if len(spans) == 0 {
		return pairs, nil
	}

	essayVecs, err := m.embedder.Embed(ctx, types.SentenceTexts(sentences))
	if err != nil {
		return nil, fmt.Errorf("embedding essay sentences: %w", err)
	}
	if len(essayVecs) != len(sentences) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d essay sentences", len(essayVecs), len(sentences))
	}
	abstractVecs, err := m.embedder.Embed(ctx, abstractSents)
	if err != nil {
		return nil, fmt.Errorf("embedding abstract sentences: %w", err)
	}
	if len(abstractVecs) != len(abstractSents) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d abstract sentences", len(abstractVecs), len(abstractSents))
	}

	for _, span := range spans {
		scores := embed.CosineMatrix(essayVecs, abstractVecs[span.start:span.end])
		suggested := citation.Format(span.paper.Authors, span.paper.Year)
		for i, s := range sentences {
			j, score := Best(scores[i])
			if score <= m.threshold {
				continue
			}
			pairs = append(pairs, types.MatchedPair{
				EssaySentence:     s.Text,
				PaperTitle:        span.paper.Title,
				AbstractSentence:  abstractSents[span.start+j],
				Score:             score,
				ParagraphIndex:    s.ParagraphIndex,
				SuggestedCitation: suggested,
			})
		}
	}
	return pairs, nil
}

// Best returns the first index holding the maximum of row and that
// maximum. An empty row yields (-1, -Inf).
func Best(row []float64) (int, float64) {
	best, idx := math.Inf(-1), -1
	for j, v := range row {
		if v > best {
			best, idx = v, j
		}
	}
	return idx, best
}
