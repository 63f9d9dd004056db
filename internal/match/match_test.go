// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cite-engine/pkg/types"
)

// tableEmbedder returns fixed vectors per text and counts calls.
type tableEmbedder struct {
	vecs  map[string][]float64
	calls [][]string
	err   error
}

func (e *tableEmbedder) ModelName() string { return "table" }

func (e *tableEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	e.calls = append(e.calls, texts)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, ok := e.vecs[t]
		if !ok {
			v = []float64{0, 0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

// pipeSegmenter splits on "|" and records every text it sees.
type pipeSegmenter struct {
	seen []string
}

func (s *pipeSegmenter) Split(text string) []string {
	s.seen = append(s.seen, text)
	var out []string
	for _, part := range strings.Split(text, "|") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func TestMatch_ThresholdIsStrict(t *testing.T) {
	// cos((1,1,0),(1,0,1)) is exactly 0.5.
	emb := &tableEmbedder{vecs: map[string][]float64{
		"essay":    {1, 1, 0},
		"abstract": {1, 0, 1},
	}}
	m := New(emb, &pipeSegmenter{}, 0.5)

	pairs, err := m.Match(context.Background(),
		[]types.EssaySentence{{Text: "essay"}},
		[]types.Paper{{Title: "P", Abstract: "abstract"}})
	require.NoError(t, err)
	assert.Empty(t, pairs, "a score of exactly 0.5 is not a match")
}

func TestMatch_JustAboveThreshold(t *testing.T) {
	// Lower the threshold just below the exact score to emulate 0.5000001
	// against a threshold of 0.5.
	emb := &tableEmbedder{vecs: map[string][]float64{
		"essay":    {1, 1, 0},
		"abstract": {1, 0, 1},
	}}
	m := New(emb, &pipeSegmenter{}, 0.5-1e-7)

	pairs, err := m.Match(context.Background(),
		[]types.EssaySentence{{Text: "essay"}},
		[]types.Paper{{Title: "P", Abstract: "abstract"}})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.InDelta(t, 0.5, pairs[0].Score, 1e-12)
}

func TestMatch_SlightlyAboveHalf(t *testing.T) {
	emb := &tableEmbedder{vecs: map[string][]float64{
		"essay":    {1, 1, 0},
		"abstract": {1, 0, 0.9999997},
	}}
	m := New(emb, &pipeSegmenter{}, 0.5)

	pairs, err := m.Match(context.Background(),
		[]types.EssaySentence{{Text: "essay"}},
		[]types.Paper{{Title: "P", Abstract: "abstract"}})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Greater(t, pairs[0].Score, 0.5)
}

func TestBest(t *testing.T) {
	tests := []struct {
		name      string
		row       []float64
		wantIdx   int
		wantScore float64
	}{
		{"single", []float64{0.3}, 0, 0.3},
		{"max in middle", []float64{0.1, 0.9, 0.2}, 1, 0.9},
		{"first index on tie", []float64{0.7, 0.2, 0.7}, 0, 0.7},
		{"negative", []float64{-0.5, -0.2}, 1, -0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, score := Best(tt.row)
			assert.Equal(t, tt.wantIdx, idx)
			assert.Equal(t, tt.wantScore, score)
		})
	}

	idx, score := Best(nil)
	assert.Equal(t, -1, idx)
	assert.True(t, math.IsInf(score, -1))
}

func TestMatch_BestSentencePerPaperAndOrder(t *testing.T) {
	emb := &tableEmbedder{vecs: map[string][]float64{
		"e1": {1, 0, 0, 0},
		"e2": {0, 1, 0, 0},
		"a1": {0.9, 0.1, 0, 0},
		"a2": {1, 0, 0, 0},
		"b1": {0, 1, 0, 0},
	}}
	m := New(emb, &pipeSegmenter{}, 0)

	sentences := []types.EssaySentence{{Text: "e1", ParagraphIndex: 0}, {Text: "e2", ParagraphIndex: 3}}
	papers := []types.Paper{
		{Title: "A", Abstract: "a1 | a2", Authors: []string{"Jane Smith"}, Year: 2020},
		{Title: "B", Abstract: "b1"},
	}

	pairs, err := m.Match(context.Background(), sentences, papers)
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	assert.Equal(t, types.MatchedPair{
		EssaySentence:     "e1",
		PaperTitle:        "A",
		AbstractSentence:  "a2",
		Score:             1,
		ParagraphIndex:    0,
		SuggestedCitation: "(Smith, 2020)",
	}, pairs[0])

	assert.Equal(t, "e2", pairs[1].EssaySentence)
	assert.Equal(t, "B", pairs[1].PaperTitle)
	assert.Equal(t, 3, pairs[1].ParagraphIndex, "paragraph index propagates unchanged")
	assert.Empty(t, pairs[1].SuggestedCitation)

	require.Len(t, emb.calls, 2, "essay and abstract sentences are embedded in one call each")
	assert.Equal(t, []string{"e1", "e2"}, emb.calls[0])
	assert.Equal(t, []string{"a1", "a2", "b1"}, emb.calls[1])
}

func TestMatch_EmptyAbstractsContributeNothing(t *testing.T) {
	seg := &pipeSegmenter{}
	emb := &tableEmbedder{}
	m := New(emb, seg, 0.5)

	pairs, err := m.Match(context.Background(),
		[]types.EssaySentence{{Text: "e1"}},
		[]types.Paper{{Title: "No abstract"}, {Title: "Blank", Abstract: "   "}, {Title: "Pipes", Abstract: "| |"}})
	require.NoError(t, err)
	assert.NotNil(t, pairs)
	assert.Empty(t, pairs)
	assert.Equal(t, []string{"| |"}, seg.seen, "abstract-less papers are never segmented")
	assert.Empty(t, emb.calls, "nothing to embed")
}

func TestMatch_NoInput(t *testing.T) {
	emb := &tableEmbedder{}
	m := New(emb, &pipeSegmenter{}, 0)

	pairs, err := m.Match(context.Background(), nil, []types.Paper{{Abstract: "a"}})
	require.NoError(t, err)
	assert.Empty(t, pairs)

	pairs, err = m.Match(context.Background(), []types.EssaySentence{{Text: "e"}}, nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)
	assert.Empty(t, emb.calls)
}

func TestMatch_EmbedError(t *testing.T) {
	boom := errors.New("embedder down")
	m := New(&tableEmbedder{err: boom}, &pipeSegmenter{}, 0)
	_, err := m.Match(context.Background(), []types.EssaySentence{{Text: "e"}}, []types.Paper{{Abstract: "a"}})
	assert.ErrorIs(t, err, boom)
}

func TestNew_DefaultThreshold(t *testing.T) {
	assert.Equal(t, DefaultThreshold, New(nil, nil, 0).Threshold())
	assert.Equal(t, 0.7, New(nil, nil, 0.7).Threshold())
}
