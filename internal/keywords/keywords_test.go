// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package keywords

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cite-engine/pkg/types"
)

// fakeEmbedder maps texts containing "neural" close to the document and
// everything else orthogonal. The document is the first text.
type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) ModelName() string { return "fake" }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		switch {
		case i == 0:
			out[i] = []float64{1, 0}
		case strings.Contains(t, "neural"):
			out[i] = []float64{1, float64(strings.Count(t, " "))}
		default:
			out[i] = []float64{0, 1}
		}
	}
	return out, nil
}

func TestCandidates(t *testing.T) {
	got := Candidates("The neural networks, and the networks!", 1, 2)
	assert.Equal(t, []string{"networks", "networks networks", "neural", "neural networks"}, got)
}

func TestCandidates_Unicode(t *testing.T) {
	got := Candidates("Schrödinger equation naïve café approaches", 1, 1)
	assert.Equal(t, []string{"approaches", "café", "equation", "naïve", "schrödinger"}, got)
}

func TestCandidates_DropsShortTokensAndStopWords(t *testing.T) {
	assert.Empty(t, Candidates("a I of the and", 1, 3))
	assert.Empty(t, Candidates("", 1, 3))
}

func TestCandidates_Trigrams(t *testing.T) {
	got := Candidates("graph neural network models", 3, 3)
	assert.Equal(t, []string{"graph neural network", "neural network models"}, got)
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, IsStopWord("the"))
	assert.True(t, IsStopWord("Because"))
	assert.False(t, IsStopWord("attention"))
}

func TestExtract_RanksBySimilarity(t *testing.T) {
	f := &fakeEmbedder{}
	e := New(f, WithTopN(2))

	terms, err := e.Extract(context.Background(), []types.EssaySentence{
		{Text: "Neural models learn representations."},
		{Text: "Deep neural models generalize.", ParagraphIndex: 1},
	})
	require.NoError(t, err)

	require.Len(t, terms, 2)
	assert.Equal(t, 1, f.calls, "document and candidates embedded in one call")
	// Unigram "neural" is identical to the document vector; the bigrams
	// containing it tie next and keep alphabetical order.
	assert.Equal(t, []string{"neural", "deep neural"}, terms)
}

func TestExtract_CapsAtTopN(t *testing.T) {
	e := New(&fakeEmbedder{})
	terms, err := e.Extract(context.Background(), []types.EssaySentence{
		{Text: "Convolutional networks classify images with learned filters and pooling layers."},
	})
	require.NoError(t, err)
	assert.Len(t, terms, 5)
	for _, term := range terms {
		words := strings.Fields(term)
		assert.GreaterOrEqual(t, len(words), 1)
		assert.LessOrEqual(t, len(words), 3)
		for _, w := range words {
			assert.False(t, IsStopWord(w), "stop word %q in %q", w, term)
		}
	}
}

func TestExtract_NoCandidates(t *testing.T) {
	f := &fakeEmbedder{}
	terms, err := New(f).Extract(context.Background(), []types.EssaySentence{{Text: "It is what it is."}})
	require.NoError(t, err)
	assert.Empty(t, terms)
	assert.Zero(t, f.calls)
}

func TestExtract_EmbedderError(t *testing.T) {
	boom := errors.New("down")
	_, err := New(&fakeEmbedder{err: boom}).Extract(context.Background(), []types.EssaySentence{{Text: "neural nets"}})
	assert.ErrorIs(t, err, boom)
}

func TestFromConfig(t *testing.T) {
	e := FromConfig(&fakeEmbedder{}, types.KeywordConfig{TopN: 3, MinNgram: 2, MaxNgram: 2})
	assert.Equal(t, 3, e.topN)
	assert.Equal(t, 2, e.minN)
	assert.Equal(t, 2, e.maxN)

	d := FromConfig(&fakeEmbedder{}, types.KeywordConfig{})
	assert.Equal(t, 5, d.topN)
	assert.Equal(t, 1, d.minN)
	assert.Equal(t, 3, d.maxN)
}
