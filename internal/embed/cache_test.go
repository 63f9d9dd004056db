// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// countingEmbedder records every text it is asked to embed.
type countingEmbedder struct {
	seen [][]string
	err  error
}

func (c *countingEmbedder) ModelName() string { return "fake" }

func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	c.seen = append(c.seen, append([]string(nil), texts...))
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = fakeVector(t)
	}
	return out, nil
}

func TestLRU_Eviction(t *testing.T) {
	ctx := context.Background()
	l := NewLRU(2)
	l.Set(ctx, "a", []float64{1})
	l.Set(ctx, "b", []float64{2})

	// Touch a so b becomes the eviction candidate.
	_, ok := l.Get(ctx, "a")
	require.True(t, ok)
	l.Set(ctx, "c", []float64{3})

	assert.Equal(t, 2, l.Len())
	_, ok = l.Get(ctx, "b")
	assert.False(t, ok)
	v, ok := l.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, []float64{1}, v)
}

func TestLRU_Overwrite(t *testing.T) {
	ctx := context.Background()
	l := NewLRU(0)
	l.Set(ctx, "a", []float64{1})
	l.Set(ctx, "a", []float64{9})
	v, ok := l.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, []float64{9}, v)
	assert.Equal(t, 1, l.Len())
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("m", "text"), Key("m", "text"))
	assert.NotEqual(t, Key("m1", "text"), Key("m2", "text"))
	assert.Contains(t, Key("m", "text"), "emb:")
}

func TestVectorEncoding(t *testing.T) {
	in := []float64{0.25, -1.5, 3e-9}
	out, ok := decodeVector(encodeVector(in))
	require.True(t, ok)
	assert.Equal(t, in, out)

	_, ok = decodeVector([]byte{1, 2, 3})
	assert.False(t, ok)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	rc, err := NewRedisCache(ctx, mr.Addr(), time.Hour, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer rc.Close()

	_, ok := rc.Get(ctx, "missing")
	assert.False(t, ok)

	rc.Set(ctx, "k", []float64{1, 2})
	v, ok := rc.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, v)

	mr.FastForward(2 * time.Hour)
	_, ok = rc.Get(ctx, "k")
	assert.False(t, ok, "entry should expire after the TTL")
}

func TestRedisCache_ConnectError(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(context.Background(), addr, time.Hour, nil)
	assert.Error(t, err)
}

func TestTiered_BackfillsFasterTier(t *testing.T) {
	ctx := context.Background()
	fast, slow := NewLRU(8), NewLRU(8)
	slow.Set(ctx, "k", []float64{7})

	tiers := Tiered{fast, slow}
	v, ok := tiers.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []float64{7}, v)

	v, ok = fast.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []float64{7}, v)
}

func TestCachedEmbedder(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{}
	e := NewCachedEmbedder(inner, NewLRU(16))

	first, err := e.Embed(ctx, []string{"a", "bb", "a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 1}, {2, 1}, {1, 1}}, first)
	require.Len(t, inner.seen, 1)
	assert.Equal(t, []string{"a", "bb"}, inner.seen[0], "duplicates are embedded once")

	second, err := e.Embed(ctx, []string{"bb", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 1}, {3, 1}}, second)
	require.Len(t, inner.seen, 2)
	assert.Equal(t, []string{"ccc"}, inner.seen[1], "only misses reach the wrapped embedder")

	_, err = e.Embed(ctx, []string{"a", "bb"})
	require.NoError(t, err)
	assert.Len(t, inner.seen, 2, "full hit makes no call")
	assert.Equal(t, "fake", e.ModelName())
}

func TestCachedEmbedder_ErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	e := NewCachedEmbedder(&countingEmbedder{err: boom}, NewLRU(4))
	_, err := e.Embed(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, boom)
}

func TestNewCachedEmbedder_NilCache(t *testing.T) {
	inner := &countingEmbedder{}
	assert.Same(t, inner, NewCachedEmbedder(inner, nil))
}
