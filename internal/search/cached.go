// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdiddy/cite-engine/pkg/types"
)

// PaperCache stores search responses per source and term.
type PaperCache interface {
	Get(ctx context.Context, source, term string) ([]types.Paper, bool, error)
	Put(ctx context.Context, source, term string, papers []types.Paper) error
}

// Cached wraps a Source with a PaperCache. Cache failures are logged and
// fall through to the wrapped source; failed searches are not cached.
type Cached struct {
	Source Source
	Cache  PaperCache
	Logger *zap.Logger
}

// NewCached returns src unchanged when cache is nil.
func NewCached(src Source, cache PaperCache, logger *zap.Logger) Source {
	if cache == nil {
		return src
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{Source: src, Cache: cache, Logger: logger}
}

// Name returns the wrapped source's name.
func (c *Cached) Name() string { return c.Source.Name() }

// Search serves term from the cache when present.
func (c *Cached) Search(ctx context.Context, term types.SearchTerm) ([]types.Paper, error) {
	papers, ok, err := c.Cache.Get(ctx, c.Source.Name(), term)
	if err != nil {
		c.Logger.Warn("paper cache read failed", zap.String("term", term), zap.Error(err))
	} else if ok {
		return papers, nil
	}

	papers, err = c.Source.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	if err := c.Cache.Put(ctx, c.Source.Name(), term, papers); err != nil {
		c.Logger.Warn("paper cache write failed", zap.String("term", term), zap.Error(err))
	}
	return papers, nil
}
