package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/cite-engine/internal/cite"
	"github.com/pdiddy/cite-engine/internal/embed"
	"github.com/pdiddy/cite-engine/internal/keywords"
	"github.com/pdiddy/cite-engine/internal/match"
	"github.com/pdiddy/cite-engine/internal/papercache"
	"github.com/pdiddy/cite-engine/internal/search"
	"github.com/pdiddy/cite-engine/internal/secrets"
	"github.com/pdiddy/cite-engine/internal/segment"
	"github.com/pdiddy/cite-engine/internal/synth"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// components holds the long-lived stage handles. They are built once per
// process and shared read-only by every request.
type components struct {
	embedder  embed.Embedder
	segmenter segment.Segmenter
	keywords  *keywords.Extractor
	source    search.Source
	matcher   *match.Matcher
	synth     *synth.Synthesizer
	pipeline  *cite.Pipeline

	closers []io.Closer
}

func (c *components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i].Close())
	}
	return errors.Join(errs...)
}

// stages selects which components buildComponents creates. The search and
// keywords subcommands do not need a language model.
type stages struct {
	keywords bool
	search   bool
	pipeline bool
}

func buildComponents(ctx context.Context, cfg types.PipelineConfig, creds secrets.Credentials, want stages, logger *zap.Logger) (*components, error) {
	c := &components{}
	fail := func(err error) (*components, error) {
		c.Close()
		return nil, err
	}

	if want.keywords || want.pipeline {
		emb, err := buildEmbedder(ctx, cfg, creds, c, logger)
		if err != nil {
			return fail(err)
		}
		c.embedder = emb
		c.keywords = keywords.FromConfig(emb, cfg.Keywords)
	}

	if want.search || want.pipeline {
		src, err := buildSource(cfg, creds, c, logger)
		if err != nil {
			return fail(err)
		}
		c.source = src
	}

	if !want.pipeline {
		return c, nil
	}

	seg, err := segment.NewPunkt()
	if err != nil {
		return fail(fmt.Errorf("loading sentence segmenter: %w", err))
	}
	c.segmenter = seg
	c.matcher = match.New(c.embedder, seg, cfg.Match.Threshold)

	llmKey := creds.OpenAIKey
	anthropicKey := creds.AnthropicKey
	if cfg.LLM.APIKey != "" {
		llmKey, anthropicKey = cfg.LLM.APIKey, cfg.LLM.APIKey
	}
	backend, err := synth.NewBackend(cfg.LLM, llmKey, anthropicKey)
	if err != nil {
		return fail(err)
	}
	c.synth = synth.New(backend, logger.Named("synth"))

	c.pipeline = cite.New(cite.Deps{
		Keywords:    c.keywords,
		Source:      c.source,
		Matcher:     c.matcher,
		Synthesizer: c.synth,
		Fetch: search.FetchOptions{
			Concurrency: cfg.Search.Concurrency,
			Dedupe:      cfg.Search.Dedupe,
			Logger:      logger.Named("search"),
		},
		Logger: logger.Named("pipeline"),
	})
	return c, nil
}

func buildEmbedder(ctx context.Context, cfg types.PipelineConfig, keys secrets.Credentials, c *components, logger *zap.Logger) (embed.Embedder, error) {
	inner, err := embed.New(cfg.Embedding, keys.OpenAIKey)
	if err != nil {
		return nil, err
	}

	var tiers embed.Tiered
	if cfg.Cache.EmbeddingsLRU > 0 {
		tiers = append(tiers, embed.NewLRU(cfg.Cache.EmbeddingsLRU))
	}
	if cfg.Cache.RedisAddr != "" {
		rc, err := embed.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.EmbeddingsTTL, logger.Named("embed-cache"))
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, rc)
		tiers = append(tiers, rc)
	}

	switch len(tiers) {
	case 0:
		return inner, nil
	case 1:
		return embed.NewCachedEmbedder(inner, tiers[0]), nil
	default:
		return embed.NewCachedEmbedder(inner, tiers), nil
	}
}

func buildSource(cfg types.PipelineConfig, keys secrets.Credentials, c *components, logger *zap.Logger) (search.Source, error) {
	client := &http.Client{Timeout: cfg.Search.Timeout}
	src, err := search.New(cfg.Search, keys.SemanticScholarKey, client)
	if err != nil {
		return nil, err
	}
	if cfg.Cache.PapersPath == "" {
		return src, nil
	}
	store, err := papercache.NewStore(cfg.Cache.PapersPath, cfg.Cache.PapersTTL)
	if err != nil {
		return nil, fmt.Errorf("opening paper cache: %w", err)
	}
	c.closers = append(c.closers, store)
	return search.NewCached(src, store, logger.Named("paper-cache")), nil
}
