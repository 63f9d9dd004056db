// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries an academic paper source once per search term and
// pools the results for the matcher. A failed term contributes no papers
// and never aborts the batch.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/cite-engine/pkg/types"
)

// ErrMissingAPIKey is returned by sources that require a key when none is
// configured.
var ErrMissingAPIKey = errors.New("Semantic Scholar API key is not configured")

const defaultLimit = 3

// Source searches a single academic API. Semantic Scholar, OpenAlex and
// arXiv implement it; tests substitute fakes.
type Source interface {
	Name() string
	Search(ctx context.Context, term types.SearchTerm) ([]types.Paper, error)
}

// New builds the Source selected by cfg.Provider.
func New(cfg types.SearchConfig, apiKey string, client *http.Client) (Source, error) {
	switch cfg.Provider {
	case "", "semantic_scholar":
		return NewSemanticScholar(cfg, apiKey, client), nil
	case "openalex":
		return NewOpenAlex(cfg, client), nil
	case "arxiv":
		return NewArxiv(cfg, client), nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}
}

// FetchOptions controls FetchAll.
type FetchOptions struct {
	// Concurrency bounds the number of terms in flight (default 1).
	Concurrency int

	// Dedupe collapses papers sharing an id or normalized title.
	Dedupe bool

	Logger *zap.Logger
}

// FetchReport summarizes one FetchAll call.
type FetchReport struct {
	Terms       int `json:"terms"`
	FailedTerms int `json:"failed_terms"`
	Papers      int `json:"papers"`
	DupsRemoved int `json:"dups_removed"`
}

// FetchAll searches every term and concatenates the papers in term order.
// Term failures are logged and counted; they never produce an error. The
// pool is empty when every term fails.
func FetchAll(ctx context.Context, src Source, terms []types.SearchTerm, opts FetchOptions) ([]types.Paper, FetchReport) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}

	perTerm := make([][]types.Paper, len(terms))
	failed := make([]bool, len(terms))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, term := range terms {
		g.Go(func() error {
			papers, err := src.Search(ctx, term)
			if err != nil {
				failed[i] = true
				logger.Warn("paper search failed",
					zap.String("source", src.Name()),
					zap.String("term", term),
					zap.Error(err))
				return nil
			}
			perTerm[i] = withAbstract(papers)
			return nil
		})
	}
	g.Wait()

	report := FetchReport{Terms: len(terms)}
	var pool []types.Paper
	for i := range terms {
		if failed[i] {
			report.FailedTerms++
			continue
		}
		pool = append(pool, perTerm[i]...)
	}
	if opts.Dedupe {
		pool, report.DupsRemoved = deduplicate(pool)
	}
	if pool == nil {
		pool = []types.Paper{}
	}
	report.Papers = len(pool)
	return pool, report
}

// withAbstract drops papers whose abstract is missing or blank.
func withAbstract(papers []types.Paper) []types.Paper {
	kept := papers[:0:0]
	for _, p := range papers {
		if p.HasAbstract() {
			kept = append(kept, p)
		}
	}
	return kept
}

// deduplicate keeps the first occurrence of each paper, keyed by id and by
// normalized title.
func deduplicate(papers []types.Paper) ([]types.Paper, int) {
	seen := make(map[string]bool)
	var deduped []types.Paper
	removed := 0

	for _, p := range papers {
		var keys []string
		if p.PaperID != "" {
			keys = append(keys, "id:"+p.PaperID)
		}
		if t := normalizeTitle(p.Title); t != "" {
			keys = append(keys, "title:"+t)
		}

		dup := false
		for _, k := range keys {
			if seen[k] {
				dup = true
				break
			}
		}
		if dup {
			removed++
			continue
		}
		for _, k := range keys {
			seen[k] = true
		}
		deduped = append(deduped, p)
	}
	return deduped, removed
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// newLimiter returns a token bucket allowing perSecond requests, or nil
// when perSecond is not positive.
func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

func wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	if err := l.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return nil
}
