// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cite runs the citation pipeline: keyword extraction, paper
// search, semantic matching, citation synthesis and filtering. Stages run
// sequentially for one request; the stage components are built once and
// shared read-only across requests.
package cite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/cite-engine/internal/search"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// KeywordExtractor derives search terms from the essay.
type KeywordExtractor interface {
	Extract(ctx context.Context, sentences []types.EssaySentence) ([]types.SearchTerm, error)
}

// Matcher pairs essay sentences with abstract sentences.
type Matcher interface {
	Match(ctx context.Context, sentences []types.EssaySentence, papers []types.Paper) ([]types.MatchedPair, error)
}

// Synthesizer decides which pairs need a citation.
type Synthesizer interface {
	Synthesize(ctx context.Context, pairs []types.MatchedPair) ([]types.CitationDecision, error)
}

// Deps are the stage components of a Pipeline.
type Deps struct {
	Keywords    KeywordExtractor
	Source      search.Source
	Matcher     Matcher
	Synthesizer Synthesizer
	Fetch       search.FetchOptions
	Logger      *zap.Logger
}

// Pipeline wires the five stages together.
type Pipeline struct {
	keywords KeywordExtractor
	source   search.Source
	matcher  Matcher
	synth    Synthesizer
	fetch    search.FetchOptions
	logger   *zap.Logger
}

// New creates a Pipeline from deps.
func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fetch := deps.Fetch
	if fetch.Logger == nil {
		fetch.Logger = logger
	}
	return &Pipeline{
		keywords: deps.Keywords,
		source:   deps.Source,
		matcher:  deps.Matcher,
		synth:    deps.Synthesizer,
		fetch:    fetch,
		logger:   logger,
	}
}

// Stage names used in reports, logs and metrics.
const (
	StageKeywords  = "keywords"
	StageSearch    = "search"
	StageMatch     = "match"
	StageSynthesis = "synthesis"
	StageFilter    = "filter"
)

// StageTiming records how long one stage took.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// Report describes one pipeline run.
type Report struct {
	Sentences int                `json:"sentences"`
	Terms     []types.SearchTerm `json:"terms"`
	Search    search.FetchReport `json:"search"`
	Pairs     int                `json:"pairs"`
	Decisions int                `json:"decisions"`
	Results   int                `json:"results"`
	Stages    []StageTiming      `json:"stages"`
	Total     time.Duration      `json:"total"`

	// FailedStage names the stage that returned the error, if any.
	FailedStage string `json:"failed_stage,omitempty"`
}

// LogFields renders r as zap fields.
func (r Report) LogFields() []zap.Field {
	fields := []zap.Field{
		zap.Int("sentences", r.Sentences),
		zap.Strings("terms", r.Terms),
		zap.Int("failed_terms", r.Search.FailedTerms),
		zap.Int("papers", r.Search.Papers),
		zap.Int("pairs", r.Pairs),
		zap.Int("decisions", r.Decisions),
		zap.Int("results", r.Results),
		zap.Duration("total", r.Total),
	}
	for _, st := range r.Stages {
		fields = append(fields, zap.Duration(st.Stage, st.Duration))
	}
	if r.FailedStage != "" {
		fields = append(fields, zap.String("failed_stage", r.FailedStage))
	}
	return fields
}

// Run validates sentences and executes the pipeline. Input errors are
// reported before any external call.
func (p *Pipeline) Run(ctx context.Context, sentences []types.EssaySentence) ([]types.ResultItem, error) {
	items, _, err := p.RunWithReport(ctx, sentences)
	return items, err
}

// RunWithReport is Run plus per-stage timings and counts. The report is
// filled up to the failing stage when an error is returned.
func (p *Pipeline) RunWithReport(ctx context.Context, sentences []types.EssaySentence) ([]types.ResultItem, Report, error) {
	start := time.Now()
	report := Report{Sentences: len(sentences)}
	finish := func(stage string, err error) error {
		report.Total = time.Since(start)
		if err != nil {
			report.FailedStage = stage
		}
		return err
	}

	if err := Validate(sentences); err != nil {
		return nil, report, finish("validate", err)
	}

	timed := func(stage string, fn func() error) error {
		t := time.Now()
		err := fn()
		report.Stages = append(report.Stages, StageTiming{Stage: stage, Duration: time.Since(t)})
		return err
	}

	var terms []types.SearchTerm
	if err := timed(StageKeywords, func() (err error) {
		terms, err = p.keywords.Extract(ctx, sentences)
		return err
	}); err != nil {
		return nil, report, finish(StageKeywords, fmt.Errorf("extracting keywords: %w", err))
	}
	report.Terms = terms
	p.logger.Debug("extracted search terms", zap.Strings("terms", terms))

	var papers []types.Paper
	timed(StageSearch, func() error {
		papers, report.Search = search.FetchAll(ctx, p.source, terms, p.fetch)
		return nil
	})
	if err := ctx.Err(); err != nil {
		return nil, report, finish(StageSearch, err)
	}

	var pairs []types.MatchedPair
	if err := timed(StageMatch, func() (err error) {
		pairs, err = p.matcher.Match(ctx, sentences, papers)
		return err
	}); err != nil {
		return nil, report, finish(StageMatch, fmt.Errorf("matching sentences: %w", err))
	}
	report.Pairs = len(pairs)

	var decisions []types.CitationDecision
	if err := timed(StageSynthesis, func() (err error) {
		decisions, err = p.synth.Synthesize(ctx, pairs)
		return err
	}); err != nil {
		return nil, report, finish(StageSynthesis, fmt.Errorf("synthesizing citations: %w", err))
	}
	report.Decisions = len(decisions)

	var items []types.ResultItem
	timed(StageFilter, func() error {
		items = Filter(decisions)
		return nil
	})
	report.Results = len(items)
	return items, report, finish("", nil)
}

// Validate rejects an empty sentence list and sentences with blank text.
func Validate(sentences []types.EssaySentence) error {
	if len(sentences) == 0 {
		return ErrNoSentences
	}
	for i, s := range sentences {
		if strings.TrimSpace(s.Text) == "" {
			return InvalidInput("Sentence %d has no text", i)
		}
	}
	return nil
}
