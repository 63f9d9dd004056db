// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/cite-engine/internal/httputil"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,year"

// SemanticScholar queries the Semantic Scholar Graph API.
type SemanticScholar struct {
	Client     *http.Client
	APIKey     string
	BaseURL    string
	UserAgent  string
	Limit      int
	MaxRetries int

	// Limiter paces outbound requests. Nil means unlimited.
	Limiter *rate.Limiter
}

// NewSemanticScholar builds a client from cfg. An empty apiKey is accepted
// and reported as ErrMissingAPIKey when a search is attempted.
func NewSemanticScholar(cfg types.SearchConfig, apiKey string, client *http.Client) *SemanticScholar {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &SemanticScholar{
		Client:     client,
		APIKey:     apiKey,
		BaseURL:    cfg.BaseURL,
		UserAgent:  cfg.UserAgent,
		Limit:      cfg.Limit,
		MaxRetries: cfg.MaxRetries,
		Limiter:    newLimiter(cfg.RateLimit),
	}
}

// Name returns the source identifier.
func (s *SemanticScholar) Name() string { return "semantic_scholar" }

// Search returns up to Limit papers for term, discarding papers without an
// abstract.
func (s *SemanticScholar) Search(ctx context.Context, term types.SearchTerm) ([]types.Paper, error) {
	if s.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}

	limit := s.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	params := url.Values{
		"query":  {term},
		"limit":  {strconv.Itoa(limit)},
		"fields": {semanticFields},
	}
	base := s.BaseURL
	if base == "" {
		base = semanticAPIBase
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	req.Header.Set("x-api-key", s.APIKey)

	if err := wait(ctx, s.Limiter); err != nil {
		return nil, err
	}
	resp, err := httputil.DoWithRetry(ctx, s.Client, req, s.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	papers := make([]types.Paper, 0, len(sr.Data))
	for _, sp := range sr.Data {
		p := types.Paper{
			PaperID: sp.PaperID,
			Title:   sp.Title,
			Year:    sp.Year,
		}
		if sp.Abstract != nil {
			p.Abstract = *sp.Abstract
		}
		for _, a := range sp.Authors {
			if a.Name != "" {
				p.Authors = append(p.Authors, a.Name)
			}
		}
		papers = append(papers, p)
	}
	return withAbstract(papers), nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID  string           `json:"paperId"`
	Title    string           `json:"title"`
	Abstract *string          `json:"abstract"`
	Year     int              `json:"year"`
	Authors  []semanticAuthor `json:"authors"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}
