// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/cite-engine/internal/httputil"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlex queries the OpenAlex Works API. It needs no API key.
type OpenAlex struct {
	Client     *http.Client
	BaseURL    string
	UserAgent  string
	Limit      int
	MaxRetries int

	// Email is sent as the mailto parameter for polite pool access.
	Email string

	Limiter *rate.Limiter
}

// NewOpenAlex builds a client from cfg.
func NewOpenAlex(cfg types.SearchConfig, client *http.Client) *OpenAlex {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &OpenAlex{
		Client:     client,
		BaseURL:    cfg.BaseURL,
		UserAgent:  cfg.UserAgent,
		Limit:      cfg.Limit,
		MaxRetries: cfg.MaxRetries,
		Email:      cfg.Mailto,
		Limiter:    newLimiter(cfg.RateLimit),
	}
}

// Name returns the source identifier.
func (o *OpenAlex) Name() string { return "openalex" }

// Search returns up to Limit works for term that carry an abstract.
func (o *OpenAlex) Search(ctx context.Context, term types.SearchTerm) ([]types.Paper, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}

	limit := o.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	params := url.Values{
		"search":   {term},
		"per_page": {strconv.Itoa(min(limit, 200))},
		"page":     {"1"},
	}
	if o.Email != "" {
		params.Set("mailto", o.Email)
	}
	base := o.BaseURL
	if base == "" {
		base = openAlexSearchBase
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if o.UserAgent != "" {
		req.Header.Set("User-Agent", o.UserAgent)
	}

	if err := wait(ctx, o.Limiter); err != nil {
		return nil, err
	}
	resp, err := httputil.DoWithRetry(ctx, o.Client, req, o.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	papers := make([]types.Paper, 0, len(oar.Results))
	for _, work := range oar.Results {
		p := types.Paper{
			PaperID:  work.ID,
			Title:    work.Title,
			Abstract: reconstructAbstract(work.AbstractInvertedIndex),
			Year:     work.PublicationYear,
		}
		for _, a := range work.Authorships {
			if a.Author.DisplayName != "" {
				p.Authors = append(p.Authors, a.Author.DisplayName)
			}
		}
		papers = append(papers, p)
	}
	return withAbstract(papers), nil
}

// reconstructAbstract rebuilds plain text from an abstract_inverted_index,
// which maps each word to the positions where it occurs.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}
	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].pos < pairs[j].pos })

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	PublicationYear       int                  `json:"publication_year"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}
