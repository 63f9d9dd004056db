// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/cite-engine/internal/httputil"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// Arxiv queries the arXiv Atom API. Every arXiv entry carries an abstract.
type Arxiv struct {
	Client     *http.Client
	BaseURL    string
	UserAgent  string
	Limit      int
	MaxRetries int
	Limiter    *rate.Limiter
}

// NewArxiv builds a client from cfg.
func NewArxiv(cfg types.SearchConfig, client *http.Client) *Arxiv {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Arxiv{
		Client:     client,
		BaseURL:    cfg.BaseURL,
		UserAgent:  cfg.UserAgent,
		Limit:      cfg.Limit,
		MaxRetries: cfg.MaxRetries,
		Limiter:    newLimiter(cfg.RateLimit),
	}
}

// Name returns the source identifier.
func (a *Arxiv) Name() string { return "arxiv" }

// Search returns up to Limit entries for term ordered by relevance.
func (a *Arxiv) Search(ctx context.Context, term types.SearchTerm) ([]types.Paper, error) {
	q := buildArxivQuery(term)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}

	limit := a.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	params := url.Values{
		"search_query": {q},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(limit)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}
	base := a.BaseURL
	if base == "" {
		base = arxivAPIBase
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	if err := wait(ctx, a.Limiter); err != nil {
		return nil, err
	}
	resp, err := httputil.DoWithRetry(ctx, a.Client, req, a.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	papers := make([]types.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		id := extractArxivID(entry.ID)
		if id == "" {
			continue
		}
		p := types.Paper{
			PaperID:  "arXiv:" + id,
			Title:    strings.Join(strings.Fields(entry.Title), " "),
			Abstract: strings.Join(strings.Fields(entry.Summary), " "),
		}
		for _, au := range entry.Authors {
			p.Authors = append(p.Authors, strings.TrimSpace(au.Name))
		}
		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			p.Year = t.Year()
		}
		papers = append(papers, p)
	}
	return withAbstract(papers), nil
}

// buildArxivQuery turns a search term into an all-fields phrase query.
func buildArxivQuery(term string) string {
	words := strings.Fields(term)
	if len(words) == 0 {
		return ""
	}
	if len(words) == 1 {
		return "all:" + words[0]
	}
	return `all:"` + strings.Join(words, " ") + `"`
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
