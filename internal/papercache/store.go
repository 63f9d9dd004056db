// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package papercache persists paper search responses in SQLite so repeated
// search terms skip the remote API until the entry expires.
package papercache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/cite-engine/pkg/types"
)

// Store manages the paper cache database.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Stats describes the cache contents.
type Stats struct {
	Entries int `json:"entries" yaml:"entries"`
	Expired int `json:"expired" yaml:"expired"`
	Papers  int `json:"papers" yaml:"papers"`
}

// NewStore opens or creates the cache database at path. Entries older than
// ttl are treated as misses; a non-positive ttl never expires entries.
func NewStore(path string, ttl time.Duration) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, ttl: ttl, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS search_cache (
		source TEXT NOT NULL,
		term TEXT NOT NULL,
		papers TEXT NOT NULL,
		paper_count INTEGER NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (source, term)
	)`)
	return err
}

func normalizeTerm(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}

// Get returns the cached papers for source and term. ok is false when the
// entry is missing or expired.
func (s *Store) Get(ctx context.Context, source, term string) ([]types.Paper, bool, error) {
	var raw string
	var fetched int64
	err := s.db.QueryRowContext(ctx,
		`SELECT papers, fetched_at FROM search_cache WHERE source = ? AND term = ?`,
		source, normalizeTerm(term),
	).Scan(&raw, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying cache: %w", err)
	}
	if s.expired(fetched) {
		return nil, false, nil
	}

	var papers []types.Paper
	if err := json.Unmarshal([]byte(raw), &papers); err != nil {
		return nil, false, fmt.Errorf("decoding cached papers: %w", err)
	}
	return papers, true, nil
}

// Put stores papers for source and term, replacing any previous entry.
func (s *Store) Put(ctx context.Context, source, term string, papers []types.Paper) error {
	if papers == nil {
		papers = []types.Paper{}
	}
	raw, err := json.Marshal(papers)
	if err != nil {
		return fmt.Errorf("encoding papers: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO search_cache (source, term, papers, paper_count, fetched_at)
		 VALUES (?, ?, ?, ?, ?)`,
		source, normalizeTerm(term), string(raw), len(papers), s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Stats counts entries, expired entries and cached papers.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT paper_count, fetched_at FROM search_cache`)
	if err != nil {
		return Stats{}, fmt.Errorf("querying cache: %w", err)
	}
	defer rows.Close()

	var st Stats
	for rows.Next() {
		var count int
		var fetched int64
		if err := rows.Scan(&count, &fetched); err != nil {
			return Stats{}, fmt.Errorf("scanning cache row: %w", err)
		}
		st.Entries++
		st.Papers += count
		if s.expired(fetched) {
			st.Expired++
		}
	}
	return st, rows.Err()
}

// Purge deletes expired entries, or every entry when all is true. It
// returns the number of rows removed.
func (s *Store) Purge(ctx context.Context, all bool) (int64, error) {
	var res sql.Result
	var err error
	switch {
	case all:
		res, err = s.db.ExecContext(ctx, `DELETE FROM search_cache`)
	case s.ttl <= 0:
		return 0, nil
	default:
		cutoff := s.now().Add(-s.ttl).Unix()
		res, err = s.db.ExecContext(ctx, `DELETE FROM search_cache WHERE fetched_at < ?`, cutoff)
	}
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) expired(fetched int64) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(time.Unix(fetched, 0)) > s.ttl
}
