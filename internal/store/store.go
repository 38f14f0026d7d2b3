// Package store persists fetched story pages in SQLite so repeated searches
// and recent-term selections can be served without a network round trip.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/hackerstories/internal/story"
)

// Store is a page cache keyed by (term, page).
// Safe for concurrent use.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-process cache that disappears on Close.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Each connection to ":memory:" is its own database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		term       TEXT    NOT NULL,
		page       INTEGER NOT NULL,
		nb_pages   INTEGER NOT NULL,
		nb_hits    INTEGER NOT NULL,
		hits       TEXT    NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY (term, page)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_fetched ON pages(fetched_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SavePage stores p, replacing any earlier copy of the same term and page.
func (s *Store) SavePage(p story.Page) error {
	hits, err := json.Marshal(p.Stories)
	if err != nil {
		return fmt.Errorf("encode hits: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO pages (term, page, nb_pages, nb_hits, hits, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(term, page) DO UPDATE SET
			nb_pages = excluded.nb_pages,
			nb_hits = excluded.nb_hits,
			hits = excluded.hits,
			fetched_at = excluded.fetched_at`,
		p.Term, p.Number, p.NbPages, p.NbHits, string(hits), s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("save page %q/%d: %w", p.Term, p.Number, err)
	}
	return nil
}

// GetPage returns the cached page for term and page if it is younger than
// maxAge. maxAge <= 0 accepts any age. The bool reports a hit.
func (s *Store) GetPage(term string, page int, maxAge time.Duration) (story.Page, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		p       = story.Page{Term: term, Number: page}
		hits    string
		fetched int64
	)
	err := s.db.QueryRow(`
		SELECT nb_pages, nb_hits, hits, fetched_at FROM pages
		WHERE term = ? AND page = ?`, term, page).
		Scan(&p.NbPages, &p.NbHits, &hits, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return story.Page{}, false, nil
	}
	if err != nil {
		return story.Page{}, false, fmt.Errorf("get page %q/%d: %w", term, page, err)
	}

	if maxAge > 0 && s.now().Sub(time.Unix(0, fetched)) > maxAge {
		return story.Page{}, false, nil
	}

	if err := json.Unmarshal([]byte(hits), &p.Stories); err != nil {
		return story.Page{}, false, fmt.Errorf("decode hits for %q/%d: %w", term, page, err)
	}
	return p, true, nil
}

// Prune deletes pages older than maxAge and returns how many were removed.
func (s *Store) Prune(maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge).UnixNano()
	res, err := s.db.Exec(`DELETE FROM pages WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune pages: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of cached pages.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}
