// Package store persists generated documentation in SQLite so repositories
// can be listed and re-served without regenerating. A nil *Store is valid
// everywhere and behaves as an always-empty read-only store.
package store

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/repowiki/internal/analysis"
	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
	"git.home.luguber.info/inful/repowiki/internal/generate"
)

// Store wraps the SQLite database holding repositories and their pages.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	log *slog.Logger
}

// Record is one finished generation, saved as a unit.
type Record struct {
	Repository  *analysis.Repository
	Structure   json.RawMessage
	Pages       []generate.Page
	GeneratedAt time.Time
}

// RepoSummary is one row of the repository listing.
type RepoSummary struct {
	FullName    string    `json:"repository"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language,omitempty"`
	Stars       int       `json:"stars"`
	Sections    []string  `json:"sections"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Documentation is the stored bundle for one repository.
type Documentation struct {
	Repository  json.RawMessage
	Structure   json.RawMessage
	Pages       []generate.Page
	GeneratedAt time.Time
}

// Open opens or creates the database at path and initializes the schema.
// Use ":memory:" for an in-memory database.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryStore, "open documentation store").
			WithContext("path", path).
			Build()
	}
	// A ":memory:" database exists per connection, so the pool must stay at
	// one. All access is serialized through s.mu anyway.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, log: log}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, derrors.WrapError(err, derrors.CategoryStore, "initialize store schema").
			WithContext("path", path).
			Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS repositories (
		full_name TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		stars INTEGER NOT NULL DEFAULT 0,
		html_url TEXT NOT NULL DEFAULT '',
		domain TEXT NOT NULL DEFAULT '',
		analysis TEXT NOT NULL,
		structure TEXT NOT NULL,
		generated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS pages (
		repo TEXT NOT NULL,
		path TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		section TEXT NOT NULL,
		subsection TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		breadcrumb TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		placeholder INTEGER NOT NULL DEFAULT 0,
		fingerprint TEXT NOT NULL,
		generated_at INTEGER NOT NULL,
		PRIMARY KEY (repo, path)
	);
	CREATE INDEX IF NOT EXISTS idx_pages_repo_section ON pages(repo, section);
	CREATE INDEX IF NOT EXISTS idx_repositories_generated_at ON repositories(generated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database. Safe on a nil store.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
