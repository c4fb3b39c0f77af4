package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
	"git.home.luguber.info/inful/repowiki/internal/generate"
)

// Repositories lists stored repositories, newest first. A non-empty
// language filters case-insensitively on the primary repository language.
// A nil store lists nothing.
func (s *Store) Repositories(ctx context.Context, language string) ([]RepoSummary, error) {
	if s == nil {
		return []RepoSummary{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := `SELECT full_name, description, language, stars, generated_at FROM repositories`
	var args []any
	if language != "" {
		q += ` WHERE LOWER(language) = LOWER(?)`
		args = append(args, language)
	}
	q += ` ORDER BY generated_at DESC, full_name ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryStore, "list repositories").Build()
	}
	summaries := []RepoSummary{}
	for rows.Next() {
		var sum RepoSummary
		var at int64
		if err := rows.Scan(&sum.FullName, &sum.Description, &sum.Language, &sum.Stars, &at); err != nil {
			rows.Close()
			return nil, derrors.WrapError(err, derrors.CategoryStore, "scan repository row").Build()
		}
		sum.GeneratedAt = time.Unix(at, 0).UTC()
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, derrors.WrapError(err, derrors.CategoryStore, "iterate repositories").Build()
	}
	rows.Close()

	for i := range summaries {
		sections, err := s.sections(ctx, summaries[i].FullName)
		if err != nil {
			return nil, err
		}
		summaries[i].Sections = sections
	}
	return summaries, nil
}

// sections lists the distinct section titles of one repository in outline
// order. Callers hold s.mu.
func (s *Store) sections(ctx context.Context, repo string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT section FROM pages
		WHERE repo = ?
		GROUP BY section
		ORDER BY MIN(position)`, repo)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryStore, "list sections").
			WithContext("repository", repo).
			Build()
	}
	defer rows.Close()

	sections := []string{}
	for rows.Next() {
		var section string
		if err := rows.Scan(&section); err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryStore, "scan section row").Build()
		}
		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryStore, "iterate sections").Build()
	}
	return sections, nil
}

// Count reports how many repositories have stored documentation. A nil
// store counts zero.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s == nil {
		return 0, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM repositories`).Scan(&n); err != nil {
		return 0, derrors.WrapError(err, derrors.CategoryStore, "count repositories").Build()
	}
	return n, nil
}

// Documentation loads the stored bundle for one repository. Unknown
// repositories and nil stores report CategoryNotFound.
func (s *Store) Documentation(ctx context.Context, repo string) (*Documentation, error) {
	if s == nil {
		return nil, derrors.NotFoundError("no documentation stored").
			WithContext("repository", repo).
			Build()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		analysisJSON string
		structure    string
		at           int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT analysis, structure, generated_at FROM repositories
		WHERE full_name = ?`, repo).Scan(&analysisJSON, &structure, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, derrors.NotFoundError("no documentation stored").
			WithContext("repository", repo).
			Build()
	}
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryStore, "load repository").
			WithContext("repository", repo).
			Build()
	}

	pages, err := s.pages(ctx, repo)
	if err != nil {
		return nil, err
	}
	return &Documentation{
		Repository:  json.RawMessage(analysisJSON),
		Structure:   json.RawMessage(structure),
		Pages:       pages,
		GeneratedAt: time.Unix(at, 0).UTC(),
	}, nil
}

// pages loads all pages of one repository in outline order. Callers hold
// s.mu.
func (s *Store) pages(ctx context.Context, repo string) ([]generate.Page, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, section, subsection, title, breadcrumb, content, placeholder, generated_at
		FROM pages
		WHERE repo = ?
		ORDER BY position ASC`, repo)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryStore, "load pages").
			WithContext("repository", repo).
			Build()
	}
	defer rows.Close()

	pages := []generate.Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryStore, "iterate pages").Build()
	}
	return pages, nil
}

// Section looks up one page by its slug path, title, or breadcrumb,
// case-insensitively for the text forms. Misses report CategoryNotFound.
func (s *Store) Section(ctx context.Context, repo, section string) (*generate.Page, error) {
	if s == nil {
		return nil, derrors.NotFoundError("no documentation stored").
			WithContext("repository", repo).
			WithContext("section", section).
			Build()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, section, subsection, title, breadcrumb, content, placeholder, generated_at
		FROM pages
		WHERE repo = ? AND (path = ? OR LOWER(title) = LOWER(?) OR LOWER(breadcrumb) = LOWER(?))
		ORDER BY position ASC
		LIMIT 1`, repo, section, section, section)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryStore, "look up section").
			WithContext("repository", repo).
			WithContext("section", section).
			Build()
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryStore, "look up section").Build()
		}
		return nil, derrors.NotFoundError("documentation section not found").
			WithContext("repository", repo).
			WithContext("section", section).
			Build()
	}
	p, err := scanPage(rows)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (generate.Page, error) {
	var (
		p           generate.Page
		placeholder int
		at          int64
	)
	err := row.Scan(&p.Path, &p.Section, &p.Subsection, &p.Title, &p.Breadcrumb,
		&p.Content, &placeholder, &at)
	if err != nil {
		return generate.Page{}, derrors.WrapError(err, derrors.CategoryStore, "scan page row").Build()
	}
	p.Placeholder = placeholder != 0
	p.GeneratedAt = time.Unix(at, 0).UTC()
	return p, nil
}
