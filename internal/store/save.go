package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/inful/mdfp"

	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
	"git.home.luguber.info/inful/repowiki/internal/generate"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
)

// SaveGeneration stores one finished generation in a single transaction.
// Pages whose content fingerprint is unchanged keep their stored
// generated_at; pages whose path disappeared from the new structure are
// removed.
func (s *Store) SaveGeneration(ctx context.Context, rec Record) error {
	if s == nil {
		return derrors.StoreError("no store configured").Build()
	}
	if rec.Repository == nil || rec.Repository.FullName == "" {
		return derrors.StoreError("record has no repository").Build()
	}

	analysisJSON, err := json.Marshal(rec.Repository)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryStore, "encode repository analysis").Build()
	}
	structure := rec.Structure
	if len(structure) == 0 {
		structure = json.RawMessage("null")
	}
	generatedAt := rec.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryStore, "begin save transaction").Build()
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO repositories (full_name, owner, name, description, language, stars, html_url, domain, analysis, structure, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(full_name) DO UPDATE SET
			owner = excluded.owner,
			name = excluded.name,
			description = excluded.description,
			language = excluded.language,
			stars = excluded.stars,
			html_url = excluded.html_url,
			domain = excluded.domain,
			analysis = excluded.analysis,
			structure = excluded.structure,
			generated_at = excluded.generated_at`,
		rec.Repository.FullName,
		rec.Repository.Owner,
		rec.Repository.Name,
		rec.Repository.Description,
		rec.Repository.Language,
		rec.Repository.Stars,
		rec.Repository.HTMLURL,
		rec.Repository.Domain,
		string(analysisJSON),
		string(structure),
		generatedAt.Unix(),
	)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryStore, "upsert repository").
			WithContext("repository", rec.Repository.FullName).
			Build()
	}

	if err := s.savePages(ctx, tx, rec.Repository.FullName, rec.Pages, generatedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return derrors.WrapError(err, derrors.CategoryStore, "commit save transaction").Build()
	}
	s.log.Debug("generation saved",
		logfields.Repository(rec.Repository.FullName),
		logfields.Count(len(rec.Pages)))
	return nil
}

func (s *Store) savePages(ctx context.Context, tx *sql.Tx, repo string, pages []generate.Page, generatedAt time.Time) error {
	existing := map[string]string{}
	rows, err := tx.QueryContext(ctx, `SELECT path, fingerprint FROM pages WHERE repo = ?`, repo)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryStore, "read stored fingerprints").Build()
	}
	for rows.Next() {
		var path, fp string
		if err := rows.Scan(&path, &fp); err != nil {
			rows.Close()
			return derrors.WrapError(err, derrors.CategoryStore, "scan stored fingerprint").Build()
		}
		existing[path] = fp
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return derrors.WrapError(err, derrors.CategoryStore, "iterate stored fingerprints").Build()
	}
	rows.Close()

	kept := make([]string, 0, len(pages))
	for i, p := range pages {
		kept = append(kept, p.Path)
		fp := mdfp.CalculateFingerprintFromParts("", p.Content)
		if existing[p.Path] == fp {
			// Unchanged content keeps its original generated_at; only the
			// outline position may have moved.
			_, err := tx.ExecContext(ctx,
				`UPDATE pages SET position = ? WHERE repo = ? AND path = ?`,
				i, repo, p.Path)
			if err != nil {
				return derrors.WrapError(err, derrors.CategoryStore, "reposition page").
					WithContext("repository", repo).
					WithContext("path", p.Path).
					Build()
			}
			continue
		}
		pageAt := p.GeneratedAt
		if pageAt.IsZero() {
			pageAt = generatedAt
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pages (repo, path, position, section, subsection, title, breadcrumb, content, placeholder, fingerprint, generated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(repo, path) DO UPDATE SET
				position = excluded.position,
				section = excluded.section,
				subsection = excluded.subsection,
				title = excluded.title,
				breadcrumb = excluded.breadcrumb,
				content = excluded.content,
				placeholder = excluded.placeholder,
				fingerprint = excluded.fingerprint,
				generated_at = excluded.generated_at`,
			repo, p.Path, i, p.Section, p.Subsection, p.Title, p.Breadcrumb,
			p.Content, boolInt(p.Placeholder), fp, pageAt.Unix(),
		)
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryStore, "upsert page").
				WithContext("repository", repo).
				WithContext("path", p.Path).
				Build()
		}
	}

	if len(kept) == 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM pages WHERE repo = ?`, repo)
	} else {
		args := make([]any, 0, len(kept)+1)
		args = append(args, repo)
		for _, path := range kept {
			args = append(args, path)
		}
		q := `DELETE FROM pages WHERE repo = ? AND path NOT IN (?` +
			strings.Repeat(", ?", len(kept)-1) + `)`
		_, err = tx.ExecContext(ctx, q, args...)
	}
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryStore, "remove stale pages").
			WithContext("repository", repo).
			Build()
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// PruneOlderThan removes repositories whose documentation was generated
// before cutoff, together with their pages. It returns the number of
// repositories removed.
func (s *Store) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	if s == nil {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, derrors.WrapError(err, derrors.CategoryStore, "begin prune transaction").Build()
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM pages WHERE repo IN (
			SELECT full_name FROM repositories WHERE generated_at < ?
		)`, cutoff.Unix())
	if err != nil {
		return 0, derrors.WrapError(err, derrors.CategoryStore, "prune pages").Build()
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM repositories WHERE generated_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, derrors.WrapError(err, derrors.CategoryStore, "prune repositories").Build()
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, derrors.WrapError(err, derrors.CategoryStore, "count pruned repositories").Build()
	}
	if err := tx.Commit(); err != nil {
		return 0, derrors.WrapError(err, derrors.CategoryStore, "commit prune transaction").Build()
	}
	if n > 0 {
		s.log.Info("pruned stale documentation", logfields.Count(int(n)))
	}
	return int(n), nil
}

// RefreshCandidates lists repositories generated before cutoff, oldest
// first, up to limit. The scheduler uses it to pick repositories whose
// documentation should be rebuilt.
func (s *Store) RefreshCandidates(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	if s == nil || limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT full_name FROM repositories
		WHERE generated_at < ?
		ORDER BY generated_at ASC
		LIMIT ?`, cutoff.Unix(), limit)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryStore, "list refresh candidates").Build()
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryStore, "scan refresh candidate").Build()
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryStore, "iterate refresh candidates").Build()
	}
	return names, nil
}
