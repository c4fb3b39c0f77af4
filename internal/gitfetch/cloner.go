package gitfetch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/repowiki/internal/config"
	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
	"git.home.luguber.info/inful/repowiki/internal/github"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
	"git.home.luguber.info/inful/repowiki/internal/workspace"
)

// Cloner fetches documentation by cloning into a scratch workspace.
type Cloner struct {
	ws       *workspace.Manager
	token    string
	depth    int
	maxFiles int
	log      *slog.Logger
	remote   func(owner, repo string) string
}

// NewCloner builds a cloner from config. The GitHub token, when present,
// authenticates clones of private repositories.
func NewCloner(fetchCfg config.FetchConfig, ghCfg config.GitHubConfig, log *slog.Logger) *Cloner {
	if log == nil {
		log = slog.Default()
	}
	maxFiles := fetchCfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = config.DefaultMaxFiles
	}
	return &Cloner{
		ws:       workspace.NewManager(fetchCfg.WorkspaceDir, fetchCfg.KeepWorkspaces, log),
		token:    ghCfg.Token,
		depth:    fetchCfg.CloneDepth,
		maxFiles: maxFiles,
		log:      log,
		remote: func(owner, repo string) string {
			return "https://github.com/" + owner + "/" + repo + ".git"
		},
	}
}

// WithRemote overrides how clone URLs are derived from owner/repo.
func (c *Cloner) WithRemote(fn func(owner, repo string) string) *Cloner {
	if fn != nil {
		c.remote = fn
	}
	return c
}

// Workspace exposes the scratch directory manager.
func (c *Cloner) Workspace() *workspace.Manager { return c.ws }

// CloneDocs clones owner/repo and walks the working tree for documentation.
// The checkout is released afterwards unless keep_workspaces is set.
func (c *Cloner) CloneDocs(ctx context.Context, owner, repo string) (*github.Snapshot, error) {
	repoPath, err := c.ws.Checkout(owner, repo)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to prepare clone workspace").Build()
	}
	defer c.ws.Release(repoPath)

	url := c.remote(owner, repo)
	opts := &gogit.CloneOptions{URL: url, SingleBranch: true}
	if c.depth > 0 {
		opts.Depth = c.depth
	}
	if c.token != "" {
		// GitHub and GitLab accept "token" as the basic-auth username.
		opts.Auth = &githttp.BasicAuth{Username: "token", Password: c.token}
	}

	c.log.Debug("cloning repository", logfields.URL(url), logfields.Path(repoPath))
	repository, err := gogit.PlainCloneContext(ctx, repoPath, false, opts)
	if err != nil {
		return nil, classifyCloneError(url, err)
	}

	if ref, herr := repository.Head(); herr == nil {
		c.log.Info("repository cloned",
			logfields.Repository(owner+"/"+repo),
			slog.String("commit", ref.Hash().String()[:8]),
			logfields.Path(repoPath))
	} else {
		c.log.Info("repository cloned", logfields.Repository(owner+"/"+repo), logfields.Path(repoPath))
	}

	return collectDocs(repoPath, c.maxFiles)
}

// collectDocs walks a working tree collecting documentation files, capped at
// maxFiles. Root entry names are recorded so later stages can inspect
// manifests; the readme is surfaced separately as well as in the list.
func collectDocs(root string, maxFiles int) (*github.Snapshot, error) {
	snap := &github.Snapshot{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if rel != "." && !strings.Contains(rel, "/") {
				snap.TopLevel = append(snap.TopLevel, d.Name())
			}
			return nil
		}
		if !strings.Contains(rel, "/") {
			snap.TopLevel = append(snap.TopLevel, d.Name())
			if github.IsManifestFile(d.Name()) {
				if data, merr := os.ReadFile(filepath.Clean(path)); merr == nil {
					if snap.Manifests == nil {
						snap.Manifests = map[string]string{}
					}
					snap.Manifests[d.Name()] = github.TruncateManifest(string(data))
				}
			}
		}
		if !github.IsDocFile(rel) {
			return nil
		}
		if len(snap.Files) >= maxFiles {
			return fs.SkipAll
		}

		data, readErr := os.ReadFile(filepath.Clean(path))
		if readErr != nil {
			return nil // unreadable files are skipped, same as API mode
		}
		content := string(data)
		if strings.EqualFold(rel, "readme.md") {
			snap.Readme = content
		}
		snap.Files = append(snap.Files, github.DocFile{
			Path:    rel,
			Name:    d.Name(),
			Title:   github.TitleFromPath(rel),
			Type:    github.ClassifyDocType(rel),
			Content: content,
			Size:    len(data),
		})
		return nil
	})
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to walk clone").
			WithContext("path", root).
			Build()
	}
	return snap, nil
}

// classifyCloneError maps go-git failures onto classified categories so the
// fetch boundary can route them without string parsing. Sentinels first,
// message heuristics for transports that only surface text.
func classifyCloneError(url string, err error) error {
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired), errors.Is(err, transport.ErrAuthorizationFailed):
		return derrors.WrapError(err, derrors.CategoryAuth, "clone rejected: authentication required").
			UserAction().WithContext("url", url).Build()
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return derrors.WrapError(err, derrors.CategoryNotFound, "clone rejected: repository not found").
			WithContext("url", url).Build()
	}

	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "invalid username or password"):
		return derrors.WrapError(err, derrors.CategoryAuth, "clone rejected: authentication required").
			UserAction().WithContext("url", url).Build()
	case strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		return derrors.WrapError(err, derrors.CategoryNotFound, "clone rejected: repository not found").
			WithContext("url", url).Build()
	case strings.Contains(l, "rate limit") || strings.Contains(l, "too many requests"):
		return derrors.WrapError(err, derrors.CategoryRateLimit, "clone throttled").
			Warning().RateLimit().WithContext("url", url).Build()
	case strings.Contains(l, "timeout") || strings.Contains(l, "i/o timeout"):
		return derrors.WrapError(err, derrors.CategoryNetwork, "clone timed out").
			Retryable().WithContext("url", url).Build()
	default:
		return derrors.WrapError(err, derrors.CategoryGit, "clone failed").
			Retryable().WithContext("url", url).Build()
	}
}
