package github

import (
	"context"
	"log/slog"
	"time"

	gh "github.com/google/go-github/v80/github"

	"git.home.luguber.info/inful/repowiki/internal/config"
	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
	"git.home.luguber.info/inful/repowiki/internal/metrics"
)

// Repository is the metadata bundle returned to clients.
type Repository struct {
	Owner         string   `json:"owner"`
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	Description   string   `json:"description"`
	Stars         int      `json:"stars"`
	Forks         int      `json:"forks"`
	Language      string   `json:"language"`
	License       string   `json:"license"`
	Topics        []string `json:"topics"`
	Archived      bool     `json:"archived"`
	DefaultBranch string   `json:"default_branch"`
	HTMLURL       string   `json:"html_url"`
}

// Bundle is everything the pipeline needs from one repository fetch.
// TopLevel lists root entry names (files and directories) so later stages can
// spot lockfiles and CI config without another API round trip; Manifests
// carries the text of recognized root build files for prompt context.
type Bundle struct {
	Repository Repository
	Readme     string
	DocFiles   []DocFile
	TopLevel   []string
	Manifests  map[string]string
}

// Snapshot is what a tree traversal yields: documentation files, the readme
// when one was seen, root entry names, and root manifest contents.
type Snapshot struct {
	Readme    string
	Files     []DocFile
	TopLevel  []string
	Manifests map[string]string
}

// Cloner reads documentation files from a local git clone. It exists so the
// fetcher can fall back to cloning when the tree API reports truncation.
type Cloner interface {
	CloneDocs(ctx context.Context, owner, repo string) (*Snapshot, error)
}

// Fetcher discovers repository metadata, README, and documentation files.
type Fetcher struct {
	client   *Client
	cloner   Cloner
	recorder metrics.Recorder
	log      *slog.Logger
	mode     config.FetchMode
	maxDepth int
	maxFiles int
}

// NewFetcher wires a fetcher from config. cloner may be nil when the clone
// fallback is not configured; auto mode then degrades to api behavior.
func NewFetcher(client *Client, cloner Cloner, cfg config.FetchConfig, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = config.DefaultMaxDepth
	}
	maxFiles := cfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = config.DefaultMaxFiles
	}
	return &Fetcher{
		client:   client,
		cloner:   cloner,
		recorder: metrics.NoopRecorder{},
		log:      log,
		mode:     config.NormalizeFetchMode(string(cfg.Mode)),
		maxDepth: maxDepth,
		maxFiles: maxFiles,
	}
}

// WithRecorder injects a metrics recorder.
func (f *Fetcher) WithRecorder(r metrics.Recorder) *Fetcher {
	if r != nil {
		f.recorder = r
	}
	return f
}

// Fetch returns the repository bundle for owner/repo.
// A missing README or unreadable subdirectory never fails the fetch; only a
// rejected repository (not found, auth, throttled metadata call) does.
func (f *Fetcher) Fetch(ctx context.Context, owner, repo string) (*Bundle, error) {
	start := time.Now()
	fullName := owner + "/" + repo

	repository, err := f.client.GetRepository(ctx, owner, repo)
	if err != nil {
		f.recorder.ObserveFetchDuration(fullName, time.Since(start), false)
		return nil, f.classify(err, fullName)
	}

	bundle := &Bundle{Repository: repositoryFrom(repository, owner)}

	readme, err := f.client.GetReadme(ctx, owner, repo)
	switch {
	case err == nil:
		bundle.Readme = readme
	case IsNotFound(err):
		f.log.Debug("repository has no readme", logfields.Repository(fullName))
	default:
		f.log.Warn("readme fetch failed, continuing without it", logfields.Repository(fullName), logfields.Error(err))
	}

	snap := f.discover(ctx, owner, repo, bundle.Repository.DefaultBranch)
	bundle.DocFiles = snap.Files
	bundle.TopLevel = snap.TopLevel
	bundle.Manifests = snap.Manifests
	if bundle.Readme == "" {
		bundle.Readme = snap.Readme
	}

	f.recorder.ObserveFetchDuration(fullName, time.Since(start), true)
	f.recorder.AddFilesDiscovered(len(bundle.DocFiles))
	f.log.Info("repository fetched",
		logfields.Repository(fullName),
		logfields.Count(len(bundle.DocFiles)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return bundle, nil
}

// discover picks the traversal strategy per the configured fetch mode. The
// clone path also yields a readme, used when the API fetch came back empty.
func (f *Fetcher) discover(ctx context.Context, owner, repo, defaultBranch string) *Snapshot {
	fullName := owner + "/" + repo

	mode := f.mode
	if mode == config.FetchModeAuto {
		mode = f.probe(ctx, owner, repo, defaultBranch)
	}

	if mode == config.FetchModeClone && f.cloner != nil {
		snap, err := f.cloner.CloneDocs(ctx, owner, repo)
		if err == nil {
			snap.Files = capFiles(snap.Files, f.maxFiles)
			return snap
		}
		f.log.Warn("clone fetch failed, falling back to api traversal", logfields.Repository(fullName), logfields.Error(err))
	}

	var state crawlState
	f.crawl(ctx, owner, repo, "", 0, &state)
	if state.capped {
		f.log.Warn("documentation discovery stopped at file cap",
			logfields.Repository(fullName), logfields.Count(f.maxFiles))
	}
	return &Snapshot{Files: state.files, TopLevel: state.topLevel, Manifests: state.manifests}
}

// probe decides between api and clone for auto mode using the recursive tree
// call: a truncated tree means directory crawling would see a partial view.
func (f *Fetcher) probe(ctx context.Context, owner, repo, defaultBranch string) config.FetchMode {
	if f.cloner == nil || defaultBranch == "" {
		return config.FetchModeAPI
	}
	tree, err := f.client.GetTree(ctx, owner, repo, defaultBranch)
	if err != nil {
		f.log.Debug("tree probe failed, staying on api traversal",
			logfields.Repository(owner+"/"+repo), logfields.Error(err))
		return config.FetchModeAPI
	}
	if tree.GetTruncated() {
		f.log.Info("tree truncated, switching to clone fetch", logfields.Repository(owner+"/"+repo))
		return config.FetchModeClone
	}
	return config.FetchModeAPI
}

type crawlState struct {
	files     []DocFile
	topLevel  []string
	manifests map[string]string
	capped    bool
}

func (s *crawlState) full(maxFiles int) bool {
	if len(s.files) >= maxFiles {
		s.capped = true
		return true
	}
	return false
}

// crawl walks one directory level, recursing depth-first into subdirectories.
// Directory and per-file errors are logged and skipped, never propagated.
func (f *Fetcher) crawl(ctx context.Context, owner, repo, dir string, depth int, state *crawlState) {
	if depth > f.maxDepth {
		f.log.Debug("skipping directory beyond depth cap", logfields.Path(dir))
		return
	}
	if state.full(f.maxFiles) {
		return
	}

	entries, err := f.client.ListDirectory(ctx, owner, repo, dir)
	if err != nil {
		f.log.Warn("directory listing failed, treating as empty",
			logfields.Repository(owner+"/"+repo), logfields.Path(dir), logfields.Error(err))
		return
	}

	for _, entry := range entries {
		if dir == "" {
			state.topLevel = append(state.topLevel, entry.GetName())
		}
		if state.full(f.maxFiles) {
			return
		}
		switch entry.GetType() {
		case "dir":
			f.crawl(ctx, owner, repo, entry.GetPath(), depth+1, state)
		case "file":
			path := entry.GetPath()
			if dir == "" && IsManifestFile(entry.GetName()) {
				if content, merr := f.client.GetFileContent(ctx, owner, repo, path); merr == nil {
					if state.manifests == nil {
						state.manifests = map[string]string{}
					}
					state.manifests[entry.GetName()] = TruncateManifest(content)
				}
			}
			if !IsDocFile(path) {
				continue
			}
			content, err := f.client.GetFileContent(ctx, owner, repo, path)
			if err != nil {
				f.log.Warn("file fetch failed, omitting from results",
					logfields.Repository(owner+"/"+repo), logfields.Path(path), logfields.Error(err))
				continue
			}
			state.files = append(state.files, DocFile{
				Path:    path,
				Name:    entry.GetName(),
				Title:   TitleFromPath(path),
				Type:    ClassifyDocType(path),
				Content: content,
				Size:    entry.GetSize(),
			})
		}
	}
}

// classify wraps wire-level errors into classified errors at the stage boundary.
func (f *Fetcher) classify(err error, fullName string) error {
	switch {
	case IsNotFound(err):
		return derrors.WrapError(err, derrors.CategoryNotFound, "repository not found: "+fullName).Build()
	case IsRateLimited(err):
		return derrors.WrapError(err, derrors.CategoryRateLimit, "github rate limited fetching "+fullName).
			Warning().RateLimit().Build()
	case IsUnauthorized(err):
		return derrors.WrapError(err, derrors.CategoryAuth, "github rejected credentials").UserAction().Build()
	default:
		return derrors.WrapError(err, derrors.CategoryGitHub, "fetch repository "+fullName).Retryable().Build()
	}
}

func capFiles(files []DocFile, maxFiles int) []DocFile {
	if len(files) <= maxFiles {
		return files
	}
	return files[:maxFiles]
}

func repositoryFrom(r *gh.Repository, owner string) Repository {
	if login := r.GetOwner().GetLogin(); login != "" {
		owner = login
	}
	return Repository{
		Owner:         owner,
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		Language:      r.GetLanguage(),
		License:       r.GetLicense().GetName(),
		Topics:        r.Topics,
		Archived:      r.GetArchived(),
		DefaultBranch: r.GetDefaultBranch(),
		HTMLURL:       r.GetHTMLURL(),
	}
}
