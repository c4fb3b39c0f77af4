package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repowiki/internal/config"
	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// docTreeHandler serves a small fixed repository:
//
//	README.md
//	LICENSE
//	package.json
//	docs/intro.md
//	docs/api.md
//	src/index.js
func docTreeHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/octocat/Hello-World":
			fmt.Fprint(w, `{"name":"Hello-World","full_name":"octocat/Hello-World","owner":{"login":"octocat"},"description":"My first repo","stargazers_count":1999,"forks_count":9,"language":"C","license":{"name":"MIT License"},"topics":["demo"],"default_branch":"master","html_url":"https://github.com/octocat/Hello-World"}`)
		case "/repos/octocat/Hello-World/readme":
			fmt.Fprint(w, b64Content("README.md", "README.md", "# Hello World\n\nFirst repo.\n"))
		case "/repos/octocat/Hello-World/contents/":
			fmt.Fprint(w, `[
				{"type":"file","name":"README.md","path":"README.md","size":28},
				{"type":"file","name":"LICENSE","path":"LICENSE","size":1024},
				{"type":"file","name":"package.json","path":"package.json","size":25},
				{"type":"dir","name":"docs","path":"docs"},
				{"type":"dir","name":"src","path":"src"}
			]`)
		case "/repos/octocat/Hello-World/contents/docs":
			fmt.Fprint(w, `[
				{"type":"file","name":"intro.md","path":"docs/intro.md","size":8},
				{"type":"file","name":"api.md","path":"docs/api.md","size":6}
			]`)
		case "/repos/octocat/Hello-World/contents/src":
			fmt.Fprint(w, `[{"type":"file","name":"index.js","path":"src/index.js","size":120}]`)
		case "/repos/octocat/Hello-World/contents/README.md":
			fmt.Fprint(w, b64Content("README.md", "README.md", "# Hello World\n\nFirst repo.\n"))
		case "/repos/octocat/Hello-World/contents/package.json":
			fmt.Fprint(w, b64Content("package.json", "package.json", `{"name":"hello-world"}`))
		case "/repos/octocat/Hello-World/contents/docs/intro.md":
			fmt.Fprint(w, b64Content("intro.md", "docs/intro.md", "# Intro\n"))
		case "/repos/octocat/Hello-World/contents/docs/api.md":
			fmt.Fprint(w, b64Content("api.md", "docs/api.md", "# API\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		}
	})
}

func newTestFetcher(t *testing.T, handler http.Handler, cfg config.FetchConfig) *Fetcher {
	t.Helper()
	return NewFetcher(newTestClient(t, handler), nil, cfg, discardLogger())
}

func docPaths(files []DocFile) []string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return paths
}

func TestFetchCollectsDocumentation(t *testing.T) {
	f := newTestFetcher(t, docTreeHandler(), config.FetchConfig{Mode: config.FetchModeAPI})

	bundle, err := f.Fetch(context.Background(), "octocat", "Hello-World")
	require.NoError(t, err)

	require.Equal(t, "Hello-World", bundle.Repository.Name)
	require.Equal(t, "octocat", bundle.Repository.Owner)
	require.Equal(t, "octocat/Hello-World", bundle.Repository.FullName)
	require.Equal(t, 1999, bundle.Repository.Stars)
	require.Equal(t, "MIT License", bundle.Repository.License)
	require.Equal(t, "master", bundle.Repository.DefaultBranch)
	require.Equal(t, "# Hello World\n\nFirst repo.\n", bundle.Readme)

	// src/index.js and LICENSE are skipped, doc files come back in traversal order.
	require.Equal(t, []string{"README.md", "docs/intro.md", "docs/api.md"}, docPaths(bundle.DocFiles))
	// Every root entry is recorded, doc file or not.
	require.Equal(t, []string{"README.md", "LICENSE", "package.json", "docs", "src"}, bundle.TopLevel)
	require.Equal(t, `{"name":"hello-world"}`, bundle.Manifests["package.json"])

	byPath := map[string]DocFile{}
	for _, df := range bundle.DocFiles {
		byPath[df.Path] = df
	}
	require.Equal(t, "README", byPath["README.md"].Title)
	require.Equal(t, DocTypeReadme, byPath["README.md"].Type)
	require.Equal(t, "Intro", byPath["docs/intro.md"].Title)
	require.Equal(t, DocTypeDocs, byPath["docs/intro.md"].Type)
	require.Equal(t, "# Intro\n", byPath["docs/intro.md"].Content)
}

func TestFetchHonorsFileCap(t *testing.T) {
	f := newTestFetcher(t, docTreeHandler(), config.FetchConfig{Mode: config.FetchModeAPI, MaxFiles: 1})

	bundle, err := f.Fetch(context.Background(), "octocat", "Hello-World")
	require.NoError(t, err)
	require.Len(t, bundle.DocFiles, 1)
}

func TestFetchHonorsDepthCap(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/o/r":
			fmt.Fprint(w, `{"name":"r","full_name":"o/r","owner":{"login":"o"},"default_branch":"main"}`)
		case "/repos/o/r/contents/":
			fmt.Fprint(w, `[{"type":"dir","name":"docs","path":"docs"}]`)
		case "/repos/o/r/contents/docs":
			fmt.Fprint(w, `[
				{"type":"file","name":"near.md","path":"docs/near.md","size":4},
				{"type":"dir","name":"deep","path":"docs/deep"}
			]`)
		case "/repos/o/r/contents/docs/near.md":
			fmt.Fprint(w, b64Content("near.md", "docs/near.md", "# N\n"))
		case "/repos/o/r/contents/docs/deep":
			fmt.Fprint(w, `[{"type":"file","name":"far.md","path":"docs/deep/far.md","size":4}]`)
		case "/repos/o/r/contents/docs/deep/far.md":
			fmt.Fprint(w, b64Content("far.md", "docs/deep/far.md", "# F\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		}
	})
	f := newTestFetcher(t, handler, config.FetchConfig{Mode: config.FetchModeAPI, MaxDepth: 1})

	bundle, err := f.Fetch(context.Background(), "o", "r")
	require.NoError(t, err)
	require.Equal(t, []string{"docs/near.md"}, docPaths(bundle.DocFiles))
}

func TestFetchRepositoryNotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})
	f := newTestFetcher(t, handler, config.FetchConfig{Mode: config.FetchModeAPI})

	_, err := f.Fetch(context.Background(), "nobody", "missing")
	require.Error(t, err)
	require.True(t, derrors.HasCategory(err, derrors.CategoryNotFound), "got %v", err)
}

func TestFetchSurvivesMissingReadme(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/o/r":
			fmt.Fprint(w, `{"name":"r","full_name":"o/r","owner":{"login":"o"},"default_branch":"main"}`)
		case "/repos/o/r/contents/":
			fmt.Fprint(w, `[{"type":"file","name":"notes.md","path":"notes.md","size":4}]`)
		case "/repos/o/r/contents/notes.md":
			fmt.Fprint(w, b64Content("notes.md", "notes.md", "# Hi\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		}
	})
	f := newTestFetcher(t, handler, config.FetchConfig{Mode: config.FetchModeAPI})

	bundle, err := f.Fetch(context.Background(), "o", "r")
	require.NoError(t, err)
	require.Empty(t, bundle.Readme)
	require.Equal(t, []string{"notes.md"}, docPaths(bundle.DocFiles))
}

func TestFetchSkipsUnreadableDirectory(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/o/r":
			fmt.Fprint(w, `{"name":"r","full_name":"o/r","owner":{"login":"o"},"default_branch":"main"}`)
		case "/repos/o/r/readme":
			fmt.Fprint(w, b64Content("README.md", "README.md", "# R\n"))
		case "/repos/o/r/contents/":
			fmt.Fprint(w, `[
				{"type":"file","name":"README.md","path":"README.md","size":4},
				{"type":"dir","name":"docs","path":"docs"}
			]`)
		case "/repos/o/r/contents/README.md":
			fmt.Fprint(w, b64Content("README.md", "README.md", "# R\n"))
		default:
			// docs listing fails; the fetch must still succeed.
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"message":"boom"}`)
		}
	})
	f := newTestFetcher(t, handler, config.FetchConfig{Mode: config.FetchModeAPI})

	bundle, err := f.Fetch(context.Background(), "o", "r")
	require.NoError(t, err)
	require.Equal(t, []string{"README.md"}, docPaths(bundle.DocFiles))
}

// stubCloner satisfies Cloner without touching git.
type stubCloner struct {
	snap  Snapshot
	err   error
	calls int
}

func (s *stubCloner) CloneDocs(_ context.Context, _, _ string) (*Snapshot, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	snap := s.snap
	return &snap, nil
}

func TestFetchCloneMode(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/o/r":
			fmt.Fprint(w, `{"name":"r","full_name":"o/r","owner":{"login":"o"},"default_branch":"main"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		}
	})
	cloner := &stubCloner{
		snap: Snapshot{
			Readme: "# From Clone\n",
			Files: []DocFile{
				{Path: "docs/intro.md", Name: "intro.md", Title: "Intro", Type: DocTypeDocs, Content: "# Intro\n"},
			},
			TopLevel: []string{"README.md", "docs", "package.json"},
		},
	}
	f := NewFetcher(newTestClient(t, handler), cloner, config.FetchConfig{Mode: config.FetchModeClone}, discardLogger())

	bundle, err := f.Fetch(context.Background(), "o", "r")
	require.NoError(t, err)
	require.Equal(t, 1, cloner.calls)
	require.Equal(t, []string{"docs/intro.md"}, docPaths(bundle.DocFiles))
	require.Equal(t, []string{"README.md", "docs", "package.json"}, bundle.TopLevel)
	// The API readme 404ed, so the clone's copy fills in.
	require.Equal(t, "# From Clone\n", bundle.Readme)
}

func TestFetchCloneFailureFallsBackToAPI(t *testing.T) {
	cloner := &stubCloner{err: errors.New("network down")}
	f := NewFetcher(newTestClient(t, docTreeHandler()), cloner, config.FetchConfig{Mode: config.FetchModeClone}, discardLogger())

	bundle, err := f.Fetch(context.Background(), "octocat", "Hello-World")
	require.NoError(t, err)
	require.Equal(t, 1, cloner.calls)
	require.Equal(t, []string{"README.md", "docs/intro.md", "docs/api.md"}, docPaths(bundle.DocFiles))
}

func TestFetchAutoModeStaysOnAPIWithoutCloner(t *testing.T) {
	f := newTestFetcher(t, docTreeHandler(), config.FetchConfig{Mode: config.FetchModeAuto})

	bundle, err := f.Fetch(context.Background(), "octocat", "Hello-World")
	require.NoError(t, err)
	require.Equal(t, []string{"README.md", "docs/intro.md", "docs/api.md"}, docPaths(bundle.DocFiles))
}

func TestFetchAutoModeSwitchesToCloneOnTruncatedTree(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/o/big":
			fmt.Fprint(w, `{"name":"big","full_name":"o/big","owner":{"login":"o"},"default_branch":"main"}`)
		case "/repos/o/big/git/trees/main":
			fmt.Fprint(w, `{"sha":"abc","truncated":true,"tree":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		}
	})
	cloner := &stubCloner{
		snap: Snapshot{Files: []DocFile{{Path: "docs/huge.md", Name: "huge.md", Title: "Huge", Type: DocTypeDocs}}},
	}
	f := NewFetcher(newTestClient(t, handler), cloner, config.FetchConfig{Mode: config.FetchModeAuto}, discardLogger())

	bundle, err := f.Fetch(context.Background(), "o", "big")
	require.NoError(t, err)
	require.Equal(t, 1, cloner.calls)
	require.Equal(t, []string{"docs/huge.md"}, docPaths(bundle.DocFiles))
}
