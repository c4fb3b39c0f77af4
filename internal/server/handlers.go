package server

import (
	"encoding/json"
	"net/http"
	"time"

	"git.home.luguber.info/inful/repowiki/internal/analysis"
	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
	"git.home.luguber.info/inful/repowiki/internal/generate"
	"git.home.luguber.info/inful/repowiki/internal/github"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
	"git.home.luguber.info/inful/repowiki/internal/nav"
	"git.home.luguber.info/inful/repowiki/internal/outline"
	"git.home.luguber.info/inful/repowiki/internal/store"
	"git.home.luguber.info/inful/repowiki/internal/version"
)

// generationFailedMessage is the fixed body of generation failures. Callers
// match on this string, so classification details stay in the logs.
const generationFailedMessage = "Failed to analyze repository. Please check the URL and try again."

// generateRequest is the POST /generate-documentation body.
type generateRequest struct {
	RepoURL string `json:"repoUrl"`
}

// generateResponse is the full result of one generation run.
type generateResponse struct {
	Repository             *analysis.Repository `json:"repository"`
	DocumentationStructure *outline.Outline     `json:"documentationStructure"`
	Pages                  []generate.Page      `json:"pages"`
	Navigation             []*nav.Item          `json:"navigation"`
}

// documentationResponse is the stored bundle served when no section is
// requested.
type documentationResponse struct {
	Repository             json.RawMessage `json:"repository"`
	DocumentationStructure any             `json:"documentationStructure"`
	Pages                  []generate.Page `json:"pages"`
	Navigation             []*nav.Item     `json:"navigation,omitempty"`
	GeneratedAt            time.Time       `json:"generated_at"`
}

// sectionResponse is a single stored section.
type sectionResponse struct {
	Content     string    `json:"content"`
	Section     string    `json:"section"`
	Repository  string    `json:"repository"`
	GeneratedAt time.Time `json:"generated_at"`
}

// repositoriesResponse is the repository index.
type repositoriesResponse struct {
	Repositories []store.RepoSummary `json:"repositories"`
	Count        int                 `json:"count"`
}

// errorResponse is the minimal error payload for contract-fixed failures.
type errorResponse struct {
	Error string `json:"error"`
}

// healthResponse is the health check payload.
type healthResponse struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	Uptime     float64   `json:"uptime"`
	ActiveJobs int       `json:"active_jobs,omitempty"`
}

// readyResponse is the readiness payload.
type readyResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// statusResponse is the service status summary.
type statusResponse struct {
	Status       string    `json:"status"`
	Version      string    `json:"version"`
	Uptime       float64   `json:"uptime"`
	StartTime    time.Time `json:"start_time"`
	ActiveJobs   int       `json:"active_jobs"`
	Repositories int       `json:"repositories"`
	Timestamp    time.Time `json:"timestamp"`
}

func (s *Server) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	err := derrors.ValidationError("invalid HTTP method").
		WithContext("method", r.Method).
		WithContext("allowed_method", method).
		Build()
	s.adapter.WriteErrorResponse(w, r, err)
	return false
}

// handleGenerate runs the full pipeline for the posted repository URL.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		verr := derrors.ValidationError("request body must be JSON with a repoUrl field").Build()
		s.adapter.WriteErrorResponse(w, r, verr)
		return
	}
	owner, repo, err := github.ParseRepoURL(req.RepoURL)
	if err != nil {
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}

	s.activeJobs.Add(1)
	defer s.activeJobs.Add(-1)

	res, err := s.pipeline.Generate(r.Context(), owner, repo)
	if err != nil {
		// The response body is part of the API contract; the classified
		// error only reaches the logs.
		s.log.Error("documentation generation failed",
			logfields.Repository(owner+"/"+repo),
			logfields.Error(err))
		_ = writeJSON(w, http.StatusInternalServerError, errorResponse{Error: generationFailedMessage})
		return
	}

	resp := generateResponse{
		Repository:             res.Repository,
		DocumentationStructure: res.Outline,
		Pages:                  res.Pages,
		Navigation:             res.Navigation,
	}
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		s.log.Error("failed writing generation response", logfields.Error(err))
	}
}

// handleDocumentation serves stored documentation: the full bundle when no
// section is requested, one section otherwise.
func (s *Server) handleDocumentation(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	repo := q.Get("repo")
	if repo == "" {
		err := derrors.ValidationError("repo query parameter is required").Build()
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}

	section := q.Get("section")
	if section == "" {
		s.serveDocumentationBundle(w, r, repo)
		return
	}

	page, err := s.store.Section(r.Context(), repo, section)
	if err != nil {
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}

	switch q.Get("type") {
	case "", "json":
		resp := sectionResponse{
			Content:     page.Content,
			Section:     section,
			Repository:  repo,
			GeneratedAt: page.GeneratedAt,
		}
		if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
			s.log.Error("failed writing section response", logfields.Error(err))
		}
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(page.Content)); err != nil {
			s.log.Error("failed writing section markdown", logfields.Error(err))
		}
	default:
		err := derrors.ValidationError("unsupported documentation type").
			WithContext("type", q.Get("type")).
			WithContext("allowed_types", "json, markdown").
			Build()
		s.adapter.WriteErrorResponse(w, r, err)
	}
}

// serveDocumentationBundle answers a sectionless documentation query with
// the stored structure, pages, and a navigation tree rebuilt from them.
func (s *Server) serveDocumentationBundle(w http.ResponseWriter, r *http.Request, repo string) {
	doc, err := s.store.Documentation(r.Context(), repo)
	if err != nil {
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}

	// The stored structure is model output and may carry parent keys from
	// a traversal; scrub before echoing.
	var structure any
	if len(doc.Structure) > 0 {
		if uerr := json.Unmarshal(doc.Structure, &structure); uerr != nil {
			structure = nil
		}
	}

	resp := documentationResponse{
		Repository:             doc.Repository,
		DocumentationStructure: nav.StripBackrefs(structure),
		Pages:                  doc.Pages,
		GeneratedAt:            doc.GeneratedAt,
	}
	if o, perr := outline.Parse(doc.Structure); perr == nil {
		resp.Navigation = nav.Build(o, doc.Pages)
	}
	if len(resp.Repository) == 0 {
		resp.Repository = json.RawMessage("null")
	}

	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		s.log.Error("failed writing documentation response", logfields.Error(err))
	}
}

// handleRepositories lists previously generated repositories with their
// available sections. type filters on the primary repository language.
func (s *Server) handleRepositories(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	repos, err := s.store.Repositories(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}

	resp := repositoriesResponse{Repositories: repos, Count: len(repos)}
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		s.log.Error("failed writing repositories response", logfields.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	health := &healthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC(),
		Version:    version.Version,
		Uptime:     time.Since(s.startTime).Seconds(),
		ActiveJobs: int(s.activeJobs.Load()),
	}
	if err := writeJSONPretty(w, r, http.StatusOK, health); err != nil {
		internalErr := derrors.WrapError(err, derrors.CategoryInternal, "failed to write health response").Build()
		s.adapter.WriteErrorResponse(w, r, internalErr)
	}
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	if s.pipeline == nil {
		err := derrors.NewError(derrors.CategoryRuntime, "generation pipeline not configured").Build()
		s.adapter.WriteErrorResponse(w, r, err)
		return
	}
	ready := &readyResponse{Status: "ready", Timestamp: time.Now().UTC()}
	if err := writeJSONPretty(w, r, http.StatusOK, ready); err != nil {
		internalErr := derrors.WrapError(err, derrors.CategoryInternal, "failed to write ready response").Build()
		s.adapter.WriteErrorResponse(w, r, internalErr)
	}
}

// handleStatus reports a service summary for operators.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodGet) {
		return
	}

	count, err := s.store.Count(r.Context())
	if err != nil {
		s.log.Warn("repository count unavailable", logfields.Error(err))
		count = 0
	}

	status := &statusResponse{
		Status:       "running",
		Version:      version.Version,
		Uptime:       time.Since(s.startTime).Seconds(),
		StartTime:    s.startTime.UTC(),
		ActiveJobs:   int(s.activeJobs.Load()),
		Repositories: count,
		Timestamp:    time.Now().UTC(),
	}
	if err := writeJSONPretty(w, r, http.StatusOK, status); err != nil {
		internalErr := derrors.WrapError(err, derrors.CategoryInternal, "failed to write status response").Build()
		s.adapter.WriteErrorResponse(w, r, internalErr)
	}
}
