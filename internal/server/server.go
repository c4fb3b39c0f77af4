// Package server exposes the documentation generation pipeline over HTTP:
// generation, stored-documentation lookup, the repository index, and the
// usual health and status endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/repowiki/internal/config"
	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
	"git.home.luguber.info/inful/repowiki/internal/metrics"
	"git.home.luguber.info/inful/repowiki/internal/store"
)

// Server owns the HTTP listener and routes requests into the pipeline and
// the store. The store may be nil; lookups then answer not-found and the
// repository index is empty.
type Server struct {
	cfg      config.ServerConfig
	pipeline *Pipeline
	store    *store.Store
	recorder metrics.Recorder
	adapter  *derrors.HTTPErrorAdapter
	log      *slog.Logger

	metricsHandler http.Handler
	httpSrv        *http.Server
	startTime      time.Time
	activeJobs     atomic.Int64
}

// New wires a server around the pipeline and store.
func New(cfg config.ServerConfig, pipeline *Pipeline, st *store.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		pipeline:  pipeline,
		store:     st,
		recorder:  metrics.NoopRecorder{},
		adapter:   derrors.NewHTTPErrorAdapter(log),
		log:       log,
		startTime: time.Now(),
	}
}

// WithRecorder injects a metrics recorder.
func (s *Server) WithRecorder(r metrics.Recorder) *Server {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithMetricsHandler mounts h at /metrics. Without one the route is absent.
func (s *Server) WithMetricsHandler(h http.Handler) *Server {
	s.metricsHandler = h
	return s
}

// Routes assembles the handler tree with logging and panic recovery applied
// around every route.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/generate-documentation", s.handleGenerate)
	mux.HandleFunc("/documentation", s.handleDocumentation)
	mux.HandleFunc("/repositories", s.handleRepositories)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/status", s.handleStatus)
	if s.metricsHandler != nil {
		mux.Handle("/metrics", s.metricsHandler)
	}
	return s.logging(s.recovery(mux))
}

// Start binds the listener and begins serving. Binding happens up front so
// an occupied port fails the call instead of surfacing later from the serve
// goroutine.
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.Addr()
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryRuntime, "failed to bind HTTP listener").
			WithContext("addr", addr).
			Build()
	}

	s.startTime = time.Now()
	s.httpSrv = &http.Server{
		Handler:      s.Routes(),
		ReadTimeout:  s.cfg.ReadTimeoutDuration(),
		WriteTimeout: s.cfg.WriteTimeoutDuration(),
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", logfields.Error(err))
		}
	}()

	s.log.Info("HTTP server started", slog.String("addr", addr))
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return derrors.WrapError(err, derrors.CategoryRuntime, "HTTP server shutdown failed").Build()
	}
	s.log.Info("HTTP server stopped")
	return nil
}

// logging wraps next with request logging and the HTTP request metrics.
func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start)
		s.recorder.IncHTTPRequest(r.Method, r.URL.Path, wrapped.status)
		s.recorder.ObserveHTTPDuration(r.URL.Path, duration)
		s.log.Info("HTTP request",
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Status(wrapped.status),
			slog.Duration("duration", duration),
			logfields.UserAgent(r.UserAgent()),
			logfields.RemoteAddr(r.RemoteAddr))
	})
}

// recovery turns handler panics into structured 500 responses.
func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("HTTP handler panic",
					"error", rec,
					logfields.Path(r.URL.Path),
					logfields.Method(r.Method),
					logfields.RemoteAddr(r.RemoteAddr))

				err := derrors.NewError(derrors.CategoryInternal, "internal server error").
					WithContext("path", r.URL.Path).
					WithContext("method", r.Method).
					Build()
				s.adapter.WriteErrorResponse(w, r, err)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusWriter captures status codes for logging and metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}
