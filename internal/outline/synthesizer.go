package outline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"git.home.luguber.info/inful/repowiki/internal/analysis"
	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/llm"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
	"git.home.luguber.info/inful/repowiki/internal/metrics"
)

// StageName labels outline metrics and log lines.
const StageName = "outline"

// Outline sources reported by Synthesize.
const (
	SourceService = "service"
	SourceModel   = "model"
	SourceDefault = "default"
)

const outlineMaxTokens = 1024

const outlineSystem = `You design documentation outlines for software repositories.
Reply with JSON only, no prose, in this exact shape:
{"sections": [{"title": "...", "subsections": ["...", "..."]}]}
Use four to six sections with two to four subsections each, ordered for a reader new to the project.`

// Synthesizer produces the documentation structure for an analyzed
// repository. Producers run in order: external service, model, fixed
// default. Synthesize never fails; the default always applies.
type Synthesizer struct {
	service  *ServiceClient
	model    llm.Client
	recorder metrics.Recorder
	log      *slog.Logger
}

// NewSynthesizer wires producers from config. A nil model and an empty
// service URL are both valid; the default outline then serves every request.
func NewSynthesizer(model llm.Client, cfg config.OutlineConfig, log *slog.Logger) *Synthesizer {
	if log == nil {
		log = slog.Default()
	}
	s := &Synthesizer{model: model, recorder: metrics.NoopRecorder{}, log: log}
	if cfg.ServiceURL != "" {
		s.service = NewServiceClient(cfg.ServiceURL, cfg.TimeoutDuration())
	}
	return s
}

// WithRecorder injects a metrics recorder.
func (s *Synthesizer) WithRecorder(r metrics.Recorder) *Synthesizer {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Synthesize returns an outline for the repository and the source that
// produced it. A configured producer failing degrades the stage to the next
// source; the request still gets a structure.
func (s *Synthesizer) Synthesize(ctx context.Context, repo *analysis.Repository) (*Outline, string) {
	start := time.Now()
	o, source, degraded := s.synthesize(ctx, repo)
	s.recorder.ObserveStageDuration(StageName, time.Since(start))
	switch {
	case ctx.Err() != nil:
		s.recorder.IncStageResult(StageName, metrics.ResultCanceled)
	case degraded:
		s.recorder.IncStageResult(StageName, metrics.ResultWarning)
	default:
		s.recorder.IncStageResult(StageName, metrics.ResultSuccess)
	}
	s.log.Info("outline ready",
		logfields.Stage(StageName),
		logfields.Repository(repo.FullName),
		slog.String("source", source),
		logfields.Count(o.CountNodes()),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return o, source
}

func (s *Synthesizer) synthesize(ctx context.Context, repo *analysis.Repository) (*Outline, string, bool) {
	degraded := false
	if s.service != nil {
		o, err := s.service.Generate(ctx, repo)
		if err == nil {
			return o, SourceService, degraded
		}
		degraded = true
		s.log.Warn("outline service failed, trying model",
			logfields.Stage(StageName), logfields.Repository(repo.FullName), logfields.Error(err))
	}
	if s.model != nil {
		o, err := s.fromModel(ctx, repo)
		if err == nil {
			return o, SourceModel, degraded
		}
		degraded = true
		s.log.Warn("model outline failed, using default",
			logfields.Stage(StageName), logfields.Repository(repo.FullName), logfields.Error(err))
	}
	return Default(), SourceDefault, degraded
}

func (s *Synthesizer) fromModel(ctx context.Context, repo *analysis.Repository) (*Outline, error) {
	text, err := s.model.Complete(ctx, llm.Prompt{
		System:      outlineSystem,
		User:        outlineUser(repo),
		MaxTokens:   outlineMaxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := llm.ParseModelJSON(text, &raw); err != nil {
		return nil, err
	}
	return Parse(raw)
}

func outlineUser(repo *analysis.Repository) string {
	var sb strings.Builder
	sb.WriteString("Repository: " + repo.FullName + "\n")
	if repo.Description != "" {
		sb.WriteString("Description: " + repo.Description + "\n")
	}
	if repo.Domain != "" {
		sb.WriteString("Domain: " + repo.Domain + "\n")
	}
	if len(repo.Stack.Languages) > 0 {
		sb.WriteString("Languages: " + strings.Join(repo.Stack.Languages, ", ") + "\n")
	}
	if line := stackLine(repo.Stack); line != "" {
		sb.WriteString("Stack: " + line + "\n")
	}
	if repo.Excerpt != "" {
		sb.WriteString("\nREADME excerpt:\n" + repo.Excerpt + "\n")
	}
	sb.WriteString("\nDesign the documentation outline for this repository.")
	return sb.String()
}

func stackLine(st analysis.TechStack) string {
	parts := make([]string, 0, 8)
	parts = append(parts, st.Frontend...)
	parts = append(parts, st.Backend...)
	parts = append(parts, st.Database...)
	parts = append(parts, st.DevOps...)
	return strings.Join(parts, ", ")
}
