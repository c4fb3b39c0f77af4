package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/repowiki/internal/analysis"
	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/events"
	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
	"git.home.luguber.info/inful/repowiki/internal/generate"
	"git.home.luguber.info/inful/repowiki/internal/github"
	"git.home.luguber.info/inful/repowiki/internal/llm"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
	"git.home.luguber.info/inful/repowiki/internal/metrics"
	"git.home.luguber.info/inful/repowiki/internal/nav"
	"git.home.luguber.info/inful/repowiki/internal/outline"
	"git.home.luguber.info/inful/repowiki/internal/store"
)

// Pipeline runs the four stages end to end for one repository: fetch,
// outline synthesis, section generation, navigation assembly. Stage
// degradation stays inside the stages; the pipeline only fails when the
// fetch fails or the context ends.
type Pipeline struct {
	fetcher     *github.Fetcher
	model       llm.Client
	synthesizer *outline.Synthesizer
	generator   *generate.Generator
	store       *store.Store
	events      *events.Publisher
	recorder    metrics.Recorder
	log         *slog.Logger
	timeout     time.Duration
}

// Result is everything one generation run produced.
type Result struct {
	JobID      string
	Repository *analysis.Repository
	Outline    *outline.Outline
	Source     string
	Pages      []generate.Page
	Navigation []*nav.Item
	Duration   time.Duration
}

// NewPipeline wires the stages. Store and events may be nil; the model may
// be nil when only degraded output is wanted (summaries skipped, outline
// and sections fall back).
func NewPipeline(
	fetcher *github.Fetcher,
	model llm.Client,
	synthesizer *outline.Synthesizer,
	generator *generate.Generator,
	st *store.Store,
	pub *events.Publisher,
	cfg config.GenerationConfig,
	log *slog.Logger,
) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		fetcher:     fetcher,
		model:       model,
		synthesizer: synthesizer,
		generator:   generator,
		store:       st,
		events:      pub,
		recorder:    metrics.NoopRecorder{},
		log:         log,
		timeout:     cfg.PipelineTimeoutDuration(),
	}
}

// WithRecorder sets the metrics recorder used for terminal outcomes.
func (p *Pipeline) WithRecorder(r metrics.Recorder) *Pipeline {
	if r != nil {
		p.recorder = r
	}
	return p
}

// Generate runs the pipeline for owner/repo and persists the result.
func (p *Pipeline) Generate(ctx context.Context, owner, repo string) (*Result, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	jobID := uuid.NewString()
	log := p.log.With(logfields.JobID(jobID), logfields.Repository(owner+"/"+repo))
	start := time.Now()
	log.Info("documentation generation started")

	res, err := p.run(ctx, owner, repo, jobID, log)
	d := time.Since(start)
	p.recorder.ObserveGenerationDuration(d)

	switch {
	case err != nil && ctx.Err() != nil:
		p.recorder.IncGenerationOutcome(metrics.OutcomeCanceled)
		log.Warn("documentation generation canceled", logfields.Error(err))
		return nil, err
	case err != nil:
		p.recorder.IncGenerationOutcome(metrics.OutcomeFailed)
		log.Error("documentation generation failed", logfields.Error(err))
		return nil, err
	}

	res.Duration = d
	p.persist(ctx, res, log)

	placeholders := generate.CountPlaceholders(res.Pages)
	if placeholders > 0 {
		p.recorder.IncGenerationOutcome(metrics.OutcomeDegraded)
	} else {
		p.recorder.IncGenerationOutcome(metrics.OutcomeSuccess)
	}
	log.Info("documentation generation finished",
		logfields.Count(len(res.Pages)),
		slog.Int("placeholders", placeholders),
		slog.String("outline_source", res.Source),
		logfields.DurationMS(float64(d.Milliseconds())))
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, owner, repo, jobID string, log *slog.Logger) (*Result, error) {
	bundle, err := p.fetcher.Fetch(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	r := analysis.Analyze(bundle)
	if p.model != nil {
		summary, err := analysis.Summarize(ctx, p.model, r)
		if err != nil {
			log.Warn("repository summary skipped", logfields.Error(err))
		} else {
			r.Summary = summary
		}
	}

	o, source := p.synthesizer.Synthesize(ctx, r)

	pages, err := p.generator.Run(ctx, r, o)
	if err != nil {
		return nil, err
	}

	return &Result{
		JobID:      jobID,
		Repository: r,
		Outline:    o,
		Source:     source,
		Pages:      pages,
		Navigation: nav.Build(o, pages),
	}, nil
}

// persist stores the result and announces it. Neither is allowed to fail
// the request; the response is already complete in memory.
func (p *Pipeline) persist(ctx context.Context, res *Result, log *slog.Logger) {
	generatedAt := time.Now().UTC()

	if p.store != nil {
		structure, err := json.Marshal(res.Outline)
		if err != nil {
			log.Warn("structure not stored", logfields.Error(err))
			structure = nil
		}
		err = p.store.SaveGeneration(ctx, store.Record{
			Repository:  res.Repository,
			Structure:   structure,
			Pages:       res.Pages,
			GeneratedAt: generatedAt,
		})
		if err != nil {
			log.Warn("generation not stored", logfields.Error(err))
		}
	}

	err := p.events.DocumentationGenerated(ctx, events.Generated{
		JobID:        res.JobID,
		Repository:   res.Repository.FullName,
		Pages:        len(res.Pages),
		Placeholders: generate.CountPlaceholders(res.Pages),
		DurationMS:   float64(res.Duration.Milliseconds()),
		GeneratedAt:  generatedAt,
	})
	if err != nil {
		log.Warn("generated event not published", logfields.Error(err))
	}
}

// Refresh regenerates documentation for a stored repository full name. It
// satisfies schedule.RefreshFunc.
func (p *Pipeline) Refresh(ctx context.Context, fullName string) error {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return derrors.ValidationError("repository name must be owner/repo").
			WithContext("repository", fullName).
			Build()
	}
	_, err := p.Generate(ctx, owner, name)
	return err
}
