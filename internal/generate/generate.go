package generate

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/repowiki/internal/analysis"
	"git.home.luguber.info/inful/repowiki/internal/config"
	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
	"git.home.luguber.info/inful/repowiki/internal/llm"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
	"git.home.luguber.info/inful/repowiki/internal/markdown"
	"git.home.luguber.info/inful/repowiki/internal/metrics"
	"git.home.luguber.info/inful/repowiki/internal/outline"
	"git.home.luguber.info/inful/repowiki/internal/retry"
)

// StageName labels generation metrics and log lines.
const StageName = "generate"

// generateTemperature stays low; section content is factual, not creative.
const generateTemperature = 0.2

// Generator produces one page per outline node through the model client.
type Generator struct {
	client   llm.Client
	recorder metrics.Recorder
	log      *slog.Logger
	pacing   time.Duration
	cooldown retry.Policy
}

// New wires a generator from config. The cooldown policy permits a single
// fixed-delay retry, applied only to throttled calls.
func New(client llm.Client, cfg config.GenerationConfig, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		client:   client,
		recorder: metrics.NoopRecorder{},
		log:      log,
		pacing:   cfg.PacingDelayDuration(),
		cooldown: retry.CooldownPolicy(cfg.RateLimitCooldownDuration()),
	}
}

// WithRecorder injects a metrics recorder.
func (g *Generator) WithRecorder(r metrics.Recorder) *Generator {
	if r != nil {
		g.recorder = r
	}
	return g
}

// Run generates pages for every outline node depth-first, a node before its
// children. A failed node degrades to a placeholder page; the only error
// Run returns is an ended context, and pages finished up to that point are
// returned alongside it.
func (g *Generator) Run(ctx context.Context, repo *analysis.Repository, o *outline.Outline) ([]Page, error) {
	start := time.Now()
	var entries []outline.Entry
	o.Visit(func(e outline.Entry) { entries = append(entries, e) })

	pages := make([]Page, 0, len(entries))
	placeholders := 0
	var runErr error
	for i, e := range entries {
		if i > 0 {
			runErr = retry.Wait(ctx, g.pacing)
		} else {
			runErr = ctx.Err()
		}
		if runErr != nil {
			break
		}

		content, err := g.complete(ctx, repo, e)
		if err != nil {
			if runErr = ctx.Err(); runErr != nil {
				break
			}
			g.log.Warn("section generation failed, substituting placeholder",
				logfields.Stage(StageName),
				logfields.Section(e.Section),
				logfields.Page(e.Title),
				logfields.Error(err))
			g.recorder.IncPlaceholderPage()
			placeholders++
			pages = append(pages, placeholderPage(e))
			continue
		}
		pages = append(pages, Page{
			Title:       e.Title,
			Section:     e.Section,
			Subsection:  e.Subsection,
			Breadcrumb:  e.Breadcrumb,
			Path:        e.Path,
			Content:     markdown.Normalize(content, e.Title),
			GeneratedAt: time.Now().UTC(),
		})
	}

	g.recorder.ObserveStageDuration(StageName, time.Since(start))
	switch {
	case runErr != nil:
		g.recorder.IncStageResult(StageName, metrics.ResultCanceled)
	case placeholders > 0:
		g.recorder.IncStageResult(StageName, metrics.ResultWarning)
	default:
		g.recorder.IncStageResult(StageName, metrics.ResultSuccess)
	}
	g.log.Info("content generation finished",
		logfields.Stage(StageName),
		logfields.Repository(repo.FullName),
		logfields.Count(len(pages)),
		slog.Int("placeholders", placeholders),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))

	if runErr != nil {
		return pages, derrors.WrapError(runErr, derrors.CategoryGeneration, "generation interrupted").
			WithContext("pages_done", len(pages)).
			WithContext("pages_total", len(entries)).
			Build()
	}
	return pages, nil
}

// complete runs the model call for one node. A throttled call waits out the
// cooldown and retries exactly once; every other failure is final.
func (g *Generator) complete(ctx context.Context, repo *analysis.Repository, e outline.Entry) (string, error) {
	if g.client == nil {
		return "", derrors.NewError(derrors.CategoryLLM, "no model client configured").Build()
	}
	prompt := llm.Prompt{
		System:      generateSystem,
		User:        generateUser(repo, e, hintFor(e.Title, repo)),
		Temperature: generateTemperature,
	}
	out, err := g.completeOnce(ctx, prompt)
	if err == nil {
		return out, nil
	}
	if !llm.IsRateLimited(err) {
		return "", err
	}
	g.recorder.IncRateLimitHit("llm")
	g.log.Warn("model throttled, retrying once after cooldown",
		logfields.Stage(StageName),
		logfields.Page(e.Title),
		logfields.RetryCount(1),
		logfields.Error(err))
	if werr := g.cooldown.Sleep(ctx, 1); werr != nil {
		return "", werr
	}
	g.recorder.IncLLMRetry(g.client.ModelName())
	return g.completeOnce(ctx, prompt)
}

func (g *Generator) completeOnce(ctx context.Context, prompt llm.Prompt) (string, error) {
	start := time.Now()
	out, err := g.client.Complete(ctx, prompt)
	g.recorder.ObserveLLMRequest(g.client.ModelName(), time.Since(start), err == nil)
	return out, err
}
