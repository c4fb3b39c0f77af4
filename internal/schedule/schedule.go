// Package schedule runs the service's background jobs: a janitor that
// prunes documentation past its retention window, and an optional periodic
// refresh that regenerates the oldest stored repositories.
package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/repowiki/internal/config"
	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
	"git.home.luguber.info/inful/repowiki/internal/logfields"
	"git.home.luguber.info/inful/repowiki/internal/store"
)

const janitorTimeout = time.Minute

// RefreshFunc regenerates documentation for one stored repository.
type RefreshFunc func(ctx context.Context, repo string) error

// Scheduler owns the gocron scheduler and the jobs registered on it.
type Scheduler struct {
	scheduler gocron.Scheduler
	store     *store.Store
	refresh   RefreshFunc
	cfg       config.ScheduleConfig
	retention time.Duration
	log       *slog.Logger
}

// New creates a scheduler over the given store. Retention bounds the
// janitor cutoff; zero or negative retention disables pruning.
func New(st *store.Store, cfg config.ScheduleConfig, retention time.Duration, log *slog.Logger) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryRuntime, "create scheduler").Build()
	}
	return &Scheduler{
		scheduler: sched,
		store:     st,
		cfg:       cfg,
		retention: retention,
		log:       log,
	}, nil
}

// WithRefresh sets the refresh callback. Without one, the refresh job is
// never scheduled.
func (s *Scheduler) WithRefresh(fn RefreshFunc) *Scheduler {
	s.refresh = fn
	return s
}

// Start registers the enabled jobs and begins running them. The context
// bounds every job run; canceling it stops in-flight work.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs := 0

	if s.store != nil && s.retention > 0 {
		_, err := s.scheduler.NewJob(
			gocron.DurationJob(s.cfg.JanitorIntervalDuration()),
			gocron.NewTask(s.runJanitor, ctx),
			gocron.WithName("store-janitor"),
		)
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryRuntime, "schedule janitor").Build()
		}
		jobs++
	}

	if interval := s.cfg.RefreshIntervalDuration(); interval > 0 && s.refresh != nil && s.store != nil {
		_, err := s.scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(s.runRefresh, ctx, interval),
			gocron.WithName("documentation-refresh"),
		)
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryRuntime, "schedule refresh").Build()
		}
		jobs++
	}

	s.scheduler.Start()
	s.log.Info("background jobs started", logfields.Count(jobs))
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return derrors.WrapError(err, derrors.CategoryRuntime, "stop scheduler").Build()
	}
	s.log.Info("background jobs stopped")
	return nil
}

func (s *Scheduler) runJanitor(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, janitorTimeout)
	defer cancel()

	cutoff := time.Now().Add(-s.retention)
	n, err := s.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error("janitor run failed", logfields.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("janitor pruned stale documentation", logfields.Count(n))
	}
}

// runRefresh regenerates repositories whose documentation is older than
// one refresh interval, oldest first, bounded by the configured limit.
func (s *Scheduler) runRefresh(ctx context.Context, interval time.Duration) {
	cutoff := time.Now().Add(-interval)
	names, err := s.store.RefreshCandidates(ctx, cutoff, s.cfg.RefreshLimit)
	if err != nil {
		s.log.Error("refresh candidate lookup failed", logfields.Error(err))
		return
	}
	for _, name := range names {
		if ctx.Err() != nil {
			return
		}
		s.log.Info("refreshing stored documentation", logfields.Repository(name))
		if err := s.refresh(ctx, name); err != nil {
			s.log.Warn("scheduled refresh failed",
				logfields.Repository(name),
				logfields.Error(err))
		}
	}
}
