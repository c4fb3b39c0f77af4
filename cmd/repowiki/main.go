package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/repowiki/internal/analysis"
	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/events"
	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
	"git.home.luguber.info/inful/repowiki/internal/generate"
	"git.home.luguber.info/inful/repowiki/internal/gitfetch"
	"git.home.luguber.info/inful/repowiki/internal/github"
	"git.home.luguber.info/inful/repowiki/internal/llm"
	"git.home.luguber.info/inful/repowiki/internal/metrics"
	"git.home.luguber.info/inful/repowiki/internal/nav"
	"git.home.luguber.info/inful/repowiki/internal/outline"
	"git.home.luguber.info/inful/repowiki/internal/schedule"
	"git.home.luguber.info/inful/repowiki/internal/server"
	"git.home.luguber.info/inful/repowiki/internal/store"
	"git.home.luguber.info/inful/repowiki/internal/version"
	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct {
		Port int `short:"p" help:"Override the configured listen port"`
	} `cmd:"" help:"Start the documentation service"`

	Generate struct {
		URL string `arg:"" name:"url" help:"GitHub repository URL (https://github.com/{owner}/{repo})"`
	} `cmd:"" help:"Generate documentation for one repository and print it as JSON"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// Set up logging. The level variable is shared with the config watcher
	// so reloads can adjust verbosity without a restart.
	logLevel := new(slog.LevelVar)
	if CLI.Verbose {
		logLevel.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch ctx.Command() {
	case "serve":
		if err := runServe(logLevel); err != nil {
			exitOnError(err)
		}
	case "generate <url>":
		if err := runGenerate(CLI.Generate.URL); err != nil {
			exitOnError(err)
		}
	case "init":
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			exitOnError(err)
		}
	case "version":
		fmt.Printf("repowiki %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	}
}

// exitOnError routes a command failure through the CLI error adapter: it
// logs the error, prints the user-facing form to stderr, and exits with
// the code mapped from the error's category. The adapter is built at
// failure time so it logs through whatever logger the command configured.
func exitOnError(err error) {
	derrors.NewCLIErrorAdapter(CLI.Verbose, slog.Default()).HandleError(err)
}

func runServe(logLevel *slog.LevelVar) error {
	cfg, err := config.LoadOrDefault(CLI.Config)
	if err != nil {
		return err
	}
	if CLI.Serve.Port != 0 {
		cfg.Server.Port = CLI.Serve.Port
	}
	applyLogging(cfg.Logging, logLevel, os.Stdout)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := slog.Default()

	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	pipeline, st, pub, err := buildPipeline(ctx, cfg, recorder, log)
	if err != nil {
		return err
	}
	defer st.Close()
	defer pub.Close()

	sched, err := schedule.New(st, cfg.Schedule, cfg.Store.RetentionDuration(), log)
	if err != nil {
		return err
	}
	sched.WithRefresh(pipeline.Refresh)

	srv := server.New(cfg.Server, pipeline, st, log).
		WithRecorder(recorder).
		WithMetricsHandler(metrics.HTTPHandler(registry))

	if err := srv.Start(ctx); err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
		defer stopCancel()
		if stopErr := srv.Stop(stopCtx); stopErr != nil {
			log.Warn("Server stop failed", "error", stopErr)
		}
		return err
	}

	watcher := startConfigWatcher(ctx, logLevel, log)

	log.Info("Service started, waiting for shutdown signal...",
		slog.String("addr", cfg.Server.Addr()),
		slog.String("version", version.Version))

	<-ctx.Done()
	log.Info("Shutdown signal received, stopping service...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer stopCancel()

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			log.Warn("Config watcher stop failed", "error", err)
		}
	}
	if err := sched.Stop(); err != nil {
		log.Warn("Scheduler stop failed", "error", err)
	}
	if err := srv.Stop(stopCtx); err != nil {
		return err
	}

	log.Info("Service stopped successfully")
	return nil
}

func runGenerate(rawURL string) error {
	// stdout carries the JSON result, so route logs to stderr.
	logLevel := new(slog.LevelVar)
	if CLI.Verbose {
		logLevel.Set(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	cfg, err := config.LoadOrDefault(CLI.Config)
	if err != nil {
		return err
	}
	applyLogging(cfg.Logging, logLevel, os.Stderr)
	log := slog.Default()

	owner, repo, err := github.ParseRepoURL(rawURL)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pipeline, st, pub, err := buildPipeline(ctx, cfg, metrics.NoopRecorder{}, log)
	if err != nil {
		return err
	}
	defer st.Close()
	defer pub.Close()

	res, err := pipeline.Generate(ctx, owner, repo)
	if err != nil {
		return err
	}

	out := struct {
		Repository             *analysis.Repository `json:"repository"`
		DocumentationStructure *outline.Outline     `json:"documentationStructure"`
		Pages                  []generate.Page      `json:"pages"`
		Navigation             []*nav.Item          `json:"navigation"`
	}{res.Repository, res.Outline, res.Pages, res.Navigation}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runInit(configPath string, force bool) error {
	slog.Info("Initializing configuration", "path", configPath, "force", force)
	return config.Init(configPath, force)
}

// buildPipeline assembles the generation stages from configuration. The
// returned store and publisher are owned by the caller.
func buildPipeline(ctx context.Context, cfg *config.Config, recorder metrics.Recorder, log *slog.Logger) (*server.Pipeline, *store.Store, *events.Publisher, error) {
	ghClient, err := github.NewClient(cfg.GitHub)
	if err != nil {
		return nil, nil, nil, err
	}
	cloner := gitfetch.NewCloner(cfg.Fetch, cfg.GitHub, log)
	fetcher := github.NewFetcher(ghClient.WithLogger(log), cloner, cfg.Fetch, log).WithRecorder(recorder)

	model := buildModel(cfg.LLM, log)

	st, err := store.Open(cfg.Store.Path, log)
	if err != nil {
		return nil, nil, nil, err
	}

	pub, err := events.NewPublisher(ctx, cfg.Events, log)
	if err != nil {
		if closeErr := st.Close(); closeErr != nil {
			log.Warn("Store close failed", "error", closeErr)
		}
		return nil, nil, nil, err
	}

	pipeline := server.NewPipeline(
		fetcher,
		model,
		outline.NewSynthesizer(model, cfg.Outline, log),
		generate.New(model, cfg.Generation, log),
		st,
		pub,
		cfg.Generation,
		log,
	).WithRecorder(recorder)

	return pipeline, st, pub, nil
}

// buildModel returns nil when no usable model is configured; the pipeline
// then degrades to the default outline and placeholder pages.
func buildModel(cfg config.LLMConfig, log *slog.Logger) llm.Client {
	model, err := llm.New(cfg)
	if err != nil {
		log.Warn("Model disabled, sections will use placeholder content", "error", err)
		return nil
	}
	return model
}

// applyLogging replaces the default logger with one configured from the
// loaded settings. --verbose wins over the configured level.
func applyLogging(cfg config.LoggingConfig, logLevel *slog.LevelVar, w *os.File) {
	if CLI.Verbose {
		logLevel.Set(slog.LevelDebug)
	} else {
		logLevel.Set(config.NormalizeLogLevel(cfg.Level).SlogLevel())
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	if config.NormalizeLogFormat(cfg.Format) == config.LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// startConfigWatcher begins watching the configuration file. Only the log
// level applies without a restart; other changes take effect on the next
// start. Returns nil when watching cannot be established.
func startConfigWatcher(ctx context.Context, logLevel *slog.LevelVar, log *slog.Logger) *config.Watcher {
	watcher, err := config.NewWatcher(CLI.Config, func(next *config.Config) error {
		if !CLI.Verbose {
			logLevel.Set(config.NormalizeLogLevel(next.Logging.Level).SlogLevel())
		}
		return nil
	})
	if err != nil {
		log.Warn("Config watching disabled", "error", err)
		return nil
	}
	if err := watcher.Start(ctx); err != nil {
		log.Warn("Config watching disabled", "error", err)
		return nil
	}
	return watcher
}
