package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"newsdiff/internal/config"
	"newsdiff/internal/diff"
	"newsdiff/internal/infrastructure/bluesky"
	"newsdiff/internal/infrastructure/feed"
	"newsdiff/internal/infrastructure/render"
	"newsdiff/internal/infrastructure/scheduler"
	"newsdiff/internal/infrastructure/storage"
	"newsdiff/internal/infrastructure/twitter"
	"newsdiff/internal/logging"
	"newsdiff/internal/platform"
	"newsdiff/internal/ports"
	"newsdiff/internal/usecase"
)

// Application wires config to adapters, the pipeline, and lifecycle.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sql.DB
	pipeline *usecase.Pipeline
	driver   ports.Scheduler
}

// New connects storage, runs migrations, and assembles the pipeline.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := storage.RunMigrations(db, logging.Component(baseLogger, "storage")); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	store := storage.NewStore(db)

	source := feed.NewClient(cfg.Feed, nil, logging.Component(baseLogger, "feed"))
	engine := render.NewClient(cfg.Renderer, nil)
	renderer := diff.NewRenderer(engine, logging.Component(baseLogger, "renderer"))

	platforms := buildPlatforms(cfg, baseLogger)
	if len(platforms) == 0 {
		baseLogger.Warn("no platforms configured, changes will be tracked but not posted")
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Store:      store,
		Renderer:   renderer,
		Dispatcher: usecase.NewDispatcher(store, platforms, logging.Component(baseLogger, "dispatcher")),
		Logger:     logging.Component(baseLogger, "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		db:       db,
		pipeline: pipeline,
		driver:   scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location()),
	}, nil
}

func buildPlatforms(cfg config.Config, logger *slog.Logger) []ports.Platform {
	registry := platform.NewRegistry()
	if cfg.Platforms.Bluesky.Configured() {
		registry.Register(bluesky.NewClient(cfg.Platforms.Bluesky, nil, logging.Component(logger, "bluesky")))
	}
	if cfg.Platforms.Twitter.Configured() {
		registry.Register(twitter.NewClient(cfg.Platforms.Twitter, logging.Component(logger, "twitter")))
	}

	platforms := registry.Ordered(cfg.Platforms.Order)
	if !cfg.Testing {
		return platforms
	}

	logger.Info("testing mode enabled, platform posts are dry-run no-ops")
	wrapped := make([]ports.Platform, 0, len(platforms))
	for _, p := range platforms {
		wrapped = append(wrapped, platform.NewDryRun(p, logging.Component(logger, "dryrun")))
	}
	return wrapped
}

// RunOnce performs a single polling run.
func (a *Application) RunOnce(ctx context.Context) error {
	return a.pipeline.Run(ctx)
}

// RunScheduled starts the in-process cron schedule and blocks until the
// context is cancelled.
func (a *Application) RunScheduled(ctx context.Context) error {
	job := func(trigger time.Time) {
		if err := a.pipeline.Run(ctx); err != nil {
			a.logger.Error("scheduled run failed", "trigger", trigger, "error", err)
		}
	}
	if err := a.driver.Start(ctx, job); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.driver.Stop(stopCtx)
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
