package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ChuheLin/cs2-wang/internal/config"
	"github.com/ChuheLin/cs2-wang/internal/domain"
	"github.com/ChuheLin/cs2-wang/internal/infrastructure/blog"
	"github.com/ChuheLin/cs2-wang/internal/infrastructure/catalog"
	"github.com/ChuheLin/cs2-wang/internal/infrastructure/feed"
	"github.com/ChuheLin/cs2-wang/internal/infrastructure/llm"
	"github.com/ChuheLin/cs2-wang/internal/infrastructure/scheduler"
	"github.com/ChuheLin/cs2-wang/internal/infrastructure/speech"
	"github.com/ChuheLin/cs2-wang/internal/infrastructure/storage"
	"github.com/ChuheLin/cs2-wang/internal/infrastructure/telegram"
	"github.com/ChuheLin/cs2-wang/internal/logging"
	"github.com/ChuheLin/cs2-wang/internal/narrator"
	"github.com/ChuheLin/cs2-wang/internal/ports"
	"github.com/ChuheLin/cs2-wang/internal/scanner"
	"github.com/ChuheLin/cs2-wang/internal/usecase"
)

const shutdownTimeout = time.Minute

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *usecase.Registry
	db       *sql.DB
}

// New validates the configuration and builds every adapter and pipeline.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &Application{cfg: cfg, logger: baseLogger, registry: usecase.NewRegistry()}

	chat, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}

	deps := usecase.PipelineDeps{
		News: feed.NewRSSSource(
			&http.Client{Timeout: cfg.Feed.Timeout},
			cfg.Feed,
			baseLogger.With("component", "feed"),
		),
		Catalog:   catalog.NewClient(cfg.Catalog, baseLogger.With("component", "catalog")),
		Publisher: blog.NewPublisher(cfg.Publisher),
		Logger:    baseLogger,
	}
	if chat != nil {
		deps.Chat = chat
	}
	if cfg.Speech.Enabled() {
		deps.Narrator = narrator.New(speech.NewClient(cfg.Speech), cfg.Speech, cfg.Publisher.AudioPath(), baseLogger)
	}
	if notifier := telegram.NewNotifier(cfg.Notifications.Telegram); notifier.Configured() {
		deps.Notifier = notifier
	}
	if archive := app.openArchive(ctx); archive != nil {
		deps.Archive = archive
	}

	if err := app.registerPipelines(deps); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *Application) openArchive(ctx context.Context) ports.ReportArchive {
	if a.cfg.Database.DSN == "" {
		return nil
	}

	log := a.logger.With("component", "archive")
	db, err := storage.Open(ctx, a.cfg.Database.DSN)
	if err != nil {
		log.Warn("report archive disabled", "error", err)
		return nil
	}

	archive := storage.NewPostgresArchive(db)
	if err := archive.EnsureSchema(ctx); err != nil {
		log.Warn("report archive disabled", "error", err)
		_ = db.Close()
		return nil
	}

	a.db = db
	return archive
}

func (a *Application) registerPipelines(deps usecase.PipelineDeps) error {
	news, err := usecase.NewNewsPipeline(a.cfg.News, a.cfg.Feed.Window, deps)
	if err != nil {
		return err
	}
	market, err := usecase.NewMarketPipeline(a.cfg.Market, scanner.New(a.cfg.Scanner), deps)
	if err != nil {
		return err
	}
	report, err := usecase.NewReportPipeline(a.cfg.Report, deps)
	if err != nil {
		return err
	}

	a.registry.Register(news)
	a.registry.Register(market)
	a.registry.Register(report)
	return nil
}

// RunOnce executes the named pipeline immediately.
func (a *Application) RunOnce(ctx context.Context, name string) (*domain.Report, error) {
	pipeline, err := a.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	now := time.Now().In(a.cfg.Scheduler.Location())
	return pipeline.Run(ctx, now)
}

// Serve schedules every enabled pipeline and blocks until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, a.registry, a.logger)

	count, err := sched.Start(ctx)
	if err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	if count == 0 {
		a.logger.Warn("no pipeline is enabled; scheduler idle")
	}
	a.logger.Info("scheduler running",
		"pipelines", count,
		"timezone", a.cfg.Scheduler.Location().String(),
		"next_runs", driver.Next(),
	)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	a.logger.Info("scheduler stopped")
	return nil
}

// Close releases the database handle when the archive is enabled.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
