package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"NewsPoster/internal/config"
	"NewsPoster/internal/infrastructure/ollama"
	"NewsPoster/internal/infrastructure/page"
	"NewsPoster/internal/infrastructure/rss"
	"NewsPoster/internal/infrastructure/scheduler"
	"NewsPoster/internal/infrastructure/storage"
	"NewsPoster/internal/infrastructure/telegram"
	"NewsPoster/internal/logging"
	"NewsPoster/internal/ports"
	"NewsPoster/internal/usecase"
)

// Application wires configuration to the two workers and their triggers.
type Application struct {
	cfg    config.Config
	runner *usecase.Runner
	db     *sql.DB
	pg     *storage.PostgresStore
	logger *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	application := &Application{cfg: cfg, logger: baseLogger}

	var store ports.RecordStore
	switch cfg.Store.Backend {
	case "postgres":
		db, err := sql.Open("postgres", cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		application.db = db
		application.pg = storage.NewPostgresStore(db)
		store = application.pg
	case "", "file":
		store = storage.NewFileStore(cfg.Store.Path, baseLogger.With("component", "store"))
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Feed:        rss.NewSource(cfg.Feed.URL, nil, baseLogger.With("component", "feed")),
		Extractor:   page.NewExtractor(nil, cfg.Feed.Categories),
		Generator:   ollama.NewClient(cfg.Ollama, baseLogger.With("component", "ollama")),
		Store:       store,
		MaxArticles: cfg.Feed.MaxArticles,
		FetchDelay:  cfg.Feed.FetchDelay(),
		Instruction: cfg.Ollama.Instruction,
		Logger:      baseLogger.With("component", "ingest"),
	})

	deliverer := usecase.NewDeliverer(usecase.DelivererDeps{
		Store:          store,
		Messenger:      telegram.NewSender(cfg.Telegram),
		Attempts:       cfg.Telegram.Attempts,
		AttemptTimeout: cfg.Telegram.AttemptTimeout(),
		RetryDelay:     cfg.Telegram.RetryDelay(),
		CaptionLimit:   cfg.Telegram.CaptionLimit,
		Logger:         baseLogger.With("component", "deliver"),
	})

	application.runner = usecase.NewRunner(
		pipeline,
		deliverer,
		scheduler.NewInterval(cfg.Schedule.IngestInterval(), cfg.Schedule.IngestOffset()),
		scheduler.NewInterval(cfg.Schedule.DeliverInterval(), cfg.Schedule.DeliverOffset()),
		baseLogger.With("component", "runner"),
	)

	return application, nil
}

// Run starts both triggers and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if a.pg != nil {
		if err := a.pg.Init(ctx); err != nil {
			return err
		}
	}

	if err := a.runner.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("started",
		"store", a.cfg.Store.Backend,
		"ingest_interval", a.cfg.Schedule.IngestInterval(),
		"deliver_interval", a.cfg.Schedule.DeliverInterval())

	<-ctx.Done()

	stopCtx := context.Background()
	if err := a.runner.Stop(stopCtx); err != nil {
		a.logger.Error("stop runner", "error", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("close database", "error", err)
		}
	}
	return nil
}
