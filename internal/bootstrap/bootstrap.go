package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/paperbox/internal/config"
	"github.com/kirillkom/paperbox/internal/core/ports"
	"github.com/kirillkom/paperbox/internal/core/usecase"
	rediscache "github.com/kirillkom/paperbox/internal/infrastructure/cache/redis"
	"github.com/kirillkom/paperbox/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/paperbox/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/paperbox/internal/infrastructure/queue/nats"
	"github.com/kirillkom/paperbox/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/paperbox/internal/infrastructure/resilience"
)

// Telemetry receives derivation outcomes and dependency resilience events.
// Each process passes the instance registered on its own metrics registry.
type Telemetry interface {
	ports.DerivationObserver
	resilience.Observer
}

type Options struct {
	Logger    *slog.Logger
	Telemetry Telemetry
	// OnDeliveryLag is set by consumers of the ingest queue.
	OnDeliveryLag func(time.Duration)
	// Processing observes the worker's classification pipeline. Optional.
	Processing ports.ProcessingObserver
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Documents ports.DocumentRepository
	Queue     ports.MessageQueue
	FeedBus   *nats.FeedBus
	Exporter  ports.FeedExporter

	IngestUC    ports.DocumentIngestor
	ProcessUC   ports.DocumentProcessor
	DeriveUC    ports.NotificationDeriver
	FeedUC      ports.NotificationFeed
	SessionUC   ports.SessionStarter
	DocumentsUC ports.DocumentCatalog

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger, telemetry := opts.Logger, opts.Telemetry
	if logger == nil {
		logger = slog.Default()
	}
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	execOpts := []resilience.Option{resilience.WithLogger(logger)}
	var observer ports.DerivationObserver
	if telemetry != nil {
		execOpts = append(execOpts, resilience.WithObserver(telemetry))
		observer = telemetry
	}
	policy := cfg.ResiliencePolicy()

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	documents := postgres.NewDocumentRepository(db)
	notifications := postgres.NewNotificationRepository(db)
	subscriptions := postgres.NewSubscriptionRepository(db)

	natsOptions := nats.Options{
		Name:               "paperbox",
		ResilienceExecutor: resilience.NewExecutor(policy, execOpts...),
		Logger:             logger,
		OnDeliveryLag:      opts.OnDeliveryLag,
	}
	conn, err := nats.Connect(cfg.NATSURL, natsOptions)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	queue := nats.NewQueue(conn, cfg.NATSIngestSubject, natsOptions)
	feedBus := nats.NewFeedBus(conn, cfg.NATSFeedSubjectPrefix, natsOptions)

	var index ports.RecentNotificationIndex
	var redisIndex *rediscache.RecentNotificationIndex
	if cfg.RedisAddr != "" {
		redisIndex = rediscache.NewRecentNotificationIndex(
			rediscache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB),
			cfg.RedisKeyPrefix,
		)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisIndex.Ping(pingCtx); err != nil {
			logger.Warn("recent_index_unreachable", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
		index = redisIndex
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel,
		ollama.WithResilience(resilience.NewExecutor(policy, execOpts...)),
	)
	extractor := ollama.NewExtractor(ollamaClient)

	deriveUC := usecase.NewDeriveNotificationsUseCase(documents, notifications, usecase.DeriveOptions{
		Index:        index,
		Publisher:    feedBus,
		Observer:     observer,
		Location:     location,
		DedupeWindow: cfg.NotifyDedupeWindow,
		Logger:       logger,
	})
	feedUC := usecase.NewFeedUseCase(notifications, index, feedBus, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		Documents: documents,
		Queue:     queue,
		FeedBus:   feedBus,
		Exporter:  xlsx.NewExporter(),

		IngestUC:    usecase.NewIngestDocumentUseCase(documents, subscriptions, queue, cfg.FreePlanDocumentLimit),
		ProcessUC:   usecase.NewProcessDocumentUseCase(documents, extractor, deriveUC, opts.Processing, logger),
		DeriveUC:    deriveUC,
		FeedUC:      feedUC,
		SessionUC:   usecase.NewSessionUseCase(feedUC, deriveUC, logger),
		DocumentsUC: usecase.NewDocumentCatalogUseCase(documents, feedBus, location, logger),

		closeFn: func() {
			if err := conn.Drain(); err != nil {
				conn.Close()
			}
			if redisIndex != nil {
				_ = redisIndex.Close()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
