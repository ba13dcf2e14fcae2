package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/paperbox/internal/bootstrap"
	"github.com/kirillkom/paperbox/internal/config"
	"github.com/kirillkom/paperbox/internal/infrastructure/scheduler"
	"github.com/kirillkom/paperbox/internal/observability/logging"
	"github.com/kirillkom/paperbox/internal/observability/metrics"
)

const service = "worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSONLogger("paperbox-worker", "info").Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	logger := logging.Install("paperbox-worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(service)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Logger:     logger,
		Telemetry:  workerMetrics.Derivation,
		Processing: workerMetrics,
		OnDeliveryLag: func(lag time.Duration) {
			workerMetrics.ObserveQueueLag(service, lag)
		},
	})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_failed", "error", err)
		}
	}()

	sweeper := scheduler.NewSweeper(app.Documents, app.DeriveUC, workerMetrics.Derivation, logger)
	if err := sweeper.Start(cfg.NotifySweepCron); err != nil {
		logger.Error("sweeper_start_failed", "spec", cfg.NotifySweepCron, "error", err)
		os.Exit(1)
	}

	logger.Info("worker_subscribed", "subject", cfg.NATSIngestSubject, "sweep", cfg.NotifySweepCron)
	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		start := time.Now()
		workerMetrics.StartDocument()
		err := app.ProcessUC.ProcessByID(processCtx, documentID)
		workerMetrics.FinishDocument(service, time.Since(start), err)
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sweeper.Stop(shutdownCtx)
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker_metrics_shutdown_failed", "error", err)
	}
}
