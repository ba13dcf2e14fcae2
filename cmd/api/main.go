package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/paperbox/internal/adapters/http"
	"github.com/kirillkom/paperbox/internal/bootstrap"
	"github.com/kirillkom/paperbox/internal/config"
	"github.com/kirillkom/paperbox/internal/observability/logging"
	"github.com/kirillkom/paperbox/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSONLogger("paperbox-api", "info").Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	logger := logging.Install("paperbox-api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Logger:    logger,
		Telemetry: httpMetrics.Derivation,
	})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(cfg, httpadapter.Dependencies{
		Sessions:   app.SessionUC,
		Ingestor:   app.IngestUC,
		Documents:  app.DocumentsUC,
		Deriver:    app.DeriveUC,
		Feed:       app.FeedUC,
		FeedEvents: app.FeedBus,
		Exporter:   app.Exporter,
		Metrics:    httpMetrics,
	}).Handler()

	// WriteTimeout stays zero: the feed stream is long-lived.
	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
