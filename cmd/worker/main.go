package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/answerforge/rfp-engine/internal/bootstrap"
	"github.com/answerforge/rfp-engine/internal/config"
	"github.com/answerforge/rfp-engine/internal/observability/logging"
	"github.com/answerforge/rfp-engine/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeImportCreated(ctx, func(handlerCtx context.Context, importID string) error {
		start := time.Now()
		var createdAt time.Time
		if job, err := app.Jobs.GetByID(handlerCtx, importID); err == nil {
			createdAt = job.CreatedAt
		}
		workerMetrics.ImportStarted("worker", createdAt)

		processCtx, cancel := context.WithTimeout(handlerCtx, 15*time.Minute)
		defer cancel()
		processErr := app.ProcessUC.ProcessByID(processCtx, importID)

		status := "success"
		indexed, skipped := 0, 0
		if processErr != nil {
			status = "error"
		} else if job, err := app.Jobs.GetByID(handlerCtx, importID); err == nil {
			indexed, skipped = job.Indexed, job.Skipped
		}
		workerMetrics.ImportFinished("worker", status, indexed, skipped, time.Since(start))
		return processErr
	})
	if err != nil {
		logger.Error("worker subscribe error", "error", err)
		os.Exit(1)
	}
}
