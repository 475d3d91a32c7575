package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kirillkom/mover-verification/internal/bootstrap"
	"github.com/kirillkom/mover-verification/internal/config"
	"github.com/kirillkom/mover-verification/internal/infrastructure/scheduler"
	"github.com/kirillkom/mover-verification/internal/observability/logging"
	"github.com/kirillkom/mover-verification/internal/observability/metrics"
)

const (
	serviceName  = "mover-worker"
	sweepTimeout = 10 * time.Minute
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, logger, workerMetrics.Verification())
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("worker_metrics_listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()

	sched := scheduler.New(logger)
	err = sched.Add(ctx, "expiration_sweep", cfg.ExpirationSweepSchedule, sweepTimeout, func(jobCtx context.Context) error {
		summary, err := app.SweepUC.Run(jobCtx)
		workerMetrics.ObserveSweep(serviceName, summary.ExpiringDocuments, err)
		if err == nil {
			logger.Info("expiration_sweep_summary",
				"expiring", summary.ExpiringDocuments,
				"critical", summary.CriticalDocuments,
				"notified", summary.MoversNotified,
				"skipped", summary.MoversSkipped,
			)
		}
		return err
	})
	if err != nil {
		logger.Error("scheduler_setup_failed", "error", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeVerificationRequested(ctx, func(handlerCtx context.Context, moverID string) error {
		jobCtx, cancel := context.WithTimeout(handlerCtx, cfg.VerificationTimeout)
		defer cancel()

		workerMetrics.StartJob()
		start := time.Now()
		report, err := app.MoversUC.Verify(jobCtx, moverID)
		workerMetrics.FinishJob(serviceName, time.Since(start), err)
		if err != nil {
			return err
		}
		logger.Info("mover_verification_done", "mover_id", moverID, "status", report.OverallStatus, "score", report.Score)
		return nil
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		stop()
	}

	wg.Wait()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
