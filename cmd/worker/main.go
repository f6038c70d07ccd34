// Command worker consumes analyze requests from the queue and runs the full
// pipeline for each one. Prometheus metrics are served on a side listener.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/filinglab/tenk-analyst/internal/bootstrap"
	"github.com/filinglab/tenk-analyst/internal/config"
	"github.com/filinglab/tenk-analyst/internal/core/domain"
	"github.com/filinglab/tenk-analyst/internal/observability/logging"
	"github.com/filinglab/tenk-analyst/internal/observability/metrics"
)

// analyzeTimeout bounds one filing end to end: fetch, both lanes, persist.
const analyzeTimeout = 10 * time.Minute

func main() {
	cfg := config.Load()
	logging.Setup("worker", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wm := metrics.NewWorkerMetrics("worker")
	app, err := bootstrap.New(ctx, cfg, wm.ForService("worker"))
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := startMetricsServer(cfg.WorkerMetricsPort, wm)

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeAnalyzeRequests(ctx, func(handlerCtx context.Context, req domain.AnalyzeRequest) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, analyzeTimeout)
		defer cancel()
		return app.ProcessUC.Process(processCtx, req)
	})
	if err != nil {
		slog.Error("subscription failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics listener shutdown failed", "error", err)
	}
}

func startMetricsServer(port string, wm *metrics.WorkerMetrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", wm.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	server := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("worker metrics listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics listener failed", "error", err)
		}
	}()
	return server
}
