// Command api serves the analysis HTTP API: submissions go to the queue,
// reports are read from the store. Metrics are exposed on the same listener.
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

	httpadapter "github.com/filinglab/tenk-analyst/internal/adapters/http"
	"github.com/filinglab/tenk-analyst/internal/bootstrap"
	"github.com/filinglab/tenk-analyst/internal/config"
	"github.com/filinglab/tenk-analyst/internal/observability/logging"
	"github.com/filinglab/tenk-analyst/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logging.Setup("api", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, nil)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(cfg, app.SubmitUC, app.ReportsUC, metrics.NewHTTPServerMetrics("api"))

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("api shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
