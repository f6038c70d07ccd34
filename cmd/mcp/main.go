// Command mcp exposes filing analysis as MCP tools over stdio, so agent
// runtimes can call analyze_filing and get_report directly. Stdout belongs
// to the protocol; all logging goes to stderr.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/filinglab/tenk-analyst/internal/adapters/mcp"
	"github.com/filinglab/tenk-analyst/internal/bootstrap"
	"github.com/filinglab/tenk-analyst/internal/config"
	"github.com/filinglab/tenk-analyst/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

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

	slog.Info("mcp server ready", "tools", []string{"analyze_filing", "get_report"})
	if err := mcpadapter.NewServer(app.AnalyzeUC, app.ReportsUC).Serve(); err != nil {
		slog.Error("mcp server failed", "error", err)
		os.Exit(1)
	}
}
