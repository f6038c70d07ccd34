package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
	"github.com/filinglab/tenk-analyst/internal/core/ports"
)

// RunMetrics records per-run worker telemetry. Implementations bind their own
// service label; a nil value disables recording.
type RunMetrics interface {
	StartAnalysis()
	FinishAnalysis(duration time.Duration, err error)
	ObserveQueueLag(lag time.Duration)
}

type noopRunMetrics struct{}

func (noopRunMetrics) StartAnalysis()                      {}
func (noopRunMetrics) FinishAnalysis(time.Duration, error) {}
func (noopRunMetrics) ObserveQueueLag(time.Duration)       {}

func orNoopRun(m RunMetrics) RunMetrics {
	if m == nil {
		return noopRunMetrics{}
	}
	return m
}

// ProcessRequestUseCase drives one queued analyze request through the
// analyzer and records run telemetry. Failures are returned to the queue
// subscriber, which decides whether to retry; one bad filing never stops the
// worker.
type ProcessRequestUseCase struct {
	analyzer ports.FilingAnalyzer
	metrics  RunMetrics
}

func NewProcessRequestUseCase(analyzer ports.FilingAnalyzer, m RunMetrics) *ProcessRequestUseCase {
	return &ProcessRequestUseCase{analyzer: analyzer, metrics: orNoopRun(m)}
}

func (uc *ProcessRequestUseCase) Process(ctx context.Context, req domain.AnalyzeRequest) error {
	if !req.RequestedAt.IsZero() {
		uc.metrics.ObserveQueueLag(time.Since(req.RequestedAt))
	}
	uc.metrics.StartAnalysis()
	started := time.Now()

	report, err := uc.analyzer.Analyze(ctx, req.Identifier, req.FilingType)
	uc.metrics.FinishAnalysis(time.Since(started), err)
	if err != nil {
		return fmt.Errorf("analyze %q: %w", req.Identifier, err)
	}

	slog.Info("analysis complete",
		"request_id", req.RequestID,
		"report_id", report.ID,
		"cik", report.CIK,
		"accession", report.Accession,
		"key_tone", string(report.KeyTone))
	return nil
}
