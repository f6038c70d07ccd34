package ports

import (
	"context"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

// FilingAnalyzer is the inbound contract for one synchronous pipeline run.
type FilingAnalyzer interface {
	Analyze(ctx context.Context, identifier, filingTypeHint string) (*domain.Report, error)
}

// AnalysisSubmitter is the inbound contract for asynchronous request intake.
type AnalysisSubmitter interface {
	Submit(ctx context.Context, identifier, filingTypeHint string) (string, error)
}

// RequestProcessor is the inbound contract for queue-driven processing.
type RequestProcessor interface {
	Process(ctx context.Context, req domain.AnalyzeRequest) error
}

// ReportReader is the inbound read model for stored reports.
type ReportReader interface {
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	ListByCIK(ctx context.Context, cik string, limit int) ([]domain.Report, error)
}
