package ports

import (
	"context"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

// FilingFetcher resolves an identifier (ticker or CIK) to one filing with its
// raw text. Returns ErrFilingNotFound when no matching filing exists and
// ErrTemporary for retryable transport conditions.
type FilingFetcher interface {
	Fetch(ctx context.Context, identifier, filingTypeHint string) (*domain.Filing, error)
}

// ToneClassifier scores one chunk of narrative text. Callers treat any error
// as a neutral tone; the classifier never has to succeed for a run to finish.
type ToneClassifier interface {
	Classify(ctx context.Context, text string) (domain.Tone, error)
}

// SimilarityIndex is the vector-search collaborator. Search errors degrade to
// an empty comparable list at the call site; IndexChunks is a best-effort side
// effect whose outcome is reported explicitly, never swallowed.
type SimilarityIndex interface {
	Search(ctx context.Context, text string, topK int) ([]domain.Comparable, error)
	IndexChunks(ctx context.Context, filing *domain.Filing, chunks []domain.Chunk) (domain.IndexStats, error)
}

// NarrativeGenerator produces the free-form report narrative. On failure the
// aggregator falls back to a deterministic template over the same context.
type NarrativeGenerator interface {
	Generate(ctx context.Context, nc domain.NarrativeContext) (string, error)
}

// FinancialFactsProvider is the alternate numeric-lane source: structured
// facts from a reporting API instead of text extraction.
type FinancialFactsProvider interface {
	LatestFacts(ctx context.Context, cik string) ([]domain.Metric, error)
}

// ReportRepository persists and reads assembled reports.
type ReportRepository interface {
	Save(ctx context.Context, report *domain.Report) error
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	ListByCIK(ctx context.Context, cik string, limit int) ([]domain.Report, error)
}

// ReportArchive writes report artifacts to a location and returns it.
type ReportArchive interface {
	Save(ctx context.Context, report *domain.Report) (string, error)
}

// ReportExporter writes a spreadsheet rendition of a report.
type ReportExporter interface {
	Export(ctx context.Context, report *domain.Report) (string, error)
}

// AnalysisQueue publishes/consumes analysis requests.
type AnalysisQueue interface {
	PublishAnalyzeRequest(ctx context.Context, req domain.AnalyzeRequest) error
	SubscribeAnalyzeRequests(ctx context.Context, handler func(context.Context, domain.AnalyzeRequest) error) error
}

// PeerGraph stores company→peer edges surfaced by similarity search and
// serves them back when the index has nothing for a company.
type PeerGraph interface {
	RecordPeers(ctx context.Context, cik, companyName string, peers []domain.Comparable) error
	KnownPeers(ctx context.Context, cik string, limit int) ([]domain.Comparable, error)
}
