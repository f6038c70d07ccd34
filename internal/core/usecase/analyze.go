package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
	"github.com/filinglab/tenk-analyst/internal/core/ports"
)

// PipelineMetrics records pipeline-stage counters. Implementations bind their
// own service label; a nil value disables recording.
type PipelineMetrics interface {
	ObserveSections(count int)
	RecordRoutedChunks(lane string, count int)
	RecordIndexedChunks(indexed, skipped int)
	RecordCollaboratorFailure(collaborator string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveSections(int)              {}
func (noopMetrics) RecordRoutedChunks(string, int)   {}
func (noopMetrics) RecordIndexedChunks(int, int)     {}
func (noopMetrics) RecordCollaboratorFailure(string) {}

// orNoop returns a recording sink even when callers pass nil.

func orNoop(m PipelineMetrics) PipelineMetrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

// AnalyzeDeps is the collaborator set for filing analysis, assembled once at
// startup. Fetcher, the five pipeline stages and the assembler are required;
// everything else degrades gracefully when nil.
type AnalyzeDeps struct {
	Fetcher    ports.FilingFetcher
	Normalizer ports.TextNormalizer
	Extractor  ports.SectionExtractor
	Segmenter  ports.ParagraphSegmenter
	Router     ports.LaneRouter

	Narrative *NarrativeLane
	Numeric   NumericAnalyzer
	Assembler *ReportAssembler

	Index        ports.SimilarityIndex
	IndexEnabled bool

	Repository ports.ReportRepository
	Archive    ports.ReportArchive
	Exporter   ports.ReportExporter

	Metrics PipelineMetrics
}

// AnalyzeFilingUseCase runs the segmentation pipeline over one filing:
// fetch, normalize, extract sections, split into chunks, route into lanes,
// analyze both lanes, and assemble the final report.
type AnalyzeFilingUseCase struct {
	deps    AnalyzeDeps
	metrics PipelineMetrics
}

func NewAnalyzeFilingUseCase(deps AnalyzeDeps) *AnalyzeFilingUseCase {
	return &AnalyzeFilingUseCase{deps: deps, metrics: orNoop(deps.Metrics)}
}

// Analyze produces a report for the filing named by identifier. A report is
// returned even when collaborators fail; only fetch errors, empty documents,
// and cancellation abort the run.
func (uc *AnalyzeFilingUseCase) Analyze(ctx context.Context, identifier, filingTypeHint string) (*domain.Report, error) {
	filing, err := uc.fetch(ctx, identifier, filingTypeHint)
	if err != nil {
		return nil, err
	}

	text := uc.normalize(filing)
	if text == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "normalize filing text",
			errors.New("filing text is empty after cleaning"))
	}

	sections := uc.deps.Extractor.Extract(text)
	uc.metrics.ObserveSections(len(sections))

	chunks := uc.deps.Segmenter.Split(filing, sections)
	if len(chunks) == 0 {
		slog.Warn("no analyzable chunks", "cik", filing.CIK, "accession", filing.Accession)
	}

	routed := uc.deps.Router.Route(filing, chunks)
	narrativeChunks, numericChunks, excluded := partitionLanes(routed)
	uc.recordRouting(len(narrativeChunks), len(numericChunks), excluded)

	uc.indexChunks(ctx, filing, chunks)

	var (
		narrativeResults []domain.NarrativeResult
		numericResults   []domain.NumericResult
	)
	if !documentExcluded(routed, excluded) {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			narrativeResults = uc.deps.Narrative.Analyze(ctx, filing, narrativeChunks)
		}()
		go func() {
			defer wg.Done()
			numericResults = uc.deps.Numeric.Analyze(ctx, filing, numericChunks)
		}()
		wg.Wait()
	} else {
		slog.Info("document excluded from analysis",
			"cik", filing.CIK,
			"accession", filing.Accession,
			"filing_type", filing.FilingType)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := uc.deps.Assembler.Assemble(ctx, filing, narrativeResults, numericResults)
	uc.persist(ctx, report)
	return report, nil
}

func (uc *AnalyzeFilingUseCase) fetch(ctx context.Context, identifier, hint string) (*domain.Filing, error) {
	filing, err := uc.deps.Fetcher.Fetch(ctx, identifier, hint)
	if err != nil {
		return nil, fmt.Errorf("fetch filing: %w", err)
	}
	return filing, nil
}

// normalize applies the fetcher's source-specific cleanup when it offers one,
// then the shared markup normalizer.
func (uc *AnalyzeFilingUseCase) normalize(filing *domain.Filing) string {
	raw := filing.RawText
	if cleaner, ok := uc.deps.Fetcher.(ports.TextCleaner); ok {
		raw = cleaner.CleanText(raw)
	}
	return uc.deps.Normalizer.Normalize(raw)
}

// indexChunks submits every chunk to the similarity index before lane
// analysis so searches during this run can already see the filing. Indexing
// failures never fail the run, and this is the only place stats are logged.
func (uc *AnalyzeFilingUseCase) indexChunks(ctx context.Context, filing *domain.Filing, chunks []domain.Chunk) {
	if !uc.deps.IndexEnabled || uc.deps.Index == nil || len(chunks) == 0 {
		return
	}
	stats, err := uc.deps.Index.IndexChunks(ctx, filing, chunks)
	if err != nil {
		slog.Warn("chunk indexing failed",
			"cik", filing.CIK,
			"accession", filing.Accession,
			"error", err)
		uc.metrics.RecordCollaboratorFailure("similarity_index")
		return
	}
	slog.Info("chunk indexing complete",
		"cik", filing.CIK,
		"accession", filing.Accession,
		"attempted", stats.Attempted,
		"indexed", stats.Indexed,
		"skipped", stats.Skipped)
	uc.metrics.RecordIndexedChunks(stats.Indexed, stats.Skipped)
}

func (uc *AnalyzeFilingUseCase) recordRouting(narrative, numeric, excluded int) {
	uc.metrics.RecordRoutedChunks(string(domain.LaneNarrative), narrative)
	uc.metrics.RecordRoutedChunks(string(domain.LaneNumeric), numeric)
	uc.metrics.RecordRoutedChunks(string(domain.LaneExcluded), excluded)
}

// persist is best-effort: a report that cannot be stored is still returned to
// the caller.
func (uc *AnalyzeFilingUseCase) persist(ctx context.Context, report *domain.Report) {
	if uc.deps.Repository != nil {
		if err := uc.deps.Repository.Save(ctx, report); err != nil {
			slog.Warn("report save failed", "report_id", report.ID, "error", err)
			uc.metrics.RecordCollaboratorFailure("report_repository")
		}
	}
	if uc.deps.Archive != nil {
		location, err := uc.deps.Archive.Save(ctx, report)
		if err != nil {
			slog.Warn("report archive failed", "report_id", report.ID, "error", err)
		} else {
			slog.Info("report archived", "report_id", report.ID, "location", location)
		}
	}
	if uc.deps.Exporter != nil {
		location, err := uc.deps.Exporter.Export(ctx, report)
		if err != nil {
			slog.Warn("report export failed", "report_id", report.ID, "error", err)
		} else {
			slog.Info("report exported", "report_id", report.ID, "location", location)
		}
	}
}

func partitionLanes(routed []domain.RoutedChunk) (narrative, numeric []domain.Chunk, excluded int) {
	for _, rc := range routed {
		switch rc.Lane {
		case domain.LaneNarrative:
			narrative = append(narrative, rc.Chunk)
		case domain.LaneNumeric:
			numeric = append(numeric, rc.Chunk)
		default:
			excluded++
		}
	}
	return narrative, numeric, excluded
}

// documentExcluded reports whether routing excluded the whole filing, which
// happens when its declared type does not match the expected one.
func documentExcluded(routed []domain.RoutedChunk, excluded int) bool {
	return len(routed) > 0 && excluded == len(routed)
}
