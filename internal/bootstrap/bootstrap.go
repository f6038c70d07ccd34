// Package bootstrap assembles the application graph shared by the API, the
// worker, the CLI and the MCP server.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/filinglab/tenk-analyst/internal/config"
	"github.com/filinglab/tenk-analyst/internal/core/ports"
	"github.com/filinglab/tenk-analyst/internal/core/usecase"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/edgar"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/export/excel"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/filings/localfile"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/graph/neo4j"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/llm/ollama"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/queue/nats"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/repository/postgres"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/resilience"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/segmentation"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/similarity/qdrant"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/storage/localfs"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/tone/finbert"
	tonellm "github.com/filinglab/tenk-analyst/internal/infrastructure/tone/llm"
	"github.com/filinglab/tenk-analyst/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Queue     ports.AnalysisQueue
	AnalyzeUC ports.FilingAnalyzer
	SubmitUC  ports.AnalysisSubmitter
	ProcessUC ports.RequestProcessor
	ReportsUC ports.ReportReader

	closeFn func()
}

// New wires every collaborator from config. svcMetrics may be nil for
// binaries that do not run the pipeline themselves; recording then degrades
// to a no-op inside the use cases.
func New(ctx context.Context, cfg config.Config, svcMetrics *metrics.ServiceMetrics) (*App, error) {
	executor := resilience.NewExecutor(resilience.DefaultProfiles())

	var (
		pipelineMetrics usecase.PipelineMetrics
		runMetrics      usecase.RunMetrics
	)
	if svcMetrics != nil {
		pipelineMetrics = svcMetrics
		runMetrics = svcMetrics
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewReportRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init report storage: %w", err)
	}
	archive := localfs.NewArchive(storage)

	var exporter ports.ReportExporter
	if cfg.ExportXLSX {
		xlsx, err := excel.New("")
		if err != nil {
			return nil, fmt.Errorf("init xlsx exporter: %w", err)
		}
		exporter = xlsx
	}

	fetcher, edgarClient, err := buildFetcher(cfg, executor)
	if err != nil {
		return nil, err
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	narrator := ollama.NewNarrator(ollamaClient)
	embedder := ollama.NewEmbedder(ollamaClient)
	index := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, embedder)

	toneClassifier, err := buildToneClassifier(cfg, ollamaClient, executor)
	if err != nil {
		return nil, err
	}

	numeric, err := buildNumericAnalyzer(cfg, edgarClient, executor, pipelineMetrics)
	if err != nil {
		return nil, err
	}

	var peerGraph *neo4j.Graph
	var peers ports.PeerGraph
	if cfg.Neo4jURL != "" {
		peerGraph, err = neo4j.New(ctx, cfg.Neo4jURL, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			slog.Warn("peer graph disabled", "url", cfg.Neo4jURL, "error", err)
			peerGraph = nil
		} else {
			peers = peerGraph
		}
	}

	heur, err := config.LoadHeuristics(cfg.HeuristicsPath)
	if err != nil {
		return nil, err
	}
	rules := make([]segmentation.Rule, 0, len(heur.Sections))
	for _, rule := range heur.Sections {
		rules = append(rules, segmentation.Rule{Key: rule.Key, Pattern: rule.Pattern})
	}
	extractor, err := segmentation.NewExtractor(rules)
	if err != nil {
		return nil, fmt.Errorf("build section extractor: %w", err)
	}
	router := segmentation.NewRouter(heur.NumericCues, heur.NarrativeSections, cfg.ExpectedFilingType)

	narrativeLane := usecase.NewNarrativeLane(toneClassifier, index, peers, cfg.SimilarityTopK, pipelineMetrics)
	assembler := usecase.NewReportAssembler(narrator, cfg.TopRisks, cfg.TopMetrics, cfg.NetMarginWarnRatio, pipelineMetrics)

	analyzeUC := usecase.NewAnalyzeFilingUseCase(usecase.AnalyzeDeps{
		Fetcher:    fetcher,
		Normalizer: segmentation.NewNormalizer(),
		Extractor:  extractor,
		Segmenter:  segmentation.NewSegmenter(cfg.MinSectionChars),
		Router:     router,

		Narrative: narrativeLane,
		Numeric:   numeric,
		Assembler: assembler,

		Index:        index,
		IndexEnabled: cfg.IndexChunks,

		Repository: repo,
		Archive:    archive,
		Exporter:   exporter,

		Metrics: pipelineMetrics,
	})

	return &App{
		Config: cfg,
		Queue:  queue,

		AnalyzeUC: analyzeUC,
		SubmitUC:  usecase.NewSubmitAnalysisUseCase(queue),
		ProcessUC: usecase.NewProcessRequestUseCase(analyzeUC, runMetrics),
		ReportsUC: usecase.NewReportsUseCase(repo),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
			if peerGraph != nil {
				_ = peerGraph.Close(context.Background())
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// buildFetcher selects the filing source. The EDGAR client is returned
// separately because the facts analyzer can reuse it.
func buildFetcher(cfg config.Config, executor *resilience.Executor) (ports.FilingFetcher, *edgar.Client, error) {
	switch cfg.FetchSource {
	case config.FetchSourceEDGAR:
		client, err := newEDGARClient(cfg, executor)
		if err != nil {
			return nil, nil, err
		}
		return client, client, nil
	case config.FetchSourceLocal:
		return localfile.New(cfg.LocalFilingsDir), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown fetch source %q", cfg.FetchSource)
	}
}

func newEDGARClient(cfg config.Config, executor *resilience.Executor) (*edgar.Client, error) {
	client, err := edgar.New(cfg.EDGARUserAgent, edgar.Options{
		APIBaseURL:        cfg.EDGARDataBaseURL,
		ArchiveBaseURL:    cfg.EDGARBaseURL,
		RequestsPerSecond: float64(cfg.EDGARRequestsPS),
		Executor:          executor,
	})
	if err != nil {
		return nil, fmt.Errorf("build edgar client: %w", err)
	}
	return client, nil
}

func buildToneClassifier(cfg config.Config, ollamaClient *ollama.Client, executor *resilience.Executor) (ports.ToneClassifier, error) {
	switch cfg.ToneClassifier {
	case config.ToneClassifierService:
		return finbert.New(cfg.ToneServiceURL, executor), nil
	case config.ToneClassifierLLM:
		return tonellm.NewClassifier(ollamaClient), nil
	default:
		return nil, fmt.Errorf("unknown tone classifier %q", cfg.ToneClassifier)
	}
}

// buildNumericAnalyzer wires the facts provider onto the shared EDGAR client,
// creating one on demand when the filing source is local files.
func buildNumericAnalyzer(cfg config.Config, edgarClient *edgar.Client, executor *resilience.Executor, pm usecase.PipelineMetrics) (usecase.NumericAnalyzer, error) {
	nc := usecase.NumericAnalyzerConfig{Kind: usecase.NumericAnalyzerKind(cfg.NumericAnalyzer)}
	if nc.Kind == usecase.NumericAnalyzerFacts {
		if edgarClient == nil {
			client, err := newEDGARClient(cfg, executor)
			if err != nil {
				return nil, fmt.Errorf("facts analyzer: %w", err)
			}
			edgarClient = client
		}
		nc.Facts.Provider = edgar.NewFactsProvider(edgarClient)
	}
	return usecase.NewNumericAnalyzer(nc, pm)
}
