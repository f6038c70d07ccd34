// Command analyst runs filing analysis from the terminal: one-shot batch
// analysis without the queue, or enqueueing requests for the worker fleet.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/filinglab/tenk-analyst/internal/config"
	"github.com/filinglab/tenk-analyst/internal/core/ports"
	"github.com/filinglab/tenk-analyst/internal/core/usecase"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/edgar"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/export/excel"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/filings/localfile"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/llm/ollama"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/queue/nats"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/resilience"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/segmentation"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/similarity/qdrant"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/storage/localfs"
	"github.com/filinglab/tenk-analyst/internal/infrastructure/tone/finbert"
	tonellm "github.com/filinglab/tenk-analyst/internal/infrastructure/tone/llm"
	"github.com/filinglab/tenk-analyst/internal/observability/logging"
)

var version = "1.0.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "analyst",
		Short: "Segment, classify and summarize SEC filings",
		Long: `Analyst fetches a company's SEC filing (or reads one from disk),
segments it into sections and paragraphs, routes the pieces through the
narrative and numeric lanes, and writes an analysis report.

Collaborating services (tone classifier, embedding model, similarity index)
are optional: when one is unreachable the report degrades instead of failing.`,
		Version: version,
	}

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(enqueueCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [identifiers...]",
		Short: "Analyze filings and write reports to disk",
		Long: `Analyze one or more filings end to end, without the queue or the
report database. Identifiers are ticker symbols or CIKs resolved against
EDGAR; with --dir they are file names inside that directory instead, and an
empty identifier list analyzes every supported file in the directory.

Examples:
  analyst analyze AAPL MSFT
  analyst analyze 0000320193 --filing-type 10-Q
  analyst analyze --dir ./filings --format all --out ./reports
  analyst analyze aapl-2024.txt --dir ./filings`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			format, _ := cmd.Flags().GetString("format")
			out, _ := cmd.Flags().GetString("out")
			filingType, _ := cmd.Flags().GetString("filing-type")

			switch format {
			case "json", "xlsx", "all":
			default:
				return fmt.Errorf("unknown format %q (use json, xlsx or all)", format)
			}

			cfg := config.Load()
			if dir != "" {
				cfg.FetchSource = config.FetchSourceLocal
				cfg.LocalFilingsDir = dir
				// Structured facts need EDGAR; local runs stay offline.
				cfg.NumericAnalyzer = config.NumericAnalyzerText
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logging.Setup("analyst", cfg.LogLevel)

			identifiers := args
			if len(identifiers) == 0 {
				if dir == "" {
					return fmt.Errorf("provide at least one ticker or CIK, or --dir with local filings")
				}
				found, err := listFilings(dir)
				if err != nil {
					return err
				}
				if len(found) == 0 {
					return fmt.Errorf("no supported filings (.txt, .htm, .html, .pdf) in %s", dir)
				}
				identifiers = found
			}

			analyzer, err := buildAnalyzer(cfg, format, out)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			failed := 0
			for _, identifier := range identifiers {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				report, err := analyzer.Analyze(ctx, identifier, filingType)
				if err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", identifier, err)
					continue
				}
				fmt.Printf("OK   %s: report %s, tone %s, %d risks, %d highlights\n",
					identifier, report.ID, report.KeyTone,
					len(report.TopRisks), len(report.FinancialHighlights))
			}

			if failed == len(identifiers) {
				return fmt.Errorf("all %d filings failed", failed)
			}
			if failed > 0 {
				fmt.Fprintf(os.Stderr, "%d of %d filings failed\n", failed, len(identifiers))
			}
			return nil
		},
	}

	cmd.Flags().StringP("dir", "d", "", "Analyze local filing files from this directory instead of EDGAR")
	cmd.Flags().StringP("format", "f", "json", "Report artifacts to write (json, xlsx, all)")
	cmd.Flags().StringP("out", "o", "./reports", "Output directory for report artifacts")
	cmd.Flags().StringP("filing-type", "t", "", "Filing form to analyze, defaults to 10-K")

	return cmd
}

func enqueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue [identifiers...]",
		Short: "Queue filings for the worker fleet",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filingType, _ := cmd.Flags().GetString("filing-type")

			cfg := config.Load()
			logging.Setup("analyst", cfg.LogLevel)

			queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
			if err != nil {
				return err
			}
			defer queue.Close()

			submit := usecase.NewSubmitAnalysisUseCase(queue)
			failed := 0
			for _, identifier := range args {
				requestID, err := submit.Submit(cmd.Context(), identifier, filingType)
				if err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", identifier, err)
					continue
				}
				fmt.Printf("OK   %s: request %s\n", identifier, requestID)
			}
			if failed == len(args) {
				return fmt.Errorf("all %d submissions failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringP("filing-type", "t", "", "Filing form to analyze, defaults to 10-K")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the analyst version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("analyst %s\n", version)
		},
	}
}

// buildAnalyzer assembles the pipeline without queue or database. Reports go
// to the archive (and the spreadsheet exporter when requested) under out.
func buildAnalyzer(cfg config.Config, format, out string) (ports.FilingAnalyzer, error) {
	executor := resilience.NewExecutor(resilience.DefaultProfiles())

	var fetcher ports.FilingFetcher
	var edgarClient *edgar.Client
	switch cfg.FetchSource {
	case config.FetchSourceLocal:
		fetcher = localfile.New(cfg.LocalFilingsDir)
	default:
		client, err := edgar.New(cfg.EDGARUserAgent, edgar.Options{
			APIBaseURL:        cfg.EDGARDataBaseURL,
			ArchiveBaseURL:    cfg.EDGARBaseURL,
			RequestsPerSecond: float64(cfg.EDGARRequestsPS),
			Executor:          executor,
		})
		if err != nil {
			return nil, err
		}
		fetcher = client
		edgarClient = client
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)

	var toneClassifier ports.ToneClassifier
	if cfg.ToneClassifier == config.ToneClassifierLLM {
		toneClassifier = tonellm.NewClassifier(ollamaClient)
	} else {
		toneClassifier = finbert.New(cfg.ToneServiceURL, executor)
	}

	nc := usecase.NumericAnalyzerConfig{Kind: usecase.NumericAnalyzerKind(cfg.NumericAnalyzer)}
	if nc.Kind == usecase.NumericAnalyzerFacts {
		if edgarClient == nil {
			client, err := edgar.New(cfg.EDGARUserAgent, edgar.Options{
				APIBaseURL:        cfg.EDGARDataBaseURL,
				RequestsPerSecond: float64(cfg.EDGARRequestsPS),
				Executor:          executor,
			})
			if err != nil {
				return nil, fmt.Errorf("facts analyzer: %w", err)
			}
			edgarClient = client
		}
		nc.Facts.Provider = edgar.NewFactsProvider(edgarClient)
	}
	numeric, err := usecase.NewNumericAnalyzer(nc, nil)
	if err != nil {
		return nil, err
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
		return nil, err
	}

	index := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, ollama.NewEmbedder(ollamaClient))

	var archive ports.ReportArchive
	if format == "json" || format == "all" {
		storage, err := localfs.New(out)
		if err != nil {
			return nil, err
		}
		archive = localfs.NewArchive(storage)
	}

	var exporter ports.ReportExporter
	if format == "xlsx" || format == "all" {
		xlsx, err := excel.New(out)
		if err != nil {
			return nil, err
		}
		exporter = xlsx
	}

	return usecase.NewAnalyzeFilingUseCase(usecase.AnalyzeDeps{
		Fetcher:    fetcher,
		Normalizer: segmentation.NewNormalizer(),
		Extractor:  extractor,
		Segmenter:  segmentation.NewSegmenter(cfg.MinSectionChars),
		Router:     segmentation.NewRouter(heur.NumericCues, heur.NarrativeSections, cfg.ExpectedFilingType),

		Narrative: usecase.NewNarrativeLane(toneClassifier, index, nil, cfg.SimilarityTopK, nil),
		Numeric:   numeric,
		Assembler: usecase.NewReportAssembler(ollama.NewNarrator(ollamaClient), cfg.TopRisks, cfg.TopMetrics, cfg.NetMarginWarnRatio, nil),

		Index:        index,
		IndexEnabled: cfg.IndexChunks,

		Archive:  archive,
		Exporter: exporter,
	}), nil
}

// listFilings returns supported filing file names in dir, sorted for a
// stable batch order.
func listFilings(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read filings directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".htm", ".html", ".pdf":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
