package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
	"github.com/filinglab/tenk-analyst/internal/core/ports"
)

// NumericAnalyzer is the numeric-lane contract. Implementations degrade to an
// empty result set instead of failing the run.
type NumericAnalyzer interface {
	Analyze(ctx context.Context, filing *domain.Filing, chunks []domain.Chunk) []domain.NumericResult
}

// NumericAnalyzerKind enumerates the supported analyzer implementations.
type NumericAnalyzerKind string

const (
	// NumericAnalyzerText extracts labeled amounts from chunk text.
	NumericAnalyzerText NumericAnalyzerKind = "text"
	// NumericAnalyzerFacts reads structured company facts from a provider.
	NumericAnalyzerFacts NumericAnalyzerKind = "facts"
)

// TextAnalyzerConfig configures the regex-based analyzer.
type TextAnalyzerConfig struct {
	// MaxMetricsPerChunk caps how many labeled amounts a single chunk may
	// contribute. Zero means the default of 6.
	MaxMetricsPerChunk int
}

// FactsAnalyzerConfig configures the structured-facts analyzer.
type FactsAnalyzerConfig struct {
	Provider ports.FinancialFactsProvider
}

// NumericAnalyzerConfig selects exactly one analyzer kind and carries its
// settings.
type NumericAnalyzerConfig struct {
	Kind  NumericAnalyzerKind
	Text  TextAnalyzerConfig
	Facts FactsAnalyzerConfig
}

// NewNumericAnalyzer builds the analyzer named by cfg.Kind. Unknown kinds and
// a facts analyzer without a provider are configuration errors.
func NewNumericAnalyzer(cfg NumericAnalyzerConfig, m PipelineMetrics) (NumericAnalyzer, error) {
	switch cfg.Kind {
	case NumericAnalyzerText:
		return newTextNumericAnalyzer(cfg.Text), nil
	case NumericAnalyzerFacts:
		if cfg.Facts.Provider == nil {
			return nil, domain.WrapError(domain.ErrConfiguration, "build numeric analyzer",
				errors.New("facts analyzer requires a financial facts provider"))
		}
		return newFactsNumericAnalyzer(cfg.Facts, m), nil
	default:
		return nil, domain.WrapError(domain.ErrConfiguration, "build numeric analyzer",
			fmt.Errorf("unknown analyzer kind %q", cfg.Kind))
	}
}

// reAmount matches a plain or comma-grouped number with an optional sign and
// decimal part.
var reAmount = regexp.MustCompile(`[-+]?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?`)

// metricKeywords maps label phrases to canonical metric keys. Longer phrases
// come first so "total assets" is not consumed by a shorter match.
var metricKeywords = []struct {
	phrase string
	key    string
}{
	{"total assets", domain.MetricTotalAssets},
	{"total liabilities", domain.MetricTotalLiabilities},
	{"operating cash flow", domain.MetricOperatingCashFlow},
	{"capital expenditures", domain.MetricCapex},
	{"net income", domain.MetricNetIncome},
	{"revenue", domain.MetricRevenue},
}

type textNumericAnalyzer struct {
	maxPerChunk int
}

func newTextNumericAnalyzer(cfg TextAnalyzerConfig) *textNumericAnalyzer {
	max := cfg.MaxMetricsPerChunk
	if max <= 0 {
		max = 6
	}
	return &textNumericAnalyzer{maxPerChunk: max}
}

// Analyze scans each chunk for labeled amounts. Chunks without any labeled
// amount produce no result.
func (a *textNumericAnalyzer) Analyze(_ context.Context, _ *domain.Filing, chunks []domain.Chunk) []domain.NumericResult {
	var results []domain.NumericResult
	for _, chunk := range chunks {
		metrics := a.extractMetrics(chunk.Text)
		if len(metrics) == 0 {
			continue
		}
		byKey := metricsByKey(metrics)
		if fcf, ok := deriveFreeCashFlow(byKey); ok {
			metrics = append(metrics, fcf)
		}
		results = append(results, domain.NumericResult{
			ChunkID: chunk.ID,
			Metrics: metrics,
			Ratios:  deriveRatios(byKey),
		})
	}
	return results
}

// extractMetrics takes, for each known label phrase, the first amount that
// appears after the phrase.
func (a *textNumericAnalyzer) extractMetrics(text string) []domain.Metric {
	lowered := strings.ToLower(text)
	var metrics []domain.Metric
	for _, kw := range metricKeywords {
		if len(metrics) >= a.maxPerChunk {
			break
		}
		idx := strings.Index(lowered, kw.phrase)
		if idx < 0 {
			continue
		}
		m, ok := amountAfter(text, idx+len(kw.phrase))
		if !ok {
			continue
		}
		m.Key = kw.key
		metrics = append(metrics, m)
	}
	return metrics
}

func amountAfter(text string, from int) (domain.Metric, bool) {
	if from >= len(text) {
		return domain.Metric{}, false
	}
	loc := reAmount.FindStringIndex(text[from:])
	if loc == nil {
		return domain.Metric{}, false
	}
	raw := text[from+loc[0] : from+loc[1]]
	value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return domain.Metric{}, false
	}
	display := raw
	if hasDollarPrefix(text, from+loc[0]) {
		display = "$" + raw
	}
	return domain.Metric{Value: value, Unit: "USD", Display: display}, true
}

func hasDollarPrefix(text string, at int) bool {
	for i := at - 1; i >= 0; i-- {
		if text[i] == ' ' {
			continue
		}
		return text[i] == '$'
	}
	return false
}

type factsNumericAnalyzer struct {
	provider ports.FinancialFactsProvider
	metrics  PipelineMetrics
}

func newFactsNumericAnalyzer(cfg FactsAnalyzerConfig, m PipelineMetrics) *factsNumericAnalyzer {
	return &factsNumericAnalyzer{provider: cfg.Provider, metrics: orNoop(m)}
}

// Analyze ignores chunk text: structured facts describe the company as a
// whole, so one result covers the filing. Provider failures degrade to an
// empty result set.
func (a *factsNumericAnalyzer) Analyze(ctx context.Context, filing *domain.Filing, _ []domain.Chunk) []domain.NumericResult {
	facts, err := a.provider.LatestFacts(ctx, filing.CIK)
	if err != nil {
		slog.Warn("financial facts lookup failed", "cik", filing.CIK, "error", err)
		a.metrics.RecordCollaboratorFailure("financial_facts")
		return nil
	}
	if len(facts) == 0 {
		return nil
	}
	byKey := metricsByKey(facts)
	metrics := append([]domain.Metric(nil), facts...)
	if fcf, ok := deriveFreeCashFlow(byKey); ok {
		metrics = append(metrics, fcf)
	}
	return []domain.NumericResult{{
		ChunkID: filing.CIK,
		Metrics: metrics,
		Ratios:  deriveRatios(byKey),
	}}
}

// metricsByKey keeps the first value seen per key.
func metricsByKey(metrics []domain.Metric) map[string]float64 {
	byKey := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		if _, dup := byKey[m.Key]; !dup {
			byKey[m.Key] = m.Value
		}
	}
	return byKey
}

func deriveRatios(byKey map[string]float64) []domain.Ratio {
	var ratios []domain.Ratio
	if assets, ok := byKey[domain.MetricTotalAssets]; ok && assets != 0 {
		if liabilities, ok := byKey[domain.MetricTotalLiabilities]; ok {
			ratios = append(ratios, domain.Ratio{Name: domain.RatioDebt, Value: liabilities / assets})
		}
	}
	if revenue, ok := byKey[domain.MetricRevenue]; ok && revenue != 0 {
		if netIncome, ok := byKey[domain.MetricNetIncome]; ok {
			ratios = append(ratios, domain.Ratio{Name: domain.RatioNetMargin, Value: netIncome / revenue})
		}
	}
	return ratios
}

func deriveFreeCashFlow(byKey map[string]float64) (domain.Metric, bool) {
	ocf, okOCF := byKey[domain.MetricOperatingCashFlow]
	capex, okCapex := byKey[domain.MetricCapex]
	if !okOCF || !okCapex {
		return domain.Metric{}, false
	}
	fcf := ocf - capex
	return domain.Metric{
		Key:     domain.MetricFreeCashFlow,
		Value:   fcf,
		Unit:    "USD",
		Display: domain.FormatUSD(fcf),
	}, true
}
