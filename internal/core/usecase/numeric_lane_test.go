package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

type fakeFactsProvider struct {
	facts  []domain.Metric
	err    error
	gotCIK string
}

func (f *fakeFactsProvider) LatestFacts(_ context.Context, cik string) ([]domain.Metric, error) {
	f.gotCIK = cik
	return f.facts, f.err
}

func numericChunk(id, text string) domain.Chunk {
	return domain.Chunk{
		ID:        id,
		CIK:       "0000320193",
		Accession: "0000320193-24-000123",
		Section:   domain.SectionFinancialStatements,
		Text:      text,
	}
}

func findMetric(t *testing.T, metrics []domain.Metric, key string) domain.Metric {
	t.Helper()
	for _, m := range metrics {
		if m.Key == key {
			return m
		}
	}
	t.Fatalf("metric %q not found in %+v", key, metrics)
	return domain.Metric{}
}

func findRatio(t *testing.T, ratios []domain.Ratio, name string) domain.Ratio {
	t.Helper()
	for _, r := range ratios {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("ratio %q not found in %+v", name, ratios)
	return domain.Ratio{}
}

func TestNewNumericAnalyzerRejectsUnknownKind(t *testing.T) {
	_, err := NewNumericAnalyzer(NumericAnalyzerConfig{Kind: "xbrl"}, nil)
	if err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("error = %v, want configuration kind", err)
	}
}

func TestNewNumericAnalyzerFactsRequiresProvider(t *testing.T) {
	_, err := NewNumericAnalyzer(NumericAnalyzerConfig{Kind: NumericAnalyzerFacts}, nil)
	if err == nil {
		t.Fatal("expected an error without a provider")
	}
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("error = %v, want configuration kind", err)
	}
}

func TestTextAnalyzerExtractsLabeledAmounts(t *testing.T) {
	analyzer, err := NewNumericAnalyzer(NumericAnalyzerConfig{Kind: NumericAnalyzerText}, nil)
	if err != nil {
		t.Fatalf("build analyzer: %v", err)
	}

	chunk := numericChunk("c1",
		"Total revenue was $ 1,234.5 million for fiscal 2024, while net income reached 200 million.")
	results := analyzer.Analyze(context.Background(), testFiling(), []domain.Chunk{chunk})

	if len(results) != 1 {
		t.Fatalf("results = %+v, want one", results)
	}
	if results[0].ChunkID != "c1" {
		t.Fatalf("chunk id = %q", results[0].ChunkID)
	}

	revenue := findMetric(t, results[0].Metrics, domain.MetricRevenue)
	if revenue.Value != 1234.5 {
		t.Fatalf("revenue = %v, want 1234.5", revenue.Value)
	}
	if revenue.Display != "$1,234.5" {
		t.Fatalf("revenue display = %q", revenue.Display)
	}
	if revenue.Unit != "USD" {
		t.Fatalf("revenue unit = %q", revenue.Unit)
	}

	income := findMetric(t, results[0].Metrics, domain.MetricNetIncome)
	if income.Value != 200 || income.Display != "200" {
		t.Fatalf("net income = %+v", income)
	}

	margin := findRatio(t, results[0].Ratios, domain.RatioNetMargin)
	if math.Abs(margin.Value-200/1234.5) > 1e-9 {
		t.Fatalf("net margin = %v", margin.Value)
	}
}

func TestTextAnalyzerSkipsChunksWithoutLabels(t *testing.T) {
	analyzer := newTextNumericAnalyzer(TextAnalyzerConfig{})

	results := analyzer.Analyze(context.Background(), testFiling(), []domain.Chunk{
		numericChunk("c1", "The company operates in 40 countries."),
	})
	if len(results) != 0 {
		t.Fatalf("results = %+v, want none", results)
	}
}

func TestTextAnalyzerDerivesFreeCashFlow(t *testing.T) {
	analyzer := newTextNumericAnalyzer(TextAnalyzerConfig{})

	chunk := numericChunk("c1",
		"Operating cash flow was $500 while capital expenditures totaled $200 for the year.")
	results := analyzer.Analyze(context.Background(), testFiling(), []domain.Chunk{chunk})

	if len(results) != 1 {
		t.Fatalf("results = %+v, want one", results)
	}
	fcf := findMetric(t, results[0].Metrics, domain.MetricFreeCashFlow)
	if fcf.Value != 300 {
		t.Fatalf("free cash flow = %v, want 300", fcf.Value)
	}
	if fcf.Display != "$300" {
		t.Fatalf("free cash flow display = %q", fcf.Display)
	}
}

func TestTextAnalyzerDerivesDebtRatio(t *testing.T) {
	analyzer := newTextNumericAnalyzer(TextAnalyzerConfig{})

	chunk := numericChunk("c1",
		"Total assets of 1,000 and total liabilities of 400 as of year end.")
	results := analyzer.Analyze(context.Background(), testFiling(), []domain.Chunk{chunk})

	ratio := findRatio(t, results[0].Ratios, domain.RatioDebt)
	if math.Abs(ratio.Value-0.4) > 1e-9 {
		t.Fatalf("debt ratio = %v, want 0.4", ratio.Value)
	}
}

func TestFactsAnalyzerBuildsOneResultPerFiling(t *testing.T) {
	provider := &fakeFactsProvider{facts: []domain.Metric{
		{Key: domain.MetricRevenue, Value: 391_035_000_000, Unit: "USD"},
		{Key: domain.MetricNetIncome, Value: 93_736_000_000, Unit: "USD"},
		{Key: domain.MetricOperatingCashFlow, Value: 118_254_000_000, Unit: "USD"},
		{Key: domain.MetricCapex, Value: 9_447_000_000, Unit: "USD"},
		{Key: domain.MetricTotalAssets, Value: 364_980_000_000, Unit: "USD"},
		{Key: domain.MetricTotalLiabilities, Value: 308_030_000_000, Unit: "USD"},
	}}
	analyzer, err := NewNumericAnalyzer(NumericAnalyzerConfig{
		Kind:  NumericAnalyzerFacts,
		Facts: FactsAnalyzerConfig{Provider: provider},
	}, nil)
	if err != nil {
		t.Fatalf("build analyzer: %v", err)
	}

	filing := testFiling()
	results := analyzer.Analyze(context.Background(), filing, []domain.Chunk{numericChunk("c1", "ignored")})

	if provider.gotCIK != filing.CIK {
		t.Fatalf("provider cik = %q, want %q", provider.gotCIK, filing.CIK)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want one per filing", len(results))
	}
	if results[0].ChunkID != filing.CIK {
		t.Fatalf("chunk id = %q, want the cik", results[0].ChunkID)
	}

	fcf := findMetric(t, results[0].Metrics, domain.MetricFreeCashFlow)
	if fcf.Value != 118_254_000_000-9_447_000_000 {
		t.Fatalf("free cash flow = %v", fcf.Value)
	}
	debt := findRatio(t, results[0].Ratios, domain.RatioDebt)
	if math.Abs(debt.Value-308_030_000_000.0/364_980_000_000.0) > 1e-9 {
		t.Fatalf("debt ratio = %v", debt.Value)
	}
	margin := findRatio(t, results[0].Ratios, domain.RatioNetMargin)
	if math.Abs(margin.Value-93_736_000_000.0/391_035_000_000.0) > 1e-9 {
		t.Fatalf("net margin = %v", margin.Value)
	}
}

func TestFactsAnalyzerDegradesOnProviderFailure(t *testing.T) {
	provider := &fakeFactsProvider{err: errors.New("facts api down")}
	metrics := newRecordingMetrics()
	analyzer := newFactsNumericAnalyzer(FactsAnalyzerConfig{Provider: provider}, metrics)

	results := analyzer.Analyze(context.Background(), testFiling(), nil)

	if results != nil {
		t.Fatalf("results = %+v, want nil", results)
	}
	if !metrics.failed("financial_facts") {
		t.Fatalf("expected financial_facts failure, got %v", metrics.failures)
	}
}
