package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
	"github.com/filinglab/tenk-analyst/internal/core/ports"
)

// ReportAssembler merges lane results into a single report. Assembly never
// fails: missing lane output yields a degraded report with a fallback
// narrative and a neutral tone.
type ReportAssembler struct {
	generator     ports.NarrativeGenerator
	topRisks      int
	topMetrics    int
	netMarginWarn float64
	metrics       PipelineMetrics
}

// NewReportAssembler builds the assembler. generator may be nil; caps fall
// back to 5 entries and the net-margin plausibility threshold to 3.0 (300%).
func NewReportAssembler(generator ports.NarrativeGenerator, topRisks, topMetrics int, netMarginWarn float64, m PipelineMetrics) *ReportAssembler {
	if topRisks <= 0 {
		topRisks = 5
	}
	if topMetrics <= 0 {
		topMetrics = 5
	}
	if netMarginWarn <= 0 {
		netMarginWarn = 3.0
	}
	return &ReportAssembler{
		generator:     generator,
		topRisks:      topRisks,
		topMetrics:    topMetrics,
		netMarginWarn: netMarginWarn,
		metrics:       orNoop(m),
	}
}

// Assemble builds the report for one filing from both lanes' results.
func (a *ReportAssembler) Assemble(ctx context.Context, filing *domain.Filing, narrative []domain.NarrativeResult, numeric []domain.NumericResult) *domain.Report {
	keyTone := majorityTone(narrative)
	topRisks := a.collectRisks(narrative)
	highlights, warnings := a.collectHighlights(numeric)
	comparables := collectComparables(narrative)

	nc := domain.NarrativeContext{
		CompanyName: filing.CompanyName,
		CIK:         filing.CIK,
		FilingType:  filing.FilingType,
		KeyTone:     keyTone,
		TopRisks:    topRisks,
		Highlights:  highlights,
		Comparables: comparables,
	}

	return &domain.Report{
		ID:                  uuid.NewString(),
		CIK:                 filing.CIK,
		CompanyName:         filing.CompanyName,
		Accession:           filing.Accession,
		FilingType:          filing.FilingType,
		SIC:                 filing.SIC,
		SICDesc:             filing.SICDesc,
		KeyTone:             keyTone,
		TopRisks:            topRisks,
		FinancialHighlights: highlights,
		Comparables:         comparables,
		Narrative:           a.narrative(ctx, nc),
		Warnings:            warnings,
		Sources:             filingSources(filing),
		GeneratedAt:         time.Now().UTC(),
	}
}

// majorityTone picks the most frequent tone. Ties go to the tone seen first;
// no results means neutral.
func majorityTone(results []domain.NarrativeResult) domain.Tone {
	if len(results) == 0 {
		return domain.ToneNeutral
	}
	counts := make(map[domain.Tone]int, 3)
	order := make([]domain.Tone, 0, 3)
	for _, r := range results {
		tone := r.Tone
		if tone == "" {
			tone = domain.ToneNeutral
		}
		if _, seen := counts[tone]; !seen {
			order = append(order, tone)
		}
		counts[tone]++
	}
	best := order[0]
	for _, tone := range order[1:] {
		if counts[tone] > counts[best] {
			best = tone
		}
	}
	return best
}

// collectRisks gathers risk-labeled evidence in chunk order, dropping exact
// duplicates, up to the configured cap.
func (a *ReportAssembler) collectRisks(results []domain.NarrativeResult) []string {
	seen := make(map[string]struct{})
	var risks []string
	for _, r := range results {
		for _, s := range r.Signals {
			if s.Label != domain.SignalLabelRisk {
				continue
			}
			evidence := strings.TrimSpace(s.Evidence)
			if evidence == "" {
				continue
			}
			if _, dup := seen[evidence]; dup {
				continue
			}
			seen[evidence] = struct{}{}
			risks = append(risks, evidence)
			if len(risks) == a.topRisks {
				return risks
			}
		}
	}
	return risks
}

// collectHighlights deduplicates metrics by key, first occurrence wins, then
// applies the cap. The plausibility check runs on the deduplicated set so a
// metric pushed out by the cap still participates.
func (a *ReportAssembler) collectHighlights(results []domain.NumericResult) ([]domain.Metric, []string) {
	seen := make(map[string]domain.Metric)
	var orderedKeys []string
	for _, r := range results {
		for _, m := range r.Metrics {
			key := strings.TrimSpace(m.Key)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = m
			orderedKeys = append(orderedKeys, key)
		}
	}

	var warnings []string
	if revenue, ok := seen[domain.MetricRevenue]; ok && revenue.Value != 0 {
		if netIncome, ok := seen[domain.MetricNetIncome]; ok {
			margin := netIncome.Value / revenue.Value
			if math.Abs(margin) > a.netMarginWarn {
				warnings = append(warnings, fmt.Sprintf(
					"net margin %.0f%% exceeds the %.0f%% plausibility threshold; verify revenue and net income sources",
					margin*100, a.netMarginWarn*100))
			}
		}
	}

	metrics := make([]domain.Metric, 0, min(len(orderedKeys), a.topMetrics))
	for _, key := range orderedKeys {
		metrics = append(metrics, seen[key])
		if len(metrics) == a.topMetrics {
			break
		}
	}
	return metrics, warnings
}

// collectComparables deduplicates by company name, first occurrence wins.
func collectComparables(results []domain.NarrativeResult) []domain.Comparable {
	seen := make(map[string]struct{})
	var out []domain.Comparable
	for _, r := range results {
		for _, c := range r.Comparables {
			name := strings.TrimSpace(c.Name)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

func (a *ReportAssembler) narrative(ctx context.Context, nc domain.NarrativeContext) string {
	if a.generator != nil {
		text, err := a.generator.Generate(ctx, nc)
		if err != nil {
			slog.Warn("narrative generation failed", "cik", nc.CIK, "error", err)
			a.metrics.RecordCollaboratorFailure("narrative_generator")
		} else if trimmed := strings.TrimSpace(text); trimmed != "" {
			return trimmed
		}
	}
	return fallbackNarrative(nc)
}

// fallbackNarrative renders a deterministic summary from the assembled
// report fields when no generator is configured or generation fails.
func fallbackNarrative(nc domain.NarrativeContext) string {
	name := strings.TrimSpace(nc.CompanyName)
	if name == "" {
		name = "CIK " + nc.CIK
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s filed a %s with an overall %s tone.", name, nc.FilingType, nc.KeyTone)
	if len(nc.TopRisks) > 0 {
		b.WriteString(" Key risk evidence: ")
		b.WriteString(strings.Join(nc.TopRisks, "; "))
		b.WriteString(".")
	}
	if len(nc.Highlights) > 0 {
		b.WriteString(" Financial highlights: ")
		parts := make([]string, 0, len(nc.Highlights))
		for _, m := range nc.Highlights {
			parts = append(parts, strings.TrimSpace(fmt.Sprintf("%s %s", m.Key, metricDisplay(m))))
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(".")
	}
	if len(nc.Comparables) > 0 {
		names := make([]string, 0, len(nc.Comparables))
		for _, c := range nc.Comparables {
			names = append(names, c.Name)
		}
		b.WriteString(" Similar filers: ")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(".")
	}
	b.WriteString(" Generated without a narrative model.")
	return b.String()
}

func metricDisplay(m domain.Metric) string {
	if m.Display != "" {
		return m.Display
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s", strconv.FormatFloat(m.Value, 'f', -1, 64), m.Unit))
}

func filingSources(filing *domain.Filing) []domain.Source {
	name := strings.TrimSpace(filing.FilingType + " " + filing.Accession)
	if name == "" {
		name = "filing"
	}
	return []domain.Source{{Type: "filing", Name: name, URL: filing.SourceURL}}
}
