package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Tone is the sentiment classification of a narrative chunk.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNeutral  Tone = "neutral"
	ToneNegative Tone = "negative"
)

// ParseTone maps a classifier label to a Tone. Labels match
// case-insensitively; anything outside the vocabulary is an error.
func ParseTone(label string) (Tone, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive":
		return TonePositive, nil
	case "neutral":
		return ToneNeutral, nil
	case "negative":
		return ToneNegative, nil
	default:
		return "", fmt.Errorf("unknown tone label %q", label)
	}
}

// SignalLabelRisk marks evidence of risk language in a narrative chunk.
const SignalLabelRisk = "risk"

// Signal is a labeled piece of evidence extracted from a narrative chunk.
type Signal struct {
	Label    string `json:"label"`
	Evidence string `json:"evidence"`
}

// Comparable is another company/filing surfaced by similarity search.
type Comparable struct {
	Name      string  `json:"name"`
	Accession string  `json:"accession,omitempty"`
	Score     float64 `json:"score"`
}

// NarrativeResult is the narrative-lane output for one chunk.
type NarrativeResult struct {
	ChunkID     string       `json:"chunk_id"`
	Tone        Tone         `json:"tone"`
	Signals     []Signal     `json:"signals,omitempty"`
	Comparables []Comparable `json:"comparables,omitempty"`
}

// Canonical metric keys shared by the text and structured-facts analyzers.
const (
	MetricRevenue           = "revenue"
	MetricNetIncome         = "net_income"
	MetricOperatingCashFlow = "operating_cash_flow"
	MetricCapex             = "capex"
	MetricTotalAssets       = "total_assets"
	MetricTotalLiabilities  = "total_liabilities"
	MetricFreeCashFlow      = "free_cash_flow"
)

// Derived ratio names.
const (
	RatioDebt      = "debt_ratio"
	RatioNetMargin = "net_margin"
)

// Metric is one named financial value extracted by the numeric lane.
type Metric struct {
	Key     string  `json:"key"`
	Value   float64 `json:"value"`
	Unit    string  `json:"unit,omitempty"`
	Display string  `json:"display,omitempty"`
}

// Ratio is a value derived from two or more metrics.
type Ratio struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// NumericResult is the numeric-lane output for one chunk.
type NumericResult struct {
	ChunkID string   `json:"chunk_id"`
	Metrics []Metric `json:"metrics,omitempty"`
	Ratios  []Ratio  `json:"ratios,omitempty"`
}

// IndexStats reports the outcome of the optional chunk-indexing side effect.
// The caller logs it at a single point; adapters never swallow it.
type IndexStats struct {
	Attempted int `json:"attempted"`
	Indexed   int `json:"indexed"`
	Skipped   int `json:"skipped"`
}

// FormatUSD renders a metric value as a dollar amount with thousands
// separators, truncating fractional cents.
func FormatUSD(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "$" + groupThousands(strconv.FormatFloat(math.Trunc(v), 'f', 0, 64))
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	first := len(s) % 3
	if first > 0 {
		b.WriteString(s[:first])
	}
	for i := first; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
