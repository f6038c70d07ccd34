package localfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

// Archive renders one report into three artifacts under a directory named by
// the report id: report.json, report.md and report.html.
type Archive struct {
	storage *Storage
}

func NewArchive(storage *Storage) *Archive {
	return &Archive{storage: storage}
}

// Save writes the artifacts and returns the report's directory.
func (a *Archive) Save(ctx context.Context, report *domain.Report) (string, error) {
	jsonBytes, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	if err := a.storage.Save(ctx, filepath.Join(report.ID, "report.json"), bytes.NewReader(jsonBytes)); err != nil {
		return "", fmt.Errorf("archive report.json: %w", err)
	}

	markdown := renderMarkdown(report)
	if err := a.storage.Save(ctx, filepath.Join(report.ID, "report.md"), strings.NewReader(markdown)); err != nil {
		return "", fmt.Errorf("archive report.md: %w", err)
	}

	var rendered bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &rendered); err != nil {
		return "", fmt.Errorf("render report html: %w", err)
	}
	page := fmt.Sprintf(htmlShell, htmlTitle(report), rendered.String())
	if err := a.storage.Save(ctx, filepath.Join(report.ID, "report.html"), strings.NewReader(page)); err != nil {
		return "", fmt.Errorf("archive report.html: %w", err)
	}

	return a.storage.Path(report.ID), nil
}

const htmlShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`

func htmlTitle(report *domain.Report) string {
	name := report.CompanyName
	if name == "" {
		name = report.CIK
	}
	return html.EscapeString(fmt.Sprintf("%s %s analysis", name, report.FilingType))
}

func renderMarkdown(report *domain.Report) string {
	var b strings.Builder

	title := report.CompanyName
	if title == "" {
		title = report.CIK
	}
	fmt.Fprintf(&b, "# %s %s analysis\n\n", title, report.FilingType)

	fmt.Fprintf(&b, "- CIK: %s\n", report.CIK)
	fmt.Fprintf(&b, "- Accession: %s\n", report.Accession)
	if report.SICDesc != "" {
		fmt.Fprintf(&b, "- Industry: %s (%s)\n", report.SICDesc, report.SIC)
	}
	fmt.Fprintf(&b, "- Overall tone: %s\n", report.KeyTone)
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.UTC().Format(time.RFC3339))

	if report.Narrative != "" {
		b.WriteString("\n## Narrative\n\n")
		b.WriteString(report.Narrative)
		b.WriteString("\n")
	}

	if len(report.TopRisks) > 0 {
		b.WriteString("\n## Top risks\n\n")
		for i, risk := range report.TopRisks {
			fmt.Fprintf(&b, "%d. %s\n", i+1, risk)
		}
	}

	if len(report.FinancialHighlights) > 0 {
		b.WriteString("\n## Financial highlights\n\n")
		for _, metric := range report.FinancialHighlights {
			fmt.Fprintf(&b, "- %s: %s\n", metricLabel(metric.Key), metricValue(metric))
		}
	}

	if len(report.Comparables) > 0 {
		b.WriteString("\n## Comparable filers\n\n")
		for _, peer := range report.Comparables {
			if peer.Accession != "" {
				fmt.Fprintf(&b, "- %s (%s)\n", peer.Name, peer.Accession)
			} else {
				fmt.Fprintf(&b, "- %s\n", peer.Name)
			}
		}
	}

	if len(report.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, warning := range report.Warnings {
			fmt.Fprintf(&b, "- %s\n", warning)
		}
	}

	if len(report.Sources) > 0 {
		b.WriteString("\n## Sources\n\n")
		for _, source := range report.Sources {
			if source.URL != "" {
				fmt.Fprintf(&b, "- %s: [%s](%s)\n", source.Type, source.Name, source.URL)
			} else {
				fmt.Fprintf(&b, "- %s: %s\n", source.Type, source.Name)
			}
		}
	}

	return b.String()
}

func metricLabel(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

func metricValue(metric domain.Metric) string {
	if metric.Display != "" {
		return metric.Display
	}
	return strconv.FormatFloat(metric.Value, 'f', -1, 64)
}
