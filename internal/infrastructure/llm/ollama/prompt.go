package ollama

import (
	"fmt"
	"strings"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

func buildTonePrompt(text string) string {
	const maxSnippet = 4000
	snippet := text
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	return `You are a financial disclosure analyst.
Classify the management tone of the passage below.
Return strict JSON object with keys:
tone (one of "positive", "neutral", "negative"), confidence (number from 0 to 1).
No markdown, no extra keys.

Passage:
` + snippet
}

func buildNarrativePrompt(nc domain.NarrativeContext) string {
	var facts strings.Builder
	fmt.Fprintf(&facts, "Company: %s (CIK %s)\n", nc.CompanyName, nc.CIK)
	fmt.Fprintf(&facts, "Filing: %s\n", nc.FilingType)
	fmt.Fprintf(&facts, "Overall tone: %s\n", nc.KeyTone)
	if len(nc.TopRisks) > 0 {
		facts.WriteString("Key risks:\n")
		for _, risk := range nc.TopRisks {
			fmt.Fprintf(&facts, "- %s\n", truncateLine(risk, 300))
		}
	}
	if len(nc.Highlights) > 0 {
		facts.WriteString("Financial highlights:\n")
		for _, highlight := range nc.Highlights {
			fmt.Fprintf(&facts, "- %s: %s\n", highlight.Key, highlight.Display)
		}
	}
	if len(nc.Comparables) > 0 {
		names := make([]string, 0, len(nc.Comparables))
		for _, comparable := range nc.Comparables {
			names = append(names, comparable.Name)
		}
		fmt.Fprintf(&facts, "Similar filers: %s\n", strings.Join(names, ", "))
	}

	return fmt.Sprintf(`Write a short analyst brief from the facts below.
Three to five sentences of plain prose, no markdown, no invented numbers.
Cover the overall tone, the dominant risks and the financial picture.

Facts:
%s`, facts.String())
}

func truncateLine(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
