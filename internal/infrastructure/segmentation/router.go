package segmentation

import (
	"strings"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

// Router assigns each chunk to exactly one lane. A filing whose declared type
// differs from the expected one routes everything to the excluded lane. For
// matching filings a chunk goes numeric when its text carries a numeric cue
// and its section is not a narrative section; section context outranks lexical
// cues, so prose sections stay narrative even when they mention
// financial-statement language in passing.
type Router struct {
	cues              []string
	narrativeSections map[domain.SectionKey]struct{}
	expectedType      string
}

func NewRouter(cues []string, narrativeSections []domain.SectionKey, expectedFilingType string) *Router {
	lowered := make([]string, 0, len(cues))
	for _, cue := range cues {
		cue = strings.ToLower(strings.TrimSpace(cue))
		if cue != "" {
			lowered = append(lowered, cue)
		}
	}
	sectionSet := make(map[domain.SectionKey]struct{}, len(narrativeSections))
	for _, key := range narrativeSections {
		sectionSet[key] = struct{}{}
	}
	return &Router{
		cues:              lowered,
		narrativeSections: sectionSet,
		expectedType:      strings.TrimSpace(expectedFilingType),
	}
}

func (r *Router) Route(filing *domain.Filing, chunks []domain.Chunk) []domain.RoutedChunk {
	declared := strings.TrimSpace(filing.FilingType)
	excludeAll := r.expectedType != "" && declared != "" && !strings.EqualFold(declared, r.expectedType)

	routed := make([]domain.RoutedChunk, 0, len(chunks))
	for _, chunk := range chunks {
		lane := domain.LaneNarrative
		switch {
		case excludeAll:
			lane = domain.LaneExcluded
		case r.hasNumericCue(chunk.Text) && !r.isNarrativeSection(chunk.Section):
			lane = domain.LaneNumeric
		}
		routed = append(routed, domain.RoutedChunk{Chunk: chunk, Lane: lane})
	}
	return routed
}

func (r *Router) hasNumericCue(text string) bool {
	lowered := strings.ToLower(text)
	for _, cue := range r.cues {
		if strings.Contains(lowered, cue) {
			return true
		}
	}
	return false
}

func (r *Router) isNarrativeSection(key domain.SectionKey) bool {
	_, ok := r.narrativeSections[key]
	return ok
}
