package ports

import (
	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

// Pipeline-stage contracts. All four stages are pure: no I/O, no shared state,
// deterministic for a given input and configuration.

type TextNormalizer interface {
	Normalize(raw string) string
}

type SectionExtractor interface {
	Extract(text string) []domain.Section
}

type ParagraphSegmenter interface {
	Split(filing *domain.Filing, sections []domain.Section) []domain.Chunk
}

type LaneRouter interface {
	Route(filing *domain.Filing, chunks []domain.Chunk) []domain.RoutedChunk
}

// TextCleaner is an optional capability of a FilingFetcher: source-specific
// cleanup applied before normalization. Fetchers that do not implement it get
// the identity behavior.
type TextCleaner interface {
	CleanText(raw string) string
}
