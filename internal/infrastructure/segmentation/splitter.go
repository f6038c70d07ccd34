package segmentation

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

const defaultMinSectionChars = 40

var reParagraph = regexp.MustCompile(`\n{2,}`)

// Segmenter splits sections into paragraph chunks on blank-line boundaries.
// Sections shorter than the character floor carry no analyzable content and
// are skipped before chunking.
type Segmenter struct {
	minSectionChars int
}

func NewSegmenter(minSectionChars int) *Segmenter {
	if minSectionChars <= 0 {
		minSectionChars = defaultMinSectionChars
	}
	return &Segmenter{minSectionChars: minSectionChars}
}

func (s *Segmenter) Split(filing *domain.Filing, sections []domain.Section) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(sections))
	for _, section := range sections {
		if utf8.RuneCountInString(section.Text) < s.minSectionChars {
			slog.Debug("skip_short_section",
				"section", string(section.Key),
				"chars", utf8.RuneCountInString(section.Text),
				"floor", s.minSectionChars)
			continue
		}
		for _, paragraph := range reParagraph.Split(section.Text, -1) {
			paragraph = strings.TrimSpace(paragraph)
			if paragraph == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				ID:        uuid.NewString(),
				CIK:       filing.CIK,
				Accession: filing.Accession,
				Section:   section.Key,
				Text:      paragraph,
			})
		}
	}
	return chunks
}
