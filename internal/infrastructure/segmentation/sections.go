package segmentation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

// Rule binds a section key to the heading pattern that introduces it.
type Rule struct {
	Key     domain.SectionKey
	Pattern string
}

type compiledRule struct {
	key domain.SectionKey
	re  *regexp.Regexp
}

// Extractor slices normalized filing text into named sections. For each rule
// it keeps the last occurrence of the heading, not the first: annual filings
// repeat their headings in a leading table of contents, and the last match is
// the real section start.
type Extractor struct {
	rules []compiledRule
}

func NewExtractor(rules []Rule) (*Extractor, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, domain.WrapError(domain.ErrConfiguration, fmt.Sprintf("compile heading pattern for section %q", rule.Key), err)
		}
		compiled = append(compiled, compiledRule{key: rule.Key, re: re})
	}
	return &Extractor{rules: compiled}, nil
}

// Extract returns the matched sections ordered by position. Each section runs
// from its heading to the next heading or end of text, heading included. When
// no heading matches, the whole text becomes one full-document section.
func (e *Extractor) Extract(text string) []domain.Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	type hit struct {
		key   domain.SectionKey
		start int
	}
	hits := make([]hit, 0, len(e.rules))
	for _, rule := range e.rules {
		locs := rule.re.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		last := locs[len(locs)-1]
		hits = append(hits, hit{key: rule.key, start: last[0]})
	}

	if len(hits) == 0 {
		return []domain.Section{{
			Key:   domain.SectionFullDocument,
			Start: 0,
			End:   len(text),
			Text:  strings.TrimSpace(text),
		}}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	sections := make([]domain.Section, 0, len(hits))
	for i, h := range hits {
		end := len(text)
		if i+1 < len(hits) {
			end = hits[i+1].start
		}
		sections = append(sections, domain.Section{
			Key:   h.key,
			Start: h.start,
			End:   end,
			Text:  strings.TrimSpace(text[h.start:end]),
		})
	}
	return sections
}
