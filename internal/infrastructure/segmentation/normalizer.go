// Package segmentation turns raw filing text into routed, paragraph-level
// chunks: markup normalization, heading-based section extraction, paragraph
// splitting, and lane routing. Every stage is deterministic and side-effect
// free, so a document run can be replayed from its raw text.
package segmentation

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	reScript    = regexp.MustCompile(`(?is)<script.*?>.*?</script>`)
	reStyle     = regexp.MustCompile(`(?is)<style.*?>.*?</style>`)
	reComment   = regexp.MustCompile(`(?s)<!--.*?-->`)
	reTag       = regexp.MustCompile(`(?s)<[^>]+>`)
	reNumEntity = regexp.MustCompile(`&#(\d+);`)
	reSpace     = regexp.MustCompile(`\s+`)
)

// Normalizer strips markup and collapses whitespace. Tags are replaced with a
// space rather than deleted so words on either side of a tag boundary do not
// fuse into one token.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

func (n *Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := reScript.ReplaceAllString(raw, " ")
	text = reStyle.ReplaceAllString(text, " ")
	text = reComment.ReplaceAllString(text, " ")
	text = reTag.ReplaceAllString(text, " ")

	text = reNumEntity.ReplaceAllStringFunc(text, decodeNumericEntity)
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")

	text = reSpace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func decodeNumericEntity(entity string) string {
	digits := entity[2 : len(entity)-1]
	code, err := strconv.Atoi(digits)
	if err != nil || code < 0 || code > utf8.MaxRune || !utf8.ValidRune(rune(code)) {
		return " "
	}
	return string(rune(code))
}
