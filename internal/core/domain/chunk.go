package domain

// Lane is the routing destination of a chunk.
type Lane string

const (
	LaneNarrative Lane = "narrative"
	LaneNumeric   Lane = "numeric"
	LaneExcluded  Lane = "excluded"
)

// Chunk is the atomic paragraph-level unit of filing text. Text is never
// empty; Section is empty only for chunks cut from the full-document fallback
// before a section label is known.
type Chunk struct {
	ID        string     `json:"id"`
	CIK       string     `json:"cik"`
	Accession string     `json:"accession"`
	Section   SectionKey `json:"section,omitempty"`
	Text      string     `json:"text"`
}

// RoutedChunk pairs a chunk with its lane. One-to-one with Chunk; immutable.
type RoutedChunk struct {
	Chunk Chunk `json:"chunk"`
	Lane  Lane  `json:"lane"`
}
