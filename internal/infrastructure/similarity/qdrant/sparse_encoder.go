package qdrant

import (
	"hash/fnv"
	"sort"
	"strings"
)

// sparseVector mirrors Qdrant's sparse vector payload.
type sparseVector struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}

const (
	docBM25K1  = 1.2
	queryBM25K = 1.2

	// Section-name tokens ("risk factors", "item 7") are strong lexical
	// anchors for filing chunks, so they count more than body terms.
	sectionBoost   = 1.5
	maxSparseTerms = 256
)

// encodeSparseDocument builds a BM25-ish sparse vector from a chunk's text
// and its section name.
func encodeSparseDocument(text, section string) sparseVector {
	termFreq := make(map[uint32]float64, 64)
	appendTermFreq(termFreq, tokenizeAlphaNum(text), 1.0)
	appendTermFreq(termFreq, tokenizeAlphaNum(section), sectionBoost)
	return termFreqToSparse(termFreq, docBM25K1)
}

// encodeSparseQuery builds a sparse vector for query text.
func encodeSparseQuery(query string) sparseVector {
	termFreq := make(map[uint32]float64, 32)
	appendTermFreq(termFreq, tokenizeAlphaNum(query), 1.0)
	return termFreqToSparse(termFreq, queryBM25K)
}

func appendTermFreq(acc map[uint32]float64, tokens []string, weight float64) {
	for _, token := range tokens {
		acc[hashToken(token)] += weight
	}
}

// tokenizeAlphaNum lowercases and splits on non-alphanumeric ASCII runs.
func tokenizeAlphaNum(s string) []string {
	lowered := strings.ToLower(s)
	tokens := make([]string, 0, 32)
	var b strings.Builder
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

func hashToken(token string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	v := h.Sum32()
	if v == 0 {
		return 1
	}
	return v
}

// termFreqToSparse converts term frequencies to a capped, index-sorted
// sparse vector with BM25-style saturation.
func termFreqToSparse(termFreq map[uint32]float64, k float64) sparseVector {
	if len(termFreq) == 0 {
		return sparseVector{}
	}

	indices := make([]uint32, 0, len(termFreq))
	for idx := range termFreq {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	if len(indices) > maxSparseTerms {
		indices = indices[:maxSparseTerms]
	}

	values := make([]float32, 0, len(indices))
	for _, idx := range indices {
		tf := termFreq[idx]
		weight := (tf * (k + 1)) / (tf + k)
		values = append(values, float32(weight))
	}
	return sparseVector{Indices: indices, Values: values}
}
