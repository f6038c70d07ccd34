// Package qdrant stores filing chunk embeddings in a Qdrant collection and
// serves similarity search over them.
//
// Every point carries two representations of the same chunk: a dense
// embedding from the LLM embedder and a hashed sparse term vector. Searches
// run both and merge the ranked lists with reciprocal rank fusion, so
// lexically exact matches and semantically close ones both surface.
package qdrant

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

const (
	defaultHTTPTimeout = 60 * time.Second

	// Degenerate chunks (page furniture, checkbox rows) embed to noise and
	// pollute neighbour lists, so they are skipped rather than indexed.
	minIndexableChars    = 20
	minIndexableAlphaNum = 5
)

// Embedder turns texts into dense vectors. The LLM client's embedder
// satisfies it.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Index is a similarity index over filing chunks backed by a single Qdrant
// collection. Safe for concurrent use.
type Index struct {
	baseURL    string
	collection string
	embedder   Embedder
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

// New returns an index talking to the Qdrant REST API at baseURL. The
// collection is created on first upsert, once the embedding size is known.
func New(baseURL, collection string, embedder Embedder) *Index {
	return &Index{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		embedder:   embedder,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// IndexChunks embeds and upserts the filing's chunks. Degenerate texts are
// counted as skipped, not errors. Point ids are derived from the accession
// and chunk id, so re-analyzing a filing overwrites its points instead of
// duplicating them.
func (x *Index) IndexChunks(ctx context.Context, filing *domain.Filing, chunks []domain.Chunk) (domain.IndexStats, error) {
	stats := domain.IndexStats{Attempted: len(chunks)}

	eligible := make([]domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if isDegenerateText(chunk.Text) {
			stats.Skipped++
			continue
		}
		eligible = append(eligible, chunk)
	}
	if len(eligible) == 0 {
		return stats, nil
	}

	texts := make([]string, 0, len(eligible))
	for _, chunk := range eligible {
		texts = append(texts, chunk.Text)
	}
	vectors, err := x.embedder.Embed(ctx, texts)
	if err != nil {
		return stats, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(eligible) {
		return stats, fmt.Errorf("embed chunks: %d texts produced %d vectors", len(eligible), len(vectors))
	}

	if err := x.ensureCollection(ctx, len(vectors[0])); err != nil {
		return stats, err
	}

	points := make([]point, 0, len(eligible))
	for i, chunk := range eligible {
		points = append(points, point{
			ID: pointID(filing.Accession, chunk.ID),
			Vector: namedVectors{
				Dense:  vectors[i],
				Sparse: encodeSparseDocument(chunk.Text, string(chunk.Section)),
			},
			Payload: map[string]any{
				"cik":       filing.CIK,
				"accession": filing.Accession,
				"company":   filing.CompanyName,
				"section":   string(chunk.Section),
				"chunk_id":  chunk.ID,
				"text":      chunk.Text,
			},
		})
	}
	if err := x.upsertPoints(ctx, points); err != nil {
		return stats, err
	}

	stats.Indexed = len(points)
	return stats, nil
}

// Search returns the filings whose indexed chunks rank closest to text,
// best first. Scores are rank-fusion weights, comparable only within one
// result set. A degenerate query returns no matches.
func (x *Index) Search(ctx context.Context, text string, topK int) ([]domain.Comparable, error) {
	if topK <= 0 || isDegenerateText(text) {
		return nil, nil
	}

	queryVector, err := x.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// The candidate pool is wider than topK so fusion and the per-filing
	// dedup below have slack to reorder.
	poolSize := topK * 4
	dense, err := x.searchDense(ctx, queryVector, poolSize)
	if err != nil {
		return nil, err
	}
	sparse, err := x.searchSparse(ctx, encodeSparseQuery(text), poolSize)
	if err != nil {
		return nil, err
	}
	fused := fuseRRF(dense, sparse)

	// Several chunks of the same filing can rank; a filing appears once,
	// at its best fused score.
	comparables := make([]domain.Comparable, 0, topK)
	seen := make(map[string]bool, topK)
	for _, pt := range fused {
		accession := payloadString(pt.payload, "accession")
		if accession == "" || seen[accession] {
			continue
		}
		seen[accession] = true
		comparables = append(comparables, domain.Comparable{
			Name:      payloadString(pt.payload, "company"),
			Accession: accession,
			Score:     pt.score,
		})
		if len(comparables) == topK {
			break
		}
	}
	return comparables, nil
}

func isDegenerateText(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minIndexableChars {
		return true
	}
	alphaNum := 0
	for _, r := range trimmed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alphaNum++
			if alphaNum >= minIndexableAlphaNum {
				return false
			}
		}
	}
	return true
}

func pointID(accession, chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(accession+"/"+chunkID)).String()
}

func payloadString(payload map[string]any, key string) string {
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
