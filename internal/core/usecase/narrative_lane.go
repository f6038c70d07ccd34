package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
	"github.com/filinglab/tenk-analyst/internal/core/ports"
)

// NarrativeLane classifies the tone of each narrative chunk, flags risk
// language, and attaches one similarity lookup per filing. Collaborator
// failures downgrade individual results instead of failing the lane.
type NarrativeLane struct {
	tone    ports.ToneClassifier
	index   ports.SimilarityIndex
	peers   ports.PeerGraph
	topK    int
	metrics PipelineMetrics
}

// NewNarrativeLane builds the lane. index and peers may be nil; topK falls
// back to 5 when not positive.
func NewNarrativeLane(tone ports.ToneClassifier, index ports.SimilarityIndex, peers ports.PeerGraph, topK int, m PipelineMetrics) *NarrativeLane {
	if topK <= 0 {
		topK = 5
	}
	return &NarrativeLane{tone: tone, index: index, peers: peers, topK: topK, metrics: orNoop(m)}
}

// Analyze returns one result per chunk, in the order the chunks arrived.
func (l *NarrativeLane) Analyze(ctx context.Context, filing *domain.Filing, chunks []domain.Chunk) []domain.NarrativeResult {
	if len(chunks) == 0 {
		return nil
	}
	results := make([]domain.NarrativeResult, 0, len(chunks))
	for _, chunk := range chunks {
		if ctx.Err() != nil {
			return results
		}
		results = append(results, l.analyzeChunk(ctx, chunk))
	}
	l.attachComparables(ctx, filing, chunks[0].Text, results)
	return results
}

func (l *NarrativeLane) analyzeChunk(ctx context.Context, chunk domain.Chunk) domain.NarrativeResult {
	tone := domain.ToneNeutral
	if l.tone != nil {
		classified, err := l.tone.Classify(ctx, chunk.Text)
		if err != nil {
			slog.Warn("tone classification failed", "chunk_id", chunk.ID, "error", err)
			l.metrics.RecordCollaboratorFailure("tone_classifier")
		} else if classified != "" {
			tone = classified
		}
	}
	result := domain.NarrativeResult{ChunkID: chunk.ID, Tone: tone}
	if strings.Contains(strings.ToLower(chunk.Text), "risk") {
		result.Signals = append(result.Signals, domain.Signal{
			Label:    domain.SignalLabelRisk,
			Evidence: chunk.Text,
		})
	}
	return result
}

// attachComparables runs a single similarity search per filing, seeded with
// the first chunk's text, and stores the hits on the first result. When the
// search comes back empty the peer graph serves previously recorded peers.
func (l *NarrativeLane) attachComparables(ctx context.Context, filing *domain.Filing, queryText string, results []domain.NarrativeResult) {
	if len(results) == 0 {
		return
	}
	comparables := l.searchComparables(ctx, filing, queryText)
	if len(comparables) == 0 && l.peers != nil {
		known, err := l.peers.KnownPeers(ctx, filing.CIK, l.topK)
		if err != nil {
			slog.Warn("peer lookup failed", "cik", filing.CIK, "error", err)
			l.metrics.RecordCollaboratorFailure("peer_graph")
		} else {
			comparables = known
		}
	}
	if len(comparables) == 0 {
		return
	}
	results[0].Comparables = comparables
}

func (l *NarrativeLane) searchComparables(ctx context.Context, filing *domain.Filing, queryText string) []domain.Comparable {
	if l.index == nil {
		return nil
	}
	found, err := l.index.Search(ctx, queryText, l.topK)
	if err != nil {
		slog.Warn("similarity search failed", "cik", filing.CIK, "error", err)
		l.metrics.RecordCollaboratorFailure("similarity_index")
		return nil
	}
	comparables := make([]domain.Comparable, 0, len(found))
	for _, c := range found {
		if c.Accession != "" && c.Accession == filing.Accession {
			continue
		}
		comparables = append(comparables, c)
	}
	if len(comparables) > 0 && l.peers != nil {
		if err := l.peers.RecordPeers(ctx, filing.CIK, filing.CompanyName, comparables); err != nil {
			slog.Warn("peer record failed", "cik", filing.CIK, "error", err)
		}
	}
	return comparables
}
