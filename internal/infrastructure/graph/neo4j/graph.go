// Package neo4j stores company peer edges surfaced by similarity search.
// The graph is an optional collaborator: when it is not configured the
// pipeline simply never sees cached peers.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/filinglab/tenk-analyst/internal/core/domain"
)

type Graph struct {
	driver neo4j.DriverWithContext
}

// New connects and verifies reachability, so a misconfigured URL surfaces at
// startup instead of on the first pipeline run.
func New(ctx context.Context, url, user, password string) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(url, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Graph{driver: driver}, nil
}

func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

// RecordPeers upserts the company node and one PEER_OF edge per comparable.
// Peer companies are keyed by name since the index payload carries no CIK
// for them.
func (g *Graph) RecordPeers(ctx context.Context, cik, companyName string, peers []domain.Comparable) error {
	if len(peers) == 0 {
		return nil
	}

	params := make([]map[string]any, 0, len(peers))
	for _, peer := range peers {
		if peer.Name == "" {
			continue
		}
		params = append(params, map[string]any{
			"name":      peer.Name,
			"accession": peer.Accession,
			"score":     peer.Score,
		})
	}
	if len(params) == 0 {
		return nil
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
MERGE (c:Company {cik: $cik})
SET c.name = $name
WITH c
UNWIND $peers AS peer
MERGE (p:Company {name: peer.name})
MERGE (c)-[r:PEER_OF]->(p)
SET r.score = peer.score, r.accession = peer.accession, r.updated_at = timestamp()
`, map[string]any{
			"cik":   cik,
			"name":  companyName,
			"peers": params,
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("record peers for %s: %w", cik, err)
	}
	return nil
}

// KnownPeers returns previously recorded peers, best score first.
func (g *Graph) KnownPeers(ctx context.Context, cik string, limit int) ([]domain.Comparable, error) {
	if limit <= 0 {
		return nil, nil
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
MATCH (:Company {cik: $cik})-[r:PEER_OF]->(p:Company)
RETURN p.name AS name, r.accession AS accession, r.score AS score
ORDER BY r.score DESC
LIMIT $limit
`, map[string]any{
			"cik":   cik,
			"limit": limit,
		})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("query peers for %s: %w", cik, err)
	}

	rows, ok := records.([]*neo4j.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected neo4j result type %T", records)
	}
	peers := make([]domain.Comparable, 0, len(rows))
	for _, record := range rows {
		peers = append(peers, comparableFromRecord(record))
	}
	return peers, nil
}

func comparableFromRecord(record *neo4j.Record) domain.Comparable {
	var peer domain.Comparable
	if value, ok := record.Get("name"); ok {
		if name, ok := value.(string); ok {
			peer.Name = name
		}
	}
	if value, ok := record.Get("accession"); ok {
		if accession, ok := value.(string); ok {
			peer.Accession = accession
		}
	}
	if value, ok := record.Get("score"); ok {
		if score, ok := value.(float64); ok {
			peer.Score = score
		}
	}
	return peer
}
