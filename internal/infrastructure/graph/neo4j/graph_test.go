package neo4j

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func TestComparableFromRecord(t *testing.T) {
	record := &neo4j.Record{
		Keys:   []string{"name", "accession", "score"},
		Values: []any{"Dell Technologies Inc.", "0000816761-24-000032", 0.42},
	}

	peer := comparableFromRecord(record)
	if peer.Name != "Dell Technologies Inc." {
		t.Errorf("Name = %q", peer.Name)
	}
	if peer.Accession != "0000816761-24-000032" {
		t.Errorf("Accession = %q", peer.Accession)
	}
	if peer.Score != 0.42 {
		t.Errorf("Score = %v", peer.Score)
	}
}

func TestComparableFromRecordToleratesNulls(t *testing.T) {
	record := &neo4j.Record{
		Keys:   []string{"name", "accession", "score"},
		Values: []any{"HP Inc.", nil, nil},
	}

	peer := comparableFromRecord(record)
	if peer.Name != "HP Inc." {
		t.Errorf("Name = %q", peer.Name)
	}
	if peer.Accession != "" || peer.Score != 0 {
		t.Errorf("nulls not zeroed: %+v", peer)
	}
}
