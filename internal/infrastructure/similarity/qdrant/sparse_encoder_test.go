package qdrant

import (
	"reflect"
	"sort"
	"strings"
	"testing"
)

func TestEncodeSparseDocumentIsDeterministic(t *testing.T) {
	text := "Revenue concentration among a small number of resellers exposes the company to collection risk."
	first := encodeSparseDocument(text, "risk_factors")
	second := encodeSparseDocument(text, "risk_factors")
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same input produced different sparse vectors")
	}
	if len(first.Indices) == 0 {
		t.Fatal("sparse vector is empty")
	}
	if len(first.Indices) != len(first.Values) {
		t.Fatalf("indices and values diverge: %d vs %d", len(first.Indices), len(first.Values))
	}
}

func TestEncodeSparseDocumentSortsAndCapsIndices(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 1000; i++ {
		b.WriteString("term")
		b.WriteString(strings.Repeat("x", i%7))
		b.WriteString(strings.ToLower(strings.Repeat("q", i%11)))
		b.WriteByte(byte('a' + i%26))
		b.WriteByte(' ')
	}
	vec := encodeSparseDocument(b.String(), "")
	if len(vec.Indices) > maxSparseTerms {
		t.Fatalf("got %d terms, cap is %d", len(vec.Indices), maxSparseTerms)
	}
	if !sort.SliceIsSorted(vec.Indices, func(i, j int) bool { return vec.Indices[i] < vec.Indices[j] }) {
		t.Fatal("indices are not sorted ascending")
	}
}

func TestEncodeSparseDocumentBoostsSectionTerms(t *testing.T) {
	vec := encodeSparseDocument("management expects continued growth", "risk factors")

	valueOf := func(token string) float32 {
		t.Helper()
		target := hashToken(token)
		for i, idx := range vec.Indices {
			if idx == target {
				return vec.Values[i]
			}
		}
		t.Fatalf("token %q not present in sparse vector", token)
		return 0
	}

	if section, body := valueOf("factors"), valueOf("growth"); section <= body {
		t.Fatalf("section term weight %v not above body term weight %v", section, body)
	}
}

func TestEncodeSparseQueryEmptyForNoise(t *testing.T) {
	vec := encodeSparseQuery("!!! ??? ... --- ###")
	if len(vec.Indices) != 0 {
		t.Fatalf("noise-only query produced %d terms", len(vec.Indices))
	}
}

func TestTokenizeAlphaNum(t *testing.T) {
	tokens := tokenizeAlphaNum("Item 1A. Risk Factors (fiscal 2024)")
	want := []string{"item", "1a", "risk", "factors", "fiscal", "2024"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
}

func TestHashTokenNeverZero(t *testing.T) {
	for _, token := range []string{"revenue", "10k", "a", "zz"} {
		if hashToken(token) == 0 {
			t.Fatalf("token %q hashed to reserved index 0", token)
		}
	}
}
