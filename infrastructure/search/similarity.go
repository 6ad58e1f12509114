package search

import (
	"math"
	"sort"

	"github.com/repolens/repolens/domain/search"
)

// CosineSimilarity computes the cosine similarity between two vectors,
// in [-1, 1]. Mismatched lengths or zero magnitude yield 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// StoredVector holds an embedding vector with its snippet ID.
type StoredVector struct {
	snippetID int64
	embedding []float64
}

// NewStoredVector creates a new StoredVector.
func NewStoredVector(snippetID int64, embedding []float64) StoredVector {
	vec := make([]float64, len(embedding))
	copy(vec, embedding)
	return StoredVector{snippetID: snippetID, embedding: vec}
}

// SnippetID returns the snippet identifier.
func (v StoredVector) SnippetID() int64 { return v.snippetID }

// TopKSimilar scores every stored vector against the query and returns the
// k best as search results, sorted by similarity descending with ties
// broken by ascending snippet ID for determinism.
func TopKSimilar(query []float64, vectors []StoredVector, k int) []search.Result {
	if len(vectors) == 0 || k <= 0 {
		return nil
	}

	results := make([]search.Result, 0, len(vectors))
	for _, v := range vectors {
		results = append(results, search.NewResult(v.snippetID, CosineSimilarity(query, v.embedding)))
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score() != results[j].Score() {
			return results[i].Score() > results[j].Score()
		}
		return results[i].SnippetID() < results[j].SnippetID()
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}
