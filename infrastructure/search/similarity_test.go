package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 0}, []float64{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float64{1, 0}, []float64{-3, 0}), 1e-9)
}

func TestCosineSimilarity_DegenerateInputs(t *testing.T) {
	assert.Zero(t, CosineSimilarity(nil, nil))
	assert.Zero(t, CosineSimilarity([]float64{1, 2}, []float64{1}))
	assert.Zero(t, CosineSimilarity([]float64{0, 0}, []float64{1, 2}))
}

func TestTopKSimilar(t *testing.T) {
	vectors := []StoredVector{
		NewStoredVector(1, []float64{1, 0}),
		NewStoredVector(2, []float64{0, 1}),
		NewStoredVector(3, []float64{0.9, 0.1}),
	}

	results := TopKSimilar([]float64{1, 0}, vectors, 2)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].SnippetID())
	assert.Equal(t, int64(3), results[1].SnippetID())
}

func TestTopKSimilar_TieBreaksBySnippetID(t *testing.T) {
	vectors := []StoredVector{
		NewStoredVector(9, []float64{1, 0}),
		NewStoredVector(2, []float64{2, 0}),
	}

	results := TopKSimilar([]float64{1, 0}, vectors, 2)
	require.Len(t, results, 2)
	assert.Equal(t, int64(2), results[0].SnippetID())
	assert.Equal(t, int64(9), results[1].SnippetID())
}

func TestTopKSimilar_Bounds(t *testing.T) {
	vectors := []StoredVector{NewStoredVector(1, []float64{1})}

	assert.Nil(t, TopKSimilar([]float64{1}, nil, 5))
	assert.Nil(t, TopKSimilar([]float64{1}, vectors, 0))
	assert.Len(t, TopKSimilar([]float64{1}, vectors, 10), 1)
}
