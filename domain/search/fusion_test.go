package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuse_SingleList(t *testing.T) {
	fusion := NewFusion()

	results := fusion.Fuse([]Result{
		NewResult(1, 9.5),
		NewResult(2, 3.2),
	})

	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].SnippetID())
	assert.Equal(t, int64(2), results[1].SnippetID())
	assert.Greater(t, results[0].Score(), results[1].Score())
}

func TestFuse_DocumentInBothListsWins(t *testing.T) {
	fusion := NewFusion()

	keyword := []Result{NewResult(1, 10.0), NewResult(2, 5.0)}
	vector := []Result{NewResult(3, 0.9), NewResult(2, 0.8)}

	results := fusion.Fuse(keyword, vector)

	require.Len(t, results, 3)
	// Snippet 2 appears in both lists and accumulates two RRF terms,
	// beating either single-list top hit.
	assert.Equal(t, int64(2), results[0].SnippetID())
}

func TestFuse_TieBreaksBySnippetID(t *testing.T) {
	fusion := NewFusion()

	// Same rank in separate lists gives identical fused scores.
	results := fusion.Fuse(
		[]Result{NewResult(7, 1.0)},
		[]Result{NewResult(3, 1.0)},
	)

	require.Len(t, results, 2)
	assert.Equal(t, results[0].Score(), results[1].Score())
	assert.Equal(t, int64(3), results[0].SnippetID())
	assert.Equal(t, int64(7), results[1].SnippetID())
}

func TestFuse_PreservesOriginalScores(t *testing.T) {
	fusion := NewFusion()

	results := fusion.Fuse(
		[]Result{NewResult(1, 12.5)},
		[]Result{NewResult(1, 0.93)},
	)

	require.Len(t, results, 1)
	scores := results[0].OriginalScores()
	require.Len(t, scores, 2)
	assert.Equal(t, 12.5, scores[0])
	assert.Equal(t, 0.93, scores[1])
}

func TestFuse_EmptyInput(t *testing.T) {
	fusion := NewFusion()

	assert.Empty(t, fusion.Fuse())
	assert.Empty(t, fusion.Fuse([]Result{}))
}

func TestFuseTopK_Truncates(t *testing.T) {
	fusion := NewFusion()

	list := []Result{
		NewResult(1, 4.0),
		NewResult(2, 3.0),
		NewResult(3, 2.0),
		NewResult(4, 1.0),
	}

	results := fusion.FuseTopK(2, list)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].SnippetID())
	assert.Equal(t, int64(2), results[1].SnippetID())

	// Zero or negative K means no truncation.
	assert.Len(t, fusion.FuseTopK(0, list), 4)
	assert.Len(t, fusion.FuseTopK(-1, list), 4)
}

func TestNewFusionWithK_RejectsNonPositive(t *testing.T) {
	assert.Equal(t, 60.0, NewFusionWithK(0).K())
	assert.Equal(t, 60.0, NewFusionWithK(-5).K())
	assert.Equal(t, 10.0, NewFusionWithK(10).K())
}
