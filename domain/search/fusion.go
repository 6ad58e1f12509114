package search

import "sort"

// Fusion combines ranked lists from multiple search methods using
// Reciprocal Rank Fusion.
type Fusion struct {
	k float64
}

// NewFusion creates a Fusion with the standard RRF constant of 60.
func NewFusion() Fusion {
	return Fusion{k: 60.0}
}

// NewFusionWithK creates a Fusion with a custom RRF constant.
func NewFusionWithK(k float64) Fusion {
	if k <= 0 {
		k = 60.0
	}
	return Fusion{k: k}
}

// Fuse combines ranked result lists. Each input list must be sorted by
// score descending; rank positions start at 0. A document appearing in
// several lists accumulates 1/(k+rank) per appearance. The output is
// sorted by fused score descending; equal scores order by ascending
// snippet ID so results are deterministic.
func (f Fusion) Fuse(lists ...[]Result) []FusionResult {
	if len(lists) == 0 {
		return []FusionResult{}
	}

	scores := make(map[int64]float64)
	originals := make(map[int64][]float64)

	for listIdx, list := range lists {
		for rank, res := range list {
			id := res.SnippetID()
			scores[id] += 1.0 / (f.k + float64(rank))
			if _, ok := originals[id]; !ok {
				originals[id] = make([]float64, len(lists))
			}
			originals[id][listIdx] = res.Score()
		}
	}

	results := make([]FusionResult, 0, len(scores))
	for id, score := range scores {
		results = append(results, NewFusionResult(id, score, originals[id]))
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score() != results[j].Score() {
			return results[i].Score() > results[j].Score()
		}
		return results[i].SnippetID() < results[j].SnippetID()
	})

	return results
}

// FuseTopK combines ranked lists and returns the top K fused results.
func (f Fusion) FuseTopK(topK int, lists ...[]Result) []FusionResult {
	results := f.Fuse(lists...)
	if topK <= 0 || topK >= len(results) {
		return results
	}
	return results[:topK]
}

// K returns the RRF constant.
func (f Fusion) K() float64 {
	return f.k
}
