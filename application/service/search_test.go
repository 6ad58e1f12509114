package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/search"
	"github.com/repolens/repolens/domain/snippet"
)

type fakeKeywordIndex struct {
	queries []string
	results []search.Result
}

func (f *fakeKeywordIndex) Index(_ context.Context, _ []search.Document) error { return nil }

func (f *fakeKeywordIndex) Search(_ context.Context, query string, _ int) ([]search.Result, error) {
	f.queries = append(f.queries, query)
	return f.results, nil
}

func (f *fakeKeywordIndex) Delete(_ context.Context, _ []int64) error { return nil }

type fakeVectorIndex struct {
	searched []search.EmbeddingType
	results  map[search.EmbeddingType][]search.Result
}

func (f *fakeVectorIndex) Index(_ context.Context, _ search.EmbeddingType, _ []search.Document, _ [][]float64) error {
	return nil
}

func (f *fakeVectorIndex) Search(_ context.Context, embeddingType search.EmbeddingType, _ []float64, _ int) ([]search.Result, error) {
	f.searched = append(f.searched, embeddingType)
	return f.results[embeddingType], nil
}

func (f *fakeVectorIndex) HasEmbeddings(_ context.Context, _ search.EmbeddingType, _ []int64) (map[int64]bool, error) {
	return nil, nil
}

func (f *fakeVectorIndex) Delete(_ context.Context, _ []int64) error { return nil }

type fakeQueryEmbedder struct {
	texts []string
}

func (f *fakeQueryEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	f.texts = append(f.texts, texts...)
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = []float64{0.5, 0.5}
	}
	return vectors, nil
}

type fakeSnippetStore struct {
	byID map[int64]snippet.Snippet
}

func (f *fakeSnippetStore) Get(_ context.Context, id int64) (snippet.Snippet, error) {
	return f.byID[id], nil
}

func (f *fakeSnippetStore) GetBySHA(_ context.Context, _ string) (snippet.Snippet, error) {
	return snippet.Snippet{}, nil
}

func (f *fakeSnippetStore) Find(_ context.Context, _ ...repository.Option) ([]snippet.Snippet, error) {
	return nil, nil
}

func (f *fakeSnippetStore) FindByCommitSHA(_ context.Context, _ string) ([]snippet.Snippet, error) {
	return nil, nil
}

func (f *fakeSnippetStore) FindWithFiles(_ context.Context, ids []int64) ([]snippet.Snippet, error) {
	var found []snippet.Snippet
	for _, id := range ids {
		if snip, ok := f.byID[id]; ok {
			found = append(found, snip)
		}
	}
	return found, nil
}

func (f *fakeSnippetStore) SaveAll(_ context.Context, _ string, snippets []snippet.Snippet) ([]snippet.Snippet, error) {
	return snippets, nil
}

func (f *fakeSnippetStore) UnlinkCommit(_ context.Context, _ string) ([]int64, error) {
	return nil, nil
}

func (f *fakeSnippetStore) DeleteByRepositoryID(_ context.Context, _ int64) ([]int64, error) {
	return nil, nil
}

func testSnippets(ids ...int64) *fakeSnippetStore {
	byID := make(map[int64]snippet.Snippet, len(ids))
	for _, id := range ids {
		byID[id] = snippet.NewSnippet("func f() {}", "go", "f", nil).WithID(id)
	}
	return &fakeSnippetStore{byID: byID}
}

func TestSearch_EachEngineRunsItsOwnQuery(t *testing.T) {
	keywordIndex := &fakeKeywordIndex{
		results: []search.Result{search.NewResult(1, 2.5)},
	}
	vectorIndex := &fakeVectorIndex{
		results: map[search.EmbeddingType][]search.Result{
			search.EmbeddingTypeCode: {search.NewResult(2, 0.9)},
			search.EmbeddingTypeText: {search.NewResult(3, 0.8)},
		},
	}
	embedder := &fakeQueryEmbedder{}

	svc := NewSearch(SearchParams{
		KeywordIndex: keywordIndex,
		VectorIndex:  vectorIndex,
		Embedder:     embedder,
		Snippets:     testSnippets(1, 2, 3),
	})

	query := search.NewQuery("http retry logic", "", []string{"backoff", "jitter"}, search.NewFilters(), 10)
	hits, err := svc.Query(context.Background(), query)
	require.NoError(t, err)

	// The keyword engine gets the keywords, not the text query.
	assert.Equal(t, []string{"backoff jitter"}, keywordIndex.queries)
	// Both vector engines fall back to the text query.
	assert.Equal(t, []string{"http retry logic", "http retry logic"}, embedder.texts)
	assert.Equal(t, []search.EmbeddingType{search.EmbeddingTypeCode, search.EmbeddingTypeText}, vectorIndex.searched)

	// Every engine's list reaches the fused ranking.
	ids := make([]int64, len(hits))
	for i, hit := range hits {
		ids[i] = hit.Snippet().ID()
	}
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids)
}

func TestSearch_KeywordsOnlySkipVectorEngines(t *testing.T) {
	keywordIndex := &fakeKeywordIndex{
		results: []search.Result{search.NewResult(1, 1.5)},
	}
	vectorIndex := &fakeVectorIndex{}
	embedder := &fakeQueryEmbedder{}

	svc := NewSearch(SearchParams{
		KeywordIndex: keywordIndex,
		VectorIndex:  vectorIndex,
		Embedder:     embedder,
		Snippets:     testSnippets(1),
	})

	query := search.NewQuery("", "", []string{"mutex"}, search.NewFilters(), 10)
	hits, err := svc.Query(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, []string{"mutex"}, keywordIndex.queries)
	assert.Empty(t, embedder.texts)
	assert.Empty(t, vectorIndex.searched)
	require.Len(t, hits, 1)
}

func TestSearch_CodeOnlyRunsCodeEngine(t *testing.T) {
	keywordIndex := &fakeKeywordIndex{}
	vectorIndex := &fakeVectorIndex{
		results: map[search.EmbeddingType][]search.Result{
			search.EmbeddingTypeCode: {search.NewResult(2, 0.7)},
		},
	}
	embedder := &fakeQueryEmbedder{}

	svc := NewSearch(SearchParams{
		KeywordIndex: keywordIndex,
		VectorIndex:  vectorIndex,
		Embedder:     embedder,
		Snippets:     testSnippets(2),
	})

	query := search.NewQuery("", "for i := range items", nil, search.NewFilters(), 10)
	hits, err := svc.Query(context.Background(), query)
	require.NoError(t, err)

	assert.Empty(t, keywordIndex.queries)
	assert.Equal(t, []search.EmbeddingType{search.EmbeddingTypeCode}, vectorIndex.searched)
	require.Len(t, hits, 1)
	assert.EqualValues(t, 2, hits[0].Snippet().ID())
}

func TestSearch_HitCarriesRawEngineScores(t *testing.T) {
	keywordIndex := &fakeKeywordIndex{
		results: []search.Result{search.NewResult(1, 3.2)},
	}
	vectorIndex := &fakeVectorIndex{
		results: map[search.EmbeddingType][]search.Result{
			search.EmbeddingTypeCode: {search.NewResult(1, 0.91)},
			search.EmbeddingTypeText: {search.NewResult(1, 0.42)},
		},
	}

	svc := NewSearch(SearchParams{
		KeywordIndex: keywordIndex,
		VectorIndex:  vectorIndex,
		Embedder:     &fakeQueryEmbedder{},
		Snippets:     testSnippets(1),
	})

	query := search.NewQuery("retry with backoff", "", nil, search.NewFilters(), 10)
	hits, err := svc.Query(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hit := hits[0]
	assert.Equal(t, map[search.Type]float64{
		search.TypeKeyword: 3.2,
		search.TypeCode:    0.91,
		search.TypeText:    0.42,
	}, hit.EngineScores())
	assert.Positive(t, hit.Score())
	// No enrichment store is wired, so the summary stays empty rather than
	// failing the query.
	assert.Empty(t, hit.Summary())
}

func TestSearch_EmptyQueryReturnsNothing(t *testing.T) {
	svc := NewSearch(SearchParams{Snippets: testSnippets()})

	hits, err := svc.Query(context.Background(),
		search.NewQuery("", "", nil, search.NewFilters(), 10))
	require.NoError(t, err)
	assert.Nil(t, hits)
}
