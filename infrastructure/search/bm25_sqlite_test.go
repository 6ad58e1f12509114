package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/domain/search"
	"github.com/repolens/repolens/internal/testdb"
)

func TestEscapeFTS5Query(t *testing.T) {
	assert.Equal(t, `"main"`, escapeFTS5Query("main"))
	// Tokens are quoted one by one, not as a single phrase.
	assert.Equal(t, `"config" "listen"`, escapeFTS5Query("config listen"))
	assert.Equal(t, `"NOT" "OR"`, escapeFTS5Query("NOT OR"))
	assert.Equal(t, `"say" """hi"""`, escapeFTS5Query(`say "hi"`))
}

func TestSQLiteKeywordIndex_MatchesNonAdjacentTokens(t *testing.T) {
	ctx := context.Background()
	index := NewSQLiteKeywordIndex(testdb.NewPlain(t), nil)

	require.NoError(t, index.Index(ctx, []search.Document{
		search.NewDocument(1, "serve func serve cfg Config error return listen cfg"),
		search.NewDocument(2, "parse func parse path string error"),
	}))

	// Both tokens appear in document 1 but never adjacently.
	results, err := index.Search(ctx, "config listen", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.EqualValues(t, 1, results[0].SnippetID())
}

func TestSQLiteKeywordIndex_AllTokensRequired(t *testing.T) {
	ctx := context.Background()
	index := NewSQLiteKeywordIndex(testdb.NewPlain(t), nil)

	require.NoError(t, index.Index(ctx, []search.Document{
		search.NewDocument(1, "start the http server"),
		search.NewDocument(2, "stop the http server"),
	}))

	results, err := index.Search(ctx, "start server", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.EqualValues(t, 1, results[0].SnippetID())
}

func TestSQLiteKeywordIndex_ReindexReplacesDocument(t *testing.T) {
	ctx := context.Background()
	index := NewSQLiteKeywordIndex(testdb.NewPlain(t), nil)

	require.NoError(t, index.Index(ctx, []search.Document{
		search.NewDocument(1, "old passage about caching"),
	}))
	require.NoError(t, index.Index(ctx, []search.Document{
		search.NewDocument(1, "new passage about routing"),
	}))

	stale, err := index.Search(ctx, "caching", 10)
	require.NoError(t, err)
	assert.Empty(t, stale)

	fresh, err := index.Search(ctx, "routing", 10)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
}
