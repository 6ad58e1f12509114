package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/domain/snippet"
	"github.com/repolens/repolens/infrastructure/persistence"
	"github.com/repolens/repolens/internal/testdb"
)

func TestSnippetStateStore_MissingRowsArePending(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewSnippetStateStore(testdb.New(t))

	pending, err := store.PendingSnippetIDs(ctx, snippet.PhaseBM25, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, pending)
}

func TestSnippetStateStore_CompletedRowsAreFiltered(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewSnippetStateStore(testdb.New(t))

	require.NoError(t, store.Upsert(ctx, []snippet.State{
		snippet.NewState(1, snippet.PhaseBM25).Completed(),
		snippet.NewState(2, snippet.PhaseBM25),
	}))

	pending, err := store.PendingSnippetIDs(ctx, snippet.PhaseBM25, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, pending)
}

func TestSnippetStateStore_PhasesAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewSnippetStateStore(testdb.New(t))

	require.NoError(t, store.Upsert(ctx, []snippet.State{
		snippet.NewState(1, snippet.PhaseBM25).Completed(),
	}))

	pending, err := store.PendingSnippetIDs(ctx, snippet.PhaseCodeEmbedding, []int64{1})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, pending)
}

func TestSnippetStateStore_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewSnippetStateStore(testdb.New(t))

	require.NoError(t, store.Upsert(ctx, []snippet.State{snippet.NewState(1, snippet.PhaseEnrichment)}))
	require.NoError(t, store.Upsert(ctx, []snippet.State{snippet.NewState(1, snippet.PhaseEnrichment).Completed()}))

	states, err := store.FindBySnippetIDs(ctx, []int64{1}, snippet.PhaseEnrichment)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, snippet.StateCompleted, states[0].Value())

	pending, err := store.PendingSnippetIDs(ctx, snippet.PhaseEnrichment, []int64{1})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSnippetStateStore_EmptyInput(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewSnippetStateStore(testdb.New(t))

	require.NoError(t, store.Upsert(ctx, nil))

	pending, err := store.PendingSnippetIDs(ctx, snippet.PhaseBM25, nil)
	require.NoError(t, err)
	assert.Nil(t, pending)
}
