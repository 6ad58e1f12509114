package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/snippet"
	"github.com/repolens/repolens/infrastructure/persistence"
	"github.com/repolens/repolens/internal/database"
	"github.com/repolens/repolens/internal/testdb"
)

func seedFile(t *testing.T, db database.Database, repositoryID int64, blobSHA, path string) repository.File {
	t.Helper()
	saved, err := persistence.NewFileStore(db).SaveAll(context.Background(), []repository.File{
		repository.NewFile(repositoryID, blobSHA, path, "text/plain", 10, "go"),
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	return saved[0]
}

func TestSnippetStore_SaveAll_ContentAddressed(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	store := persistence.NewSnippetStore(db)

	fileA := seedFile(t, db, 1, "blob-a", "a.go")
	fileB := seedFile(t, db, 1, "blob-b", "b.go")

	// The same fragment extracted from two files collapses to one row.
	first, err := store.SaveAll(ctx, "commit-1", []snippet.Snippet{
		snippet.NewSnippet("func X() {}", "go", "X", []repository.File{fileA}),
	})
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := store.SaveAll(ctx, "commit-1", []snippet.Snippet{
		snippet.NewSnippet("func X() {}", "go", "X", []repository.File{fileB}),
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID(), second[0].ID())

	got, err := store.Get(ctx, first[0].ID())
	require.NoError(t, err)
	assert.Len(t, got.DerivesFrom(), 2)
}

func TestSnippetStore_FindByCommitSHA(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	store := persistence.NewSnippetStore(db)

	file := seedFile(t, db, 1, "blob-a", "a.go")

	_, err := store.SaveAll(ctx, "commit-1", []snippet.Snippet{
		snippet.NewSnippet("func A() {}", "go", "A", []repository.File{file}),
		snippet.NewSnippet("func B() {}", "go", "B", []repository.File{file}),
	})
	require.NoError(t, err)

	found, err := store.FindByCommitSHA(ctx, "commit-1")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	none, err := store.FindByCommitSHA(ctx, "commit-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSnippetStore_UnlinkCommit_CollectsOrphans(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	store := persistence.NewSnippetStore(db)

	file := seedFile(t, db, 1, "blob-a", "a.go")

	saved, err := store.SaveAll(ctx, "commit-1", []snippet.Snippet{
		snippet.NewSnippet("func A() {}", "go", "A", []repository.File{file}),
		snippet.NewSnippet("func B() {}", "go", "B", []repository.File{file}),
	})
	require.NoError(t, err)

	// The first snippet also survives in a second commit.
	_, err = store.SaveAll(ctx, "commit-2", []snippet.Snippet{
		snippet.NewSnippet("func A() {}", "go", "A", []repository.File{file}),
	})
	require.NoError(t, err)

	deleted, err := store.UnlinkCommit(ctx, "commit-1")
	require.NoError(t, err)
	assert.Equal(t, []int64{saved[1].ID()}, deleted)

	_, err = store.Get(ctx, saved[0].ID())
	assert.NoError(t, err)
	_, err = store.Get(ctx, saved[1].ID())
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestSnippetStore_DeleteByRepositoryID_SharedSnippetsSurvive(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	store := persistence.NewSnippetStore(db)

	fileRepo1 := seedFile(t, db, 1, "blob-a", "a.go")
	fileRepo2 := seedFile(t, db, 2, "blob-a", "a.go")

	shared, err := store.SaveAll(ctx, "commit-1", []snippet.Snippet{
		snippet.NewSnippet("func Shared() {}", "go", "Shared", []repository.File{fileRepo1}),
	})
	require.NoError(t, err)
	_, err = store.SaveAll(ctx, "commit-9", []snippet.Snippet{
		snippet.NewSnippet("func Shared() {}", "go", "Shared", []repository.File{fileRepo2}),
	})
	require.NoError(t, err)

	only, err := store.SaveAll(ctx, "commit-1", []snippet.Snippet{
		snippet.NewSnippet("func Only() {}", "go", "Only", []repository.File{fileRepo1}),
	})
	require.NoError(t, err)

	deleted, err := store.DeleteByRepositoryID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{only[0].ID()}, deleted)

	_, err = store.Get(ctx, shared[0].ID())
	assert.NoError(t, err)
}
