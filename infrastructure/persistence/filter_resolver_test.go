package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/search"
	"github.com/repolens/repolens/domain/snippet"
	"github.com/repolens/repolens/infrastructure/persistence"
	"github.com/repolens/repolens/internal/database"
	"github.com/repolens/repolens/internal/testdb"
)

// filterFixture seeds one repository with two commits by different authors
// and one snippet per commit, in different languages and paths.
type filterFixture struct {
	goSnippetID int64
	pySnippetID int64
}

func seedFilterFixture(t *testing.T, db database.Database) filterFixture {
	t.Helper()
	ctx := context.Background()

	repo, err := repository.NewRepository("https://github.com/acme/widget.git")
	require.NoError(t, err)
	repo, err = persistence.NewRepositoryStore(db).Save(ctx, repo)
	require.NoError(t, err)

	commits := persistence.NewCommitStore(db)
	alice := repository.NewAuthor("Alice", "alice@example.com")
	bob := repository.NewAuthor("Bob", "bob@example.com")
	early := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	_, err = commits.SaveAll(ctx, []repository.Commit{
		repository.NewCommit("c-go", repo.ID(), "add server", alice, alice, early, early, ""),
		repository.NewCommit("c-py", repo.ID(), "add script", bob, bob, late, late, "c-go"),
	})
	require.NoError(t, err)

	files := persistence.NewFileStore(db)
	saved, err := files.SaveAll(ctx, []repository.File{
		repository.NewFile(repo.ID(), "blob-go", "internal/server/server.go", "text/plain", 100, "go"),
		repository.NewFile(repo.ID(), "blob-py", "scripts/run.py", "text/plain", 50, "python"),
	})
	require.NoError(t, err)

	snippets := persistence.NewSnippetStore(db)
	goSnips, err := snippets.SaveAll(ctx, "c-go", []snippet.Snippet{
		snippet.NewSnippet("func Serve() {}", "go", "Serve", []repository.File{saved[0]}),
	})
	require.NoError(t, err)
	pySnips, err := snippets.SaveAll(ctx, "c-py", []snippet.Snippet{
		snippet.NewSnippet("def run(): pass", "python", "run", []repository.File{saved[1]}),
	})
	require.NoError(t, err)

	return filterFixture{goSnippetID: goSnips[0].ID(), pySnippetID: pySnips[0].ID()}
}

func TestFilterResolver_EmptyFiltersMeanNoRestriction(t *testing.T) {
	resolver := persistence.NewFilterResolver(testdb.New(t))

	allowed, restricted, err := resolver.ResolveSnippetIDs(context.Background(), search.NewFilters())
	require.NoError(t, err)
	assert.False(t, restricted)
	assert.Nil(t, allowed)
}

func TestFilterResolver_ByLanguage(t *testing.T) {
	db := testdb.New(t)
	fx := seedFilterFixture(t, db)
	resolver := persistence.NewFilterResolver(db)

	allowed, restricted, err := resolver.ResolveSnippetIDs(context.Background(),
		search.NewFilters(search.WithLanguage("go")))
	require.NoError(t, err)
	assert.True(t, restricted)
	assert.Equal(t, map[int64]bool{fx.goSnippetID: true}, allowed)
}

func TestFilterResolver_LanguageIsCaseInsensitive(t *testing.T) {
	db := testdb.New(t)
	fx := seedFilterFixture(t, db)
	resolver := persistence.NewFilterResolver(db)

	for _, lang := range []string{"Python", "PYTHON", "python"} {
		allowed, _, err := resolver.ResolveSnippetIDs(context.Background(),
			search.NewFilters(search.WithLanguage(lang)))
		require.NoError(t, err)
		assert.Equal(t, map[int64]bool{fx.pySnippetID: true}, allowed, "language %q", lang)
	}
}

func TestFilterResolver_ByFilePath(t *testing.T) {
	db := testdb.New(t)
	fx := seedFilterFixture(t, db)
	resolver := persistence.NewFilterResolver(db)

	allowed, _, err := resolver.ResolveSnippetIDs(context.Background(),
		search.NewFilters(search.WithFilePath("scripts/")))
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{fx.pySnippetID: true}, allowed)
}

func TestFilterResolver_ByAuthor(t *testing.T) {
	db := testdb.New(t)
	fx := seedFilterFixture(t, db)
	resolver := persistence.NewFilterResolver(db)

	allowed, _, err := resolver.ResolveSnippetIDs(context.Background(),
		search.NewFilters(search.WithAuthor("Alice")))
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{fx.goSnippetID: true}, allowed)

	// Author matches as a substring of the contributor name.
	allowed, _, err = resolver.ResolveSnippetIDs(context.Background(),
		search.NewFilters(search.WithAuthor("lic")))
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{fx.goSnippetID: true}, allowed)
}

func TestFilterResolver_ByDateRange(t *testing.T) {
	db := testdb.New(t)
	fx := seedFilterFixture(t, db)
	resolver := persistence.NewFilterResolver(db)

	allowed, _, err := resolver.ResolveSnippetIDs(context.Background(),
		search.NewFilters(search.WithCreatedAfter(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{fx.pySnippetID: true}, allowed)

	allowed, _, err = resolver.ResolveSnippetIDs(context.Background(),
		search.NewFilters(search.WithCreatedBefore(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{fx.goSnippetID: true}, allowed)
}

func TestFilterResolver_BySourceRepo(t *testing.T) {
	db := testdb.New(t)
	fx := seedFilterFixture(t, db)
	resolver := persistence.NewFilterResolver(db)

	allowed, _, err := resolver.ResolveSnippetIDs(context.Background(),
		search.NewFilters(search.WithSourceRepo("acme/widget")))
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{fx.goSnippetID: true, fx.pySnippetID: true}, allowed)

	allowed, _, err = resolver.ResolveSnippetIDs(context.Background(),
		search.NewFilters(search.WithSourceRepo("unknown/repo")))
	require.NoError(t, err)
	assert.Empty(t, allowed)
}

func TestFilterResolver_CombinedFilters(t *testing.T) {
	db := testdb.New(t)
	fx := seedFilterFixture(t, db)
	resolver := persistence.NewFilterResolver(db)

	allowed, _, err := resolver.ResolveSnippetIDs(context.Background(),
		search.NewFilters(
			search.WithLanguage("python"),
			search.WithAuthor("Bob"),
		))
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{fx.pySnippetID: true}, allowed)

	// Contradictory predicates resolve to an empty allow set.
	allowed, _, err = resolver.ResolveSnippetIDs(context.Background(),
		search.NewFilters(
			search.WithLanguage("python"),
			search.WithAuthor("Alice"),
		))
	require.NoError(t, err)
	assert.Empty(t, allowed)
}
