package indexing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/application/handler"
	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/search"
	"github.com/repolens/repolens/domain/snippet"
	"github.com/repolens/repolens/domain/task"
	"github.com/repolens/repolens/infrastructure/enricher"
	"github.com/repolens/repolens/infrastructure/persistence"
	searchinfra "github.com/repolens/repolens/infrastructure/search"
	"github.com/repolens/repolens/internal/database"
	"github.com/repolens/repolens/internal/testdb"
)

type fakeTracker struct{}

func (f *fakeTracker) SetTotal(_ context.Context, _ int)             {}
func (f *fakeTracker) SetCurrent(_ context.Context, _ int, _ string) {}
func (f *fakeTracker) Skip(_ context.Context, _ string)              {}
func (f *fakeTracker) Fail(_ context.Context, _ string)              {}
func (f *fakeTracker) Complete(_ context.Context)                    {}
func (f *fakeTracker) Finish(_ context.Context, _ error)             {}

type fakeTrackerFactory struct{}

func (f *fakeTrackerFactory) ForOperation(_ task.Operation, _ task.TrackableType, _ int64) handler.Tracker {
	return &fakeTracker{}
}

type fakeGenerator struct{}

func (f *fakeGenerator) Complete(_ context.Context, _, _ string) (string, error) {
	return "summarized", nil
}

type fakeEmbedder struct {
	texts []string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	f.texts = append(f.texts, texts...)
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = []float64{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

type enrichFixture struct {
	repoID     int64
	snippetIDs []int64
}

func seedEnrichFixture(t *testing.T, db database.Database) enrichFixture {
	t.Helper()
	ctx := context.Background()

	repo, err := repository.NewRepository("https://github.com/acme/widget.git")
	require.NoError(t, err)
	repo, err = persistence.NewRepositoryStore(db).Save(ctx, repo)
	require.NoError(t, err)

	author := repository.NewAuthor("Alice", "alice@example.com")
	when := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err = persistence.NewCommitStore(db).SaveAll(ctx, []repository.Commit{
		repository.NewCommit("commit-1", repo.ID(), "initial", author, author, when, when, ""),
	})
	require.NoError(t, err)

	_, err = persistence.NewBranchStore(db).Save(ctx,
		repository.NewBranch(repo.ID(), "main", "commit-1", true))
	require.NoError(t, err)

	files, err := persistence.NewFileStore(db).SaveAll(ctx, []repository.File{
		repository.NewFile(repo.ID(), "blob-1", "internal/server/server.go", "text/plain", 100, "go"),
	})
	require.NoError(t, err)

	snippets, err := persistence.NewSnippetStore(db).SaveAll(ctx, "commit-1", []snippet.Snippet{
		snippet.NewSnippet("func Serve() {}", "go", "Serve", []repository.File{files[0]}),
		snippet.NewSnippet("func Stop() {}", "go", "Stop", []repository.File{files[0]}),
	})
	require.NoError(t, err)

	ids := make([]int64, len(snippets))
	for i, snip := range snippets {
		ids[i] = snip.ID()
	}
	return enrichFixture{repoID: repo.ID(), snippetIDs: ids}
}

func TestEnrichSnippets_WithoutEmbedderLeavesEmbeddingPending(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	fx := seedEnrichFixture(t, db)
	states := persistence.NewSnippetStateStore(db)

	h := NewEnrichSnippets(EnrichSnippetsParams{
		Branches:       persistence.NewBranchStore(db),
		Snippets:       persistence.NewSnippetStore(db),
		States:         states,
		Enrichments:    persistence.NewEnrichmentStore(db),
		VectorIndex:    searchinfra.NewSQLiteVectorIndex(db, nil),
		Pool:           enricher.NewPool(&fakeGenerator{}, 1, nil),
		TrackerFactory: &fakeTrackerFactory{},
	})

	require.NoError(t, h.Execute(ctx, map[string]any{"repository_id": fx.repoID}))

	pending, err := states.PendingSnippetIDs(ctx, snippet.PhaseEnrichment, fx.snippetIDs)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Summaries exist but no vectors were written, so the embedding phase
	// must stay open for a later cycle.
	pending, err = states.PendingSnippetIDs(ctx, snippet.PhaseTextEmbedding, fx.snippetIDs)
	require.NoError(t, err)
	assert.ElementsMatch(t, fx.snippetIDs, pending)
}

func TestEnrichSnippets_EmbedsStoredSummaryBacklog(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	fx := seedEnrichFixture(t, db)
	states := persistence.NewSnippetStateStore(db)
	vectorIndex := searchinfra.NewSQLiteVectorIndex(db, nil)

	base := EnrichSnippetsParams{
		Branches:       persistence.NewBranchStore(db),
		Snippets:       persistence.NewSnippetStore(db),
		States:         states,
		Enrichments:    persistence.NewEnrichmentStore(db),
		VectorIndex:    vectorIndex,
		TrackerFactory: &fakeTrackerFactory{},
	}

	// First cycle: summaries get generated while no embedding endpoint is
	// configured.
	withoutEmbedder := base
	withoutEmbedder.Pool = enricher.NewPool(&fakeGenerator{}, 1, nil)
	require.NoError(t, NewEnrichSnippets(withoutEmbedder).Execute(ctx,
		map[string]any{"repository_id": fx.repoID}))

	// Second cycle: the embedder is configured but there is nothing left to
	// summarize. The stored summaries must still be embedded.
	embedder := &fakeEmbedder{}
	withEmbedder := base
	withEmbedder.Pool = enricher.NewPool(&fakeGenerator{}, 1, nil)
	withEmbedder.Embedder = embedder
	require.NoError(t, NewEnrichSnippets(withEmbedder).Execute(ctx,
		map[string]any{"repository_id": fx.repoID}))

	assert.Len(t, embedder.texts, len(fx.snippetIDs))

	pending, err := states.PendingSnippetIDs(ctx, snippet.PhaseTextEmbedding, fx.snippetIDs)
	require.NoError(t, err)
	assert.Empty(t, pending)

	have, err := vectorIndex.HasEmbeddings(ctx, search.EmbeddingTypeText, fx.snippetIDs)
	require.NoError(t, err)
	for _, id := range fx.snippetIDs {
		assert.True(t, have[id], "snippet %d", id)
	}
}

func TestEnrichSnippets_SkipsWhenNothingConfigured(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	fx := seedEnrichFixture(t, db)
	states := persistence.NewSnippetStateStore(db)

	h := NewEnrichSnippets(EnrichSnippetsParams{
		Branches:       persistence.NewBranchStore(db),
		Snippets:       persistence.NewSnippetStore(db),
		States:         states,
		Enrichments:    persistence.NewEnrichmentStore(db),
		VectorIndex:    searchinfra.NewSQLiteVectorIndex(db, nil),
		TrackerFactory: &fakeTrackerFactory{},
	})

	require.NoError(t, h.Execute(ctx, map[string]any{"repository_id": fx.repoID}))

	pending, err := states.PendingSnippetIDs(ctx, snippet.PhaseEnrichment, fx.snippetIDs)
	require.NoError(t, err)
	assert.ElementsMatch(t, fx.snippetIDs, pending)
}
