package indexing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/repolens/repolens/application/handler"
	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/search"
	"github.com/repolens/repolens/domain/snippet"
	"github.com/repolens/repolens/domain/task"
	searchinfra "github.com/repolens/repolens/infrastructure/search"
)

// CreateBM25Index writes keyword documents for every snippet of the head
// commit that has not passed the bm25 phase yet. Identifiers are expanded
// into their constituent words so "parseConfigFile" matches "parse config".
type CreateBM25Index struct {
	branches       repository.BranchStore
	snippets       snippet.Store
	states         snippet.StateStore
	keywordIndex   search.KeywordIndex
	trackerFactory handler.TrackerFactory
	logger         *slog.Logger
}

// NewCreateBM25Index creates the handler.
func NewCreateBM25Index(
	branches repository.BranchStore,
	snippets snippet.Store,
	states snippet.StateStore,
	keywordIndex search.KeywordIndex,
	trackerFactory handler.TrackerFactory,
	logger *slog.Logger,
) *CreateBM25Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateBM25Index{
		branches:       branches,
		snippets:       snippets,
		states:         states,
		keywordIndex:   keywordIndex,
		trackerFactory: trackerFactory,
		logger:         logger,
	}
}

// Execute processes the create_bm25_index phase.
func (h *CreateBM25Index) Execute(ctx context.Context, payload map[string]any) (err error) {
	repoID, err := handler.RepositoryID(payload)
	if err != nil {
		return err
	}

	tracker := h.trackerFactory.ForOperation(task.OperationCreateBM25Index, task.TrackableTypeRepository, repoID)
	defer func() { tracker.Finish(ctx, err) }()

	pending, byID, err := pendingSnippets(ctx, h.branches, h.snippets, h.states, repoID, snippet.PhaseBM25)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		tracker.Skip(ctx, "all snippets indexed")
		return nil
	}

	tracker.SetTotal(ctx, len(pending))

	documents := make([]search.Document, 0, len(pending))
	for _, id := range pending {
		snip := byID[id]
		passage := searchinfra.ExpandIdentifiers(snip.Name() + "\n" + snip.Content())
		documents = append(documents, search.NewDocument(id, passage))
	}

	if err = h.keywordIndex.Index(ctx, documents); err != nil {
		return fmt.Errorf("index documents: %w", err)
	}
	if err = markCompleted(ctx, h.states, pending, snippet.PhaseBM25); err != nil {
		return err
	}

	tracker.SetCurrent(ctx, len(pending), "keyword index updated")
	h.logger.Info("bm25 index created",
		slog.Int64("repository_id", repoID),
		slog.Int("documents", len(documents)),
	)
	return nil
}

// pendingSnippets loads the head commit's snippets and filters them down
// to those that have not completed the given phase.
func pendingSnippets(
	ctx context.Context,
	branches repository.BranchStore,
	snippets snippet.Store,
	states snippet.StateStore,
	repositoryID int64,
	phase snippet.Phase,
) ([]int64, map[int64]snippet.Snippet, error) {
	headSHA, err := headCommitSHA(ctx, branches, repositoryID)
	if err != nil {
		return nil, nil, nil
	}

	all, err := snippets.FindByCommitSHA(ctx, headSHA)
	if err != nil {
		return nil, nil, fmt.Errorf("load commit snippets: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}

	ids := make([]int64, len(all))
	byID := make(map[int64]snippet.Snippet, len(all))
	for i, snip := range all {
		ids[i] = snip.ID()
		byID[snip.ID()] = snip
	}

	pending, err := states.PendingSnippetIDs(ctx, phase, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve pending snippets: %w", err)
	}
	return pending, byID, nil
}

// markCompleted records phase completion for a set of snippets.
func markCompleted(ctx context.Context, states snippet.StateStore, ids []int64, phase snippet.Phase) error {
	completed := make([]snippet.State, len(ids))
	for i, id := range ids {
		completed[i] = snippet.NewState(id, phase).Completed()
	}
	if err := states.Upsert(ctx, completed); err != nil {
		return fmt.Errorf("mark %s completed: %w", phase, err)
	}
	return nil
}
