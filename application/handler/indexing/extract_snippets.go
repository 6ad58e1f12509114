package indexing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/repolens/repolens/application/handler"
	"github.com/repolens/repolens/application/service"
	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/snippet"
	"github.com/repolens/repolens/domain/task"
)

// ExtractSnippets slices the head commit's files into content-addressed
// snippets and queues the commit-scoped enrichment operations.
type ExtractSnippets struct {
	repos          repository.RepositoryStore
	branches       repository.BranchStore
	files          repository.FileStore
	snippets       snippet.Store
	slicer         Slicer
	indexing       *service.Indexing
	trackerFactory handler.TrackerFactory
	logger         *slog.Logger
}

// NewExtractSnippets creates the handler.
func NewExtractSnippets(
	repos repository.RepositoryStore,
	branches repository.BranchStore,
	files repository.FileStore,
	snippets snippet.Store,
	slicer Slicer,
	indexing *service.Indexing,
	trackerFactory handler.TrackerFactory,
	logger *slog.Logger,
) *ExtractSnippets {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractSnippets{
		repos:          repos,
		branches:       branches,
		files:          files,
		snippets:       snippets,
		slicer:         slicer,
		indexing:       indexing,
		trackerFactory: trackerFactory,
		logger:         logger,
	}
}

// Execute processes the extract_snippets phase.
func (h *ExtractSnippets) Execute(ctx context.Context, payload map[string]any) (err error) {
	repoID, err := handler.RepositoryID(payload)
	if err != nil {
		return err
	}

	tracker := h.trackerFactory.ForOperation(task.OperationExtractSnippets, task.TrackableTypeRepository, repoID)
	defer func() { tracker.Finish(ctx, err) }()

	repo, err := h.repos.Get(ctx, repoID)
	if err != nil {
		return fmt.Errorf("get repository: %w", err)
	}
	if !repo.HasWorkingCopy() {
		tracker.Skip(ctx, "no working copy")
		return nil
	}

	headSHA, err := headCommitSHA(ctx, h.branches, repoID)
	if err != nil {
		tracker.Skip(ctx, "no default branch recorded")
		return nil
	}

	files, err := h.files.FindByCommitSHA(ctx, headSHA)
	if err != nil {
		return fmt.Errorf("load commit files: %w", err)
	}
	if len(files) == 0 {
		tracker.Skip(ctx, "head commit has no files")
		return nil
	}

	tracker.SetTotal(ctx, len(files))

	sliced, err := h.slicer.Slice(ctx, repo.WorkingCopy().Path(), files)
	if err != nil {
		return fmt.Errorf("slice files: %w", err)
	}
	tracker.SetCurrent(ctx, len(files), fmt.Sprintf("extracted %d snippets", len(sliced)))

	if _, err = h.snippets.SaveAll(ctx, headSHA, sliced); err != nil {
		return fmt.Errorf("save snippets: %w", err)
	}

	if err = h.indexing.EnqueueCommitEnrichments(ctx, repoID, headSHA, task.PriorityNormal); err != nil {
		return fmt.Errorf("enqueue commit enrichments: %w", err)
	}

	h.logger.Info("snippets extracted",
		slog.Int64("repository_id", repoID),
		slog.String("commit", handler.ShortSHA(headSHA)),
		slog.Int("count", len(sliced)),
	)
	return nil
}

// headCommitSHA resolves the head commit of the repository's default
// branch.
func headCommitSHA(ctx context.Context, branches repository.BranchStore, repositoryID int64) (string, error) {
	branch, err := branches.GetDefault(ctx, repositoryID)
	if err != nil {
		return "", err
	}
	return branch.HeadCommitSHA(), nil
}
