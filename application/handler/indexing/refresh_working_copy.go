package indexing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/repolens/repolens/application/handler"
	"github.com/repolens/repolens/application/service"
	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/task"
)

// RefreshWorkingCopy clones or pulls the repository and records its git
// metadata: branches, tags, default-branch commits, and the files of the
// head commit. When the head commit is already fully recorded, the rest of
// the indexing cycle is drained from the queue.
type RefreshWorkingCopy struct {
	repos          repository.RepositoryStore
	commits        repository.CommitStore
	branches       repository.BranchStore
	tags           repository.TagStore
	files          repository.FileStore
	workingCopies  WorkingCopies
	scanner        Scanner
	queue          *service.Queue
	trackerFactory handler.TrackerFactory
	logger         *slog.Logger
}

// RefreshWorkingCopyParams carries the handler's dependencies.
type RefreshWorkingCopyParams struct {
	Repos          repository.RepositoryStore
	Commits        repository.CommitStore
	Branches       repository.BranchStore
	Tags           repository.TagStore
	Files          repository.FileStore
	WorkingCopies  WorkingCopies
	Scanner        Scanner
	Queue          *service.Queue
	TrackerFactory handler.TrackerFactory
	Logger         *slog.Logger
}

// NewRefreshWorkingCopy creates the handler.
func NewRefreshWorkingCopy(p RefreshWorkingCopyParams) *RefreshWorkingCopy {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshWorkingCopy{
		repos:          p.Repos,
		commits:        p.Commits,
		branches:       p.Branches,
		tags:           p.Tags,
		files:          p.Files,
		workingCopies:  p.WorkingCopies,
		scanner:        p.Scanner,
		queue:          p.Queue,
		trackerFactory: p.TrackerFactory,
		logger:         logger,
	}
}

// Execute processes the refresh_working_copy phase.
func (h *RefreshWorkingCopy) Execute(ctx context.Context, payload map[string]any) (err error) {
	repoID, err := handler.RepositoryID(payload)
	if err != nil {
		return err
	}

	tracker := h.trackerFactory.ForOperation(task.OperationRefreshWorkingCopy, task.TrackableTypeRepository, repoID)
	defer func() { tracker.Finish(ctx, err) }()

	repo, err := h.repos.Get(ctx, repoID)
	if err != nil {
		return fmt.Errorf("get repository: %w", err)
	}

	repo, err = h.workingCopies.Ensure(ctx, repo)
	if err != nil {
		return fmt.Errorf("ensure working copy: %w", err)
	}
	if repo, err = h.repos.Save(ctx, repo); err != nil {
		return fmt.Errorf("save repository: %w", err)
	}
	clonePath := repo.WorkingCopy().Path()

	branchName, commits, err := h.scanner.ScanDefaultBranchCommits(ctx, clonePath, repoID)
	if err != nil {
		return fmt.Errorf("scan commits: %w", err)
	}
	if len(commits) == 0 {
		tracker.Skip(ctx, "repository has no commits")
		return h.drainCycle(ctx, repoID)
	}
	head := commits[0]

	unchanged, err := h.headRecorded(ctx, repo, head.SHA())
	if err != nil {
		return err
	}
	if unchanged {
		h.logger.Info("working copy unchanged",
			slog.Int64("repository_id", repoID),
			slog.String("head", handler.ShortSHA(head.SHA())),
		)
		tracker.Skip(ctx, "working copy unchanged")
		return h.drainCycle(ctx, repoID)
	}

	tracker.SetTotal(ctx, 4)

	if _, err = h.commits.SaveAll(ctx, commits); err != nil {
		return fmt.Errorf("save commits: %w", err)
	}
	tracker.SetCurrent(ctx, 1, fmt.Sprintf("recorded %d commits on %s", len(commits), branchName))

	branches, err := h.scanner.ScanBranches(ctx, clonePath, repoID)
	if err != nil {
		return fmt.Errorf("scan branches: %w", err)
	}
	if _, err = h.branches.SaveAll(ctx, branches); err != nil {
		return fmt.Errorf("save branches: %w", err)
	}

	tags, err := h.scanner.ScanTags(ctx, clonePath, repoID)
	if err != nil {
		return fmt.Errorf("scan tags: %w", err)
	}
	if _, err = h.tags.SaveAll(ctx, tags); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	tracker.SetCurrent(ctx, 2, fmt.Sprintf("recorded %d branches, %d tags", len(branches), len(tags)))

	files, err := h.scanner.ScanCommitFiles(ctx, clonePath, head.SHA(), repoID)
	if err != nil {
		return fmt.Errorf("scan files: %w", err)
	}
	saved, err := h.files.SaveAll(ctx, files)
	if err != nil {
		return fmt.Errorf("save files: %w", err)
	}
	fileIDs := make([]int64, len(saved))
	for i, f := range saved {
		fileIDs[i] = f.ID()
	}
	if err = h.files.LinkToCommit(ctx, head.SHA(), fileIDs); err != nil {
		return fmt.Errorf("link files to commit: %w", err)
	}
	tracker.SetCurrent(ctx, 3, fmt.Sprintf("recorded %d files", len(saved)))

	if _, err = h.repos.Save(ctx, repo.WithLastIndexedAt(time.Now().UTC())); err != nil {
		return fmt.Errorf("mark repository indexed: %w", err)
	}
	tracker.SetCurrent(ctx, 4, "working copy refreshed")
	return nil
}

// headRecorded reports whether the head commit and its file list are
// already in the store from a previous completed cycle.
func (h *RefreshWorkingCopy) headRecorded(ctx context.Context, repo repository.Repository, headSHA string) (bool, error) {
	if repo.LastIndexedAt() == nil {
		return false, nil
	}
	if _, err := h.commits.GetBySHA(ctx, repo.ID(), headSHA); err != nil {
		return false, nil
	}
	files, err := h.files.FindByCommitSHA(ctx, headSHA)
	if err != nil {
		return false, fmt.Errorf("check head files: %w", err)
	}
	return len(files) > 0, nil
}

// drainCycle removes the remaining phases of this indexing cycle. Nothing
// downstream has work to do when the refresh was skipped.
func (h *RefreshWorkingCopy) drainCycle(ctx context.Context, repositoryID int64) error {
	removed, err := h.queue.DrainForRepository(ctx, repositoryID)
	if err != nil {
		return fmt.Errorf("drain cycle: %w", err)
	}
	if removed > 0 {
		h.logger.Debug("drained indexing cycle",
			slog.Int64("repository_id", repositoryID),
			slog.Int("tasks", removed),
		)
	}
	return nil
}
