package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/repolens/repolens/domain/enrichment"
	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/search"
	"github.com/repolens/repolens/domain/snippet"
	"github.com/repolens/repolens/domain/task"
	"github.com/repolens/repolens/internal/database"
)

// WorkingCopies manages local clones of tracked repositories.
type WorkingCopies interface {
	Ensure(ctx context.Context, repo repository.Repository) (repository.Repository, error)
	Remove(repo repository.Repository) error
}

// RepositoryService manages the repository lifecycle: registration,
// re-indexing, and deletion with full cascade.
type RepositoryService struct {
	repos        repository.RepositoryStore
	commits      repository.CommitStore
	branches     repository.BranchStore
	tags         repository.TagStore
	files        repository.FileStore
	snippets     snippet.Store
	enrichments  enrichment.Store
	statuses     task.StatusStore
	keywordIndex search.KeywordIndex
	vectorIndex  search.VectorIndex
	workingCopy  WorkingCopies
	queue        *Queue
	indexing     *Indexing
	logger       *slog.Logger
}

// RepositoryServiceParams carries the dependencies of RepositoryService.
type RepositoryServiceParams struct {
	Repos        repository.RepositoryStore
	Commits      repository.CommitStore
	Branches     repository.BranchStore
	Tags         repository.TagStore
	Files        repository.FileStore
	Snippets     snippet.Store
	Enrichments  enrichment.Store
	Statuses     task.StatusStore
	KeywordIndex search.KeywordIndex
	VectorIndex  search.VectorIndex
	WorkingCopy  WorkingCopies
	Queue        *Queue
	Indexing     *Indexing
	Logger       *slog.Logger
}

// NewRepositoryService creates a RepositoryService.
func NewRepositoryService(p RepositoryServiceParams) *RepositoryService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RepositoryService{
		repos:        p.Repos,
		commits:      p.Commits,
		branches:     p.Branches,
		tags:         p.Tags,
		files:        p.Files,
		snippets:     p.Snippets,
		enrichments:  p.Enrichments,
		statuses:     p.Statuses,
		keywordIndex: p.KeywordIndex,
		vectorIndex:  p.VectorIndex,
		workingCopy:  p.WorkingCopy,
		queue:        p.Queue,
		indexing:     p.Indexing,
		logger:       logger,
	}
}

// Create registers a repository by remote URI and queues its first indexing
// cycle at user priority. Registering an already-tracked URI fails with
// ErrDuplicateRepository.
func (s *RepositoryService) Create(ctx context.Context, remoteURI string) (repository.Repository, error) {
	repo, err := repository.NewRepository(remoteURI)
	if err != nil {
		return repository.Repository{}, err
	}

	exists, err := s.repos.ExistsBySanitizedURI(ctx, repo.SanitizedRemoteURI())
	if err != nil {
		return repository.Repository{}, fmt.Errorf("check repository existence: %w", err)
	}
	if exists {
		return repository.Repository{}, fmt.Errorf("%w: %s", ErrDuplicateRepository, repo.SanitizedRemoteURI())
	}

	saved, err := s.repos.Save(ctx, repo)
	if err != nil {
		return repository.Repository{}, fmt.Errorf("save repository: %w", err)
	}

	if err := s.indexing.EnqueueCycle(ctx, saved.ID(), task.PriorityUserInitiated); err != nil {
		return saved, fmt.Errorf("enqueue indexing: %w", err)
	}

	s.logger.Info("repository registered",
		slog.Int64("id", saved.ID()),
		slog.String("uri", saved.SanitizedRemoteURI()),
	)
	return saved, nil
}

// Get returns a repository by ID.
func (s *RepositoryService) Get(ctx context.Context, id int64) (repository.Repository, error) {
	return s.repos.Get(ctx, id)
}

// List returns all tracked repositories.
func (s *RepositoryService) List(ctx context.Context) ([]repository.Repository, error) {
	return s.repos.Find(ctx)
}

// Sync queues a fresh indexing cycle for a repository at user priority.
func (s *RepositoryService) Sync(ctx context.Context, id int64) error {
	repo, err := s.repos.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.indexing.EnqueueCycle(ctx, repo.ID(), task.PriorityUserInitiated)
}

// RequestDelete queues repository deletion. The cascade runs on the worker
// so the API can answer immediately.
func (s *RepositoryService) RequestDelete(ctx context.Context, id int64) error {
	repo, err := s.repos.Get(ctx, id)
	if err != nil {
		return err
	}
	t := task.NewTask(task.OperationDeleteRepository, int(task.PriorityUserInitiated), map[string]any{
		"repository_id": repo.ID(),
	})
	return s.queue.Enqueue(ctx, t)
}

// Delete removes a repository and everything derived from it: pending
// tasks, snippets with their search index entries, enrichments, git
// metadata, progress nodes, and the working copy.
func (s *RepositoryService) Delete(ctx context.Context, id int64) error {
	repo, err := s.repos.Get(ctx, id)
	if err != nil {
		return err
	}

	drained, err := s.queue.DrainForRepository(ctx, id)
	if err != nil {
		return fmt.Errorf("drain queue: %w", err)
	}
	if drained > 0 {
		s.logger.Info("drained pending tasks", slog.Int64("repository_id", id), slog.Int("count", drained))
	}

	// Snippet SHAs are needed before deletion: enrichments target them.
	doomed, err := s.snippets.Find(ctx, snippetsOfRepository(id))
	if err != nil {
		return fmt.Errorf("find repository snippets: %w", err)
	}
	shas := make([]string, 0, len(doomed))
	for _, snip := range doomed {
		shas = append(shas, snip.SHA())
	}

	deletedIDs, err := s.snippets.DeleteByRepositoryID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete snippets: %w", err)
	}
	if err := s.purgeIndexes(ctx, deletedIDs); err != nil {
		return err
	}
	if len(shas) > 0 {
		if err := s.enrichments.DeleteByTargets(ctx, enrichment.TargetSnippet, shas); err != nil {
			return fmt.Errorf("delete snippet enrichments: %w", err)
		}
	}

	commits, err := s.commits.Find(ctx, repository.WithRepositoryID(id))
	if err != nil {
		return fmt.Errorf("find repository commits: %w", err)
	}
	if len(commits) > 0 {
		commitSHAs := make([]string, 0, len(commits))
		for _, c := range commits {
			commitSHAs = append(commitSHAs, c.SHA())
		}
		if err := s.enrichments.DeleteByTargets(ctx, enrichment.TargetCommit, commitSHAs); err != nil {
			return fmt.Errorf("delete commit enrichments: %w", err)
		}
	}

	if err := s.files.DeleteByRepositoryID(ctx, id); err != nil {
		return fmt.Errorf("delete files: %w", err)
	}
	if err := s.commits.DeleteByRepositoryID(ctx, id); err != nil {
		return fmt.Errorf("delete commits: %w", err)
	}
	if err := s.branches.DeleteByRepositoryID(ctx, id); err != nil {
		return fmt.Errorf("delete branches: %w", err)
	}
	if err := s.tags.DeleteByRepositoryID(ctx, id); err != nil {
		return fmt.Errorf("delete tags: %w", err)
	}
	if err := s.statuses.DeleteByTrackable(ctx, task.TrackableTypeRepository, id); err != nil {
		return fmt.Errorf("delete statuses: %w", err)
	}

	if err := s.workingCopy.Remove(repo); err != nil {
		// The rows are gone; a leftover clone directory is not worth
		// failing the whole deletion for.
		s.logger.Warn("failed to remove working copy",
			slog.Int64("repository_id", id),
			slog.String("error", err.Error()),
		)
	}

	if err := s.repos.Delete(ctx, repo); err != nil {
		return fmt.Errorf("delete repository: %w", err)
	}

	s.logger.Info("repository deleted",
		slog.Int64("id", id),
		slog.String("uri", repo.SanitizedRemoteURI()),
		slog.Int("snippets_removed", len(deletedIDs)),
	)
	return nil
}

// Statuses returns the progress tree of a repository.
func (s *RepositoryService) Statuses(ctx context.Context, id int64) ([]task.Status, error) {
	if _, err := s.repos.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.statuses.LoadWithHierarchy(ctx, task.TrackableTypeRepository, id)
}

// Branches returns the branches of a repository.
func (s *RepositoryService) Branches(ctx context.Context, id int64) ([]repository.Branch, error) {
	if _, err := s.repos.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.branches.Find(ctx, repository.WithRepositoryID(id))
}

// Tags returns the tags of a repository.
func (s *RepositoryService) Tags(ctx context.Context, id int64) ([]repository.Tag, error) {
	if _, err := s.repos.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.tags.Find(ctx, repository.WithRepositoryID(id))
}

// Commits returns the recorded commits of a repository, newest first.
func (s *RepositoryService) Commits(ctx context.Context, id int64, limit int) ([]repository.Commit, error) {
	if _, err := s.repos.Get(ctx, id); err != nil {
		return nil, err
	}
	options := []repository.Option{
		repository.WithRepositoryID(id),
		repository.WithOrderDesc("committed_at"),
	}
	if limit > 0 {
		options = append(options, repository.WithLimit(limit))
	}
	return s.commits.Find(ctx, options...)
}

// CommitSnippets returns the snippets of one commit with their enrichments
// inlined.
func (s *RepositoryService) CommitSnippets(ctx context.Context, id int64, commitSHA string) ([]snippet.Snippet, []enrichment.Enrichment, error) {
	if _, err := s.commits.GetBySHA(ctx, id, commitSHA); err != nil {
		return nil, nil, err
	}

	snippets, err := s.snippets.FindByCommitSHA(ctx, commitSHA)
	if err != nil {
		return nil, nil, err
	}
	if len(snippets) == 0 {
		return snippets, nil, nil
	}

	shas := make([]string, 0, len(snippets))
	for _, snip := range snippets {
		shas = append(shas, snip.SHA())
	}
	enrichments, err := s.enrichments.FindByTargets(ctx, enrichment.TargetSnippet, shas)
	if err != nil {
		return nil, nil, err
	}
	return snippets, enrichments, nil
}

// Commit returns one commit of a repository by SHA.
func (s *RepositoryService) Commit(ctx context.Context, id int64, commitSHA string) (repository.Commit, error) {
	if _, err := s.repos.Get(ctx, id); err != nil {
		return repository.Commit{}, err
	}
	return s.commits.GetBySHA(ctx, id, commitSHA)
}

// CommitFiles returns the files of one commit.
func (s *RepositoryService) CommitFiles(ctx context.Context, id int64, commitSHA string) ([]repository.File, error) {
	if _, err := s.commits.GetBySHA(ctx, id, commitSHA); err != nil {
		return nil, err
	}
	return s.files.FindByCommitSHA(ctx, commitSHA)
}

// CommitFile returns one file of a commit by blob SHA.
func (s *RepositoryService) CommitFile(ctx context.Context, id int64, commitSHA, blobSHA string) (repository.File, error) {
	files, err := s.CommitFiles(ctx, id, commitSHA)
	if err != nil {
		return repository.File{}, err
	}
	for _, file := range files {
		if file.BlobSHA() == blobSHA {
			return file, nil
		}
	}
	return repository.File{}, fmt.Errorf("file %s in commit %s: %w", blobSHA, commitSHA, database.ErrNotFound)
}

// CommitEnrichments returns the commit-scoped enrichment documents of one
// commit.
func (s *RepositoryService) CommitEnrichments(ctx context.Context, id int64, commitSHA string) ([]enrichment.Enrichment, error) {
	if _, err := s.commits.GetBySHA(ctx, id, commitSHA); err != nil {
		return nil, err
	}
	return s.enrichments.FindByTargets(ctx, enrichment.TargetCommit, []string{commitSHA})
}

func (s *RepositoryService) purgeIndexes(ctx context.Context, snippetIDs []int64) error {
	if len(snippetIDs) == 0 {
		return nil
	}
	if s.keywordIndex != nil {
		if err := s.keywordIndex.Delete(ctx, snippetIDs); err != nil {
			return fmt.Errorf("purge keyword index: %w", err)
		}
	}
	if s.vectorIndex != nil {
		if err := s.vectorIndex.Delete(ctx, snippetIDs); err != nil {
			return fmt.Errorf("purge vector index: %w", err)
		}
	}
	return nil
}

// snippetsOfRepository selects snippets derived from any file of the
// repository.
func snippetsOfRepository(repositoryID int64) repository.Option {
	return repository.WithWhere(
		"id IN (SELECT snippet_id FROM snippet_derivations WHERE file_id IN (SELECT id FROM files WHERE repository_id = ?))",
		repositoryID,
	)
}
