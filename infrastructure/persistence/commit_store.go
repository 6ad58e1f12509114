package persistence

import (
	"context"
	"fmt"

	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/internal/database"
	"gorm.io/gorm/clause"
)

// CommitStore implements repository.CommitStore on GORM.
type CommitStore struct {
	repo database.Repository[repository.Commit, CommitModel]
}

// NewCommitStore creates a new CommitStore.
func NewCommitStore(db database.Database) *CommitStore {
	return &CommitStore{
		repo: database.NewRepository[repository.Commit, CommitModel](db, CommitMapper{}, "commit"),
	}
}

// Get retrieves a commit by ID.
func (s *CommitStore) Get(ctx context.Context, id int64) (repository.Commit, error) {
	return s.repo.FindOne(ctx, repository.WithID(id))
}

// Find retrieves commits matching the given options.
func (s *CommitStore) Find(ctx context.Context, options ...repository.Option) ([]repository.Commit, error) {
	return s.repo.Find(ctx, options...)
}

// Save creates or updates a commit. Commits are immutable once recorded, so
// an existing (repository, SHA) row is returned unchanged.
func (s *CommitStore) Save(ctx context.Context, commit repository.Commit) (repository.Commit, error) {
	saved, err := s.SaveAll(ctx, []repository.Commit{commit})
	if err != nil {
		return repository.Commit{}, err
	}
	return saved[0], nil
}

// SaveAll inserts commits, skipping (repository, SHA) pairs already
// recorded. Returned commits carry database IDs.
func (s *CommitStore) SaveAll(ctx context.Context, commits []repository.Commit) ([]repository.Commit, error) {
	if len(commits) == 0 {
		return nil, nil
	}

	models := make([]CommitModel, len(commits))
	for i, commit := range commits {
		models[i] = s.repo.Mapper().ToModel(commit)
	}

	result := s.repo.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "repository_id"}, {Name: "sha"}},
		DoNothing: true,
	}).Create(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("save commits: %w", result.Error)
	}

	// Conflicting rows keep their original IDs, so re-read the batch.
	saved := make([]repository.Commit, len(commits))
	for i, commit := range commits {
		found, err := s.GetBySHA(ctx, commit.RepositoryID(), commit.SHA())
		if err != nil {
			return nil, err
		}
		saved[i] = found
	}
	return saved, nil
}

// GetBySHA retrieves a commit by repository and SHA.
func (s *CommitStore) GetBySHA(ctx context.Context, repositoryID int64, sha string) (repository.Commit, error) {
	return s.repo.FindOne(ctx, repository.WithRepositoryID(repositoryID), repository.WithSHA(sha))
}

// DeleteByRepositoryID removes all commits for a repository.
func (s *CommitStore) DeleteByRepositoryID(ctx context.Context, repositoryID int64) error {
	return s.repo.DeleteBy(ctx, repository.WithRepositoryID(repositoryID))
}
