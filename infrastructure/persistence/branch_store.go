package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/internal/database"
)

// BranchStore implements repository.BranchStore on GORM.
type BranchStore struct {
	repo database.Repository[repository.Branch, BranchModel]
}

// NewBranchStore creates a new BranchStore.
func NewBranchStore(db database.Database) *BranchStore {
	return &BranchStore{
		repo: database.NewRepository[repository.Branch, BranchModel](db, BranchMapper{}, "branch"),
	}
}

// Find retrieves branches matching the given options.
func (s *BranchStore) Find(ctx context.Context, options ...repository.Option) ([]repository.Branch, error) {
	return s.repo.Find(ctx, options...)
}

// Save upserts a branch by (repository, name). Existing branches keep
// their ID; the head commit and default flag follow the remote.
func (s *BranchStore) Save(ctx context.Context, branch repository.Branch) (repository.Branch, error) {
	existing, err := s.repo.FindOne(ctx,
		repository.WithRepositoryID(branch.RepositoryID()),
		repository.WithName(branch.Name()),
	)
	switch {
	case err == nil:
		branch = branch.WithID(existing.ID())
	case !errors.Is(err, database.ErrNotFound):
		return repository.Branch{}, err
	}

	model := s.repo.Mapper().ToModel(branch)
	if model.ID == 0 {
		if err := s.repo.DB(ctx).Create(&model).Error; err != nil {
			return repository.Branch{}, fmt.Errorf("create branch: %w", err)
		}
		return branch.WithID(model.ID), nil
	}
	if err := s.repo.DB(ctx).Save(&model).Error; err != nil {
		return repository.Branch{}, fmt.Errorf("update branch: %w", err)
	}
	return branch, nil
}

// SaveAll upserts a batch of branches.
func (s *BranchStore) SaveAll(ctx context.Context, branches []repository.Branch) ([]repository.Branch, error) {
	saved := make([]repository.Branch, len(branches))
	for i, branch := range branches {
		result, err := s.Save(ctx, branch)
		if err != nil {
			return nil, err
		}
		saved[i] = result
	}
	return saved, nil
}

// GetDefault retrieves the default branch for a repository.
func (s *BranchStore) GetDefault(ctx context.Context, repositoryID int64) (repository.Branch, error) {
	return s.repo.FindOne(ctx, repository.WithRepositoryID(repositoryID), repository.WithDefault())
}

// DeleteByRepositoryID removes all branches for a repository.
func (s *BranchStore) DeleteByRepositoryID(ctx context.Context, repositoryID int64) error {
	return s.repo.DeleteBy(ctx, repository.WithRepositoryID(repositoryID))
}
