package persistence

import (
	"context"
	"fmt"

	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/internal/database"
)

// RepositoryStore implements repository.RepositoryStore on GORM.
type RepositoryStore struct {
	repo database.Repository[repository.Repository, RepositoryModel]
}

// NewRepositoryStore creates a new RepositoryStore.
func NewRepositoryStore(db database.Database) *RepositoryStore {
	return &RepositoryStore{
		repo: database.NewRepository[repository.Repository, RepositoryModel](db, RepositoryMapper{}, "repository"),
	}
}

// Get retrieves a repository by ID.
func (s *RepositoryStore) Get(ctx context.Context, id int64) (repository.Repository, error) {
	return s.repo.FindOne(ctx, repository.WithID(id))
}

// Find retrieves repositories matching the given options.
func (s *RepositoryStore) Find(ctx context.Context, options ...repository.Option) ([]repository.Repository, error) {
	return s.repo.Find(ctx, options...)
}

// Save creates or updates a repository.
func (s *RepositoryStore) Save(ctx context.Context, repo repository.Repository) (repository.Repository, error) {
	model := s.repo.Mapper().ToModel(repo)
	if model.ID == 0 {
		if err := s.repo.DB(ctx).Create(&model).Error; err != nil {
			return repository.Repository{}, fmt.Errorf("create repository: %w", err)
		}
		return repo.WithID(model.ID), nil
	}
	if err := s.repo.DB(ctx).Save(&model).Error; err != nil {
		return repository.Repository{}, fmt.Errorf("update repository: %w", err)
	}
	return repo, nil
}

// Delete removes a repository row. Dependent rows are removed by the
// deletion workflow, not by cascade.
func (s *RepositoryStore) Delete(ctx context.Context, repo repository.Repository) error {
	return s.repo.DeleteBy(ctx, repository.WithID(repo.ID()))
}

// GetBySanitizedURI retrieves a repository by its sanitized remote URI.
func (s *RepositoryStore) GetBySanitizedURI(ctx context.Context, uri string) (repository.Repository, error) {
	return s.repo.FindOne(ctx, repository.WithSanitizedURI(uri))
}

// ExistsBySanitizedURI checks whether a repository with the sanitized
// remote URI is already tracked.
func (s *RepositoryStore) ExistsBySanitizedURI(ctx context.Context, uri string) (bool, error) {
	return s.repo.Exists(ctx, repository.WithSanitizedURI(uri))
}
