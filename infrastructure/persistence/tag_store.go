package persistence

import (
	"context"
	"fmt"

	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/internal/database"
	"gorm.io/gorm/clause"
)

// TagStore implements repository.TagStore on GORM.
type TagStore struct {
	repo database.Repository[repository.Tag, TagModel]
}

// NewTagStore creates a new TagStore.
func NewTagStore(db database.Database) *TagStore {
	return &TagStore{
		repo: database.NewRepository[repository.Tag, TagModel](db, TagMapper{}, "tag"),
	}
}

// Find retrieves tags matching the given options.
func (s *TagStore) Find(ctx context.Context, options ...repository.Option) ([]repository.Tag, error) {
	return s.repo.Find(ctx, options...)
}

// SaveAll inserts tags, skipping (repository, name) pairs already recorded.
// Tags never move once recorded; a re-pointed remote tag keeps its first
// observed commit.
func (s *TagStore) SaveAll(ctx context.Context, tags []repository.Tag) ([]repository.Tag, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	models := make([]TagModel, len(tags))
	for i, tag := range tags {
		models[i] = s.repo.Mapper().ToModel(tag)
	}

	result := s.repo.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "repository_id"}, {Name: "name"}},
		DoNothing: true,
	}).Create(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("save tags: %w", result.Error)
	}

	saved := make([]repository.Tag, len(tags))
	for i, tag := range tags {
		found, err := s.repo.FindOne(ctx,
			repository.WithRepositoryID(tag.RepositoryID()),
			repository.WithName(tag.Name()),
		)
		if err != nil {
			return nil, err
		}
		saved[i] = found
	}
	return saved, nil
}

// DeleteByRepositoryID removes all tags for a repository.
func (s *TagStore) DeleteByRepositoryID(ctx context.Context, repositoryID int64) error {
	return s.repo.DeleteBy(ctx, repository.WithRepositoryID(repositoryID))
}
