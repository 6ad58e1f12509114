package persistence

import (
	"context"
	"fmt"

	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/internal/database"
	"gorm.io/gorm/clause"
)

// FileStore implements repository.FileStore on GORM.
type FileStore struct {
	repo database.Repository[repository.File, FileModel]
}

// NewFileStore creates a new FileStore.
func NewFileStore(db database.Database) *FileStore {
	return &FileStore{
		repo: database.NewRepository[repository.File, FileModel](db, FileMapper{}, "file"),
	}
}

// Get retrieves a file by ID.
func (s *FileStore) Get(ctx context.Context, id int64) (repository.File, error) {
	return s.repo.FindOne(ctx, repository.WithID(id))
}

// Find retrieves files matching the given options.
func (s *FileStore) Find(ctx context.Context, options ...repository.Option) ([]repository.File, error) {
	return s.repo.Find(ctx, options...)
}

// SaveAll inserts file blobs, skipping (repository, blob, path) rows
// already recorded. Blobs are content-addressed so existing rows never
// change. Returned files carry database IDs.
func (s *FileStore) SaveAll(ctx context.Context, files []repository.File) ([]repository.File, error) {
	if len(files) == 0 {
		return nil, nil
	}

	models := make([]FileModel, len(files))
	for i, file := range files {
		models[i] = s.repo.Mapper().ToModel(file)
	}

	result := s.repo.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "repository_id"}, {Name: "blob_sha"}, {Name: "path"}},
		DoNothing: true,
	}).Create(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("save files: %w", result.Error)
	}

	saved := make([]repository.File, len(files))
	for i, file := range files {
		found, err := s.repo.FindOne(ctx,
			repository.WithRepositoryID(file.RepositoryID()),
			repository.WithBlobSHA(file.BlobSHA()),
			repository.WithCondition("path", file.Path()),
		)
		if err != nil {
			return nil, err
		}
		saved[i] = found
	}
	return saved, nil
}

// FindByCommitSHA retrieves the files linked to a commit.
func (s *FileStore) FindByCommitSHA(ctx context.Context, commitSHA string) ([]repository.File, error) {
	var models []FileModel
	err := s.repo.DB(ctx).
		Joins("JOIN commit_files ON commit_files.file_id = files.id").
		Where("commit_files.commit_sha = ?", commitSHA).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("find files for commit: %w", err)
	}

	files := make([]repository.File, len(models))
	for i, model := range models {
		files[i] = s.repo.Mapper().ToDomain(model)
	}
	return files, nil
}

// LinkToCommit records which file blobs make up a commit's tree. Existing
// links are kept.
func (s *FileStore) LinkToCommit(ctx context.Context, commitSHA string, fileIDs []int64) error {
	if len(fileIDs) == 0 {
		return nil
	}

	links := make([]CommitFileModel, len(fileIDs))
	for i, fileID := range fileIDs {
		links[i] = CommitFileModel{CommitSHA: commitSHA, FileID: fileID}
	}

	result := s.repo.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "commit_sha"}, {Name: "file_id"}},
		DoNothing: true,
	}).Create(&links)
	if result.Error != nil {
		return fmt.Errorf("link files to commit: %w", result.Error)
	}
	return nil
}

// DeleteByRepositoryID removes all files for a repository along with their
// commit links.
func (s *FileStore) DeleteByRepositoryID(ctx context.Context, repositoryID int64) error {
	err := s.repo.DB(ctx).
		Where("file_id IN (?)",
			s.repo.DB(ctx).Model(&FileModel{}).Select("id").Where("repository_id = ?", repositoryID),
		).
		Delete(&CommitFileModel{}).Error
	if err != nil {
		return fmt.Errorf("delete commit file links: %w", err)
	}
	return s.repo.DeleteBy(ctx, repository.WithRepositoryID(repositoryID))
}
