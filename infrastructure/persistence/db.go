package persistence

import (
	"fmt"

	"github.com/repolens/repolens/internal/database"
)

// models lists every table owned by this package, in migration order.
func models() []any {
	return []any{
		&RepositoryModel{},
		&CommitModel{},
		&BranchModel{},
		&TagModel{},
		&FileModel{},
		&CommitFileModel{},
		&SnippetModel{},
		&SnippetDerivationModel{},
		&SnippetStateModel{},
		&EnrichmentModel{},
		&EmbeddingModel{},
		&TaskModel{},
		&TaskStatusModel{},
	}
}

// AutoMigrate creates or updates the schema for all models.
func AutoMigrate(db database.Database) error {
	if err := db.GORM().AutoMigrate(models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
