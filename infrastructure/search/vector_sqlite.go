package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/repolens/repolens/domain/search"
	"github.com/repolens/repolens/infrastructure/persistence"
	"github.com/repolens/repolens/internal/database"
	"gorm.io/gorm/clause"
)

// SQLiteVectorIndex implements search.VectorIndex for SQLite. Embeddings
// live in the migrated embeddings table as JSON and similarity search runs
// in process, which is plenty for single-node corpora.
type SQLiteVectorIndex struct {
	db     database.Database
	logger *slog.Logger
}

// NewSQLiteVectorIndex creates a new SQLiteVectorIndex.
func NewSQLiteVectorIndex(db database.Database, logger *slog.Logger) *SQLiteVectorIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteVectorIndex{db: db, logger: logger}
}

// Index stores embeddings for documents of the given type, replacing any
// existing vectors for the same snippets.
func (s *SQLiteVectorIndex) Index(ctx context.Context, embeddingType search.EmbeddingType, documents []search.Document, vectors [][]float64) error {
	if len(documents) == 0 {
		return nil
	}
	if len(documents) != len(vectors) {
		return fmt.Errorf("embedding count mismatch: %d documents, %d vectors", len(documents), len(vectors))
	}

	now := time.Now()
	models := make([]persistence.EmbeddingModel, 0, len(documents))
	for i, doc := range documents {
		if len(vectors[i]) == 0 {
			s.logger.Warn("skipping empty embedding", "snippet_id", doc.SnippetID())
			continue
		}
		models = append(models, persistence.EmbeddingModel{
			SnippetID: doc.SnippetID(),
			Type:      string(embeddingType),
			Embedding: persistence.Float64Slice(vectors[i]),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if len(models) == 0 {
		return nil
	}

	result := s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "snippet_id"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"embedding", "updated_at"}),
	}).Create(&models)
	if result.Error != nil {
		return fmt.Errorf("save embeddings: %w", result.Error)
	}
	return nil
}

// Search performs cosine similarity search over the given embedding space.
func (s *SQLiteVectorIndex) Search(ctx context.Context, embeddingType search.EmbeddingType, vector []float64, limit int) ([]search.Result, error) {
	if len(vector) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	var models []persistence.EmbeddingModel
	err := s.db.Session(ctx).
		Where("type = ?", string(embeddingType)).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}

	vectors := make([]StoredVector, 0, len(models))
	for _, model := range models {
		if len(model.Embedding) == 0 {
			s.logger.Warn("skipping empty embedding", "snippet_id", model.SnippetID)
			continue
		}
		vectors = append(vectors, NewStoredVector(model.SnippetID, model.Embedding))
	}

	return TopKSimilar(vector, vectors, limit), nil
}

// HasEmbeddings reports which of the given snippet IDs already have an
// embedding of the given type.
func (s *SQLiteVectorIndex) HasEmbeddings(ctx context.Context, embeddingType search.EmbeddingType, snippetIDs []int64) (map[int64]bool, error) {
	if len(snippetIDs) == 0 {
		return map[int64]bool{}, nil
	}

	var found []int64
	err := s.db.Session(ctx).Model(&persistence.EmbeddingModel{}).
		Where("type = ? AND snippet_id IN ?", string(embeddingType), snippetIDs).
		Pluck("snippet_id", &found).Error
	if err != nil {
		return nil, fmt.Errorf("check embeddings: %w", err)
	}

	result := make(map[int64]bool, len(found))
	for _, id := range found {
		result[id] = true
	}
	return result, nil
}

// Delete removes embeddings for the given snippet IDs in all spaces.
func (s *SQLiteVectorIndex) Delete(ctx context.Context, snippetIDs []int64) error {
	if len(snippetIDs) == 0 {
		return nil
	}
	err := s.db.Session(ctx).
		Where("snippet_id IN ?", snippetIDs).
		Delete(&persistence.EmbeddingModel{}).Error
	if err != nil {
		return fmt.Errorf("delete embeddings: %w", err)
	}
	return nil
}
