package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/repolens/repolens/domain/search"
	"github.com/repolens/repolens/internal/database"
	"gorm.io/gorm"
)

// SQL templates for VectorChord vector search. Each embedding space gets
// its own table, so %s is the per-type table name.
const (
	vcVectorCreateIndexTemplate = `
CREATE INDEX IF NOT EXISTS %s_idx
ON %s
USING vchordrq (embedding vector_cosine_ops) WITH (options = $$
residual_quantization = true
[build.internal]
lists = []
$$)`

	vcVectorInsertTemplate = `
INSERT INTO %s (snippet_id, embedding)
VALUES (?, ?)
ON CONFLICT (snippet_id) DO UPDATE
SET embedding = EXCLUDED.embedding`

	vcVectorSearchTemplate = `
SELECT snippet_id, embedding <=> ? AS score
FROM %s
ORDER BY score ASC
LIMIT ?`

	vcVectorExistingTemplate = `SELECT snippet_id FROM %s WHERE snippet_id IN ?`

	vcVectorDeleteTemplate = `DELETE FROM %s WHERE snippet_id IN ?`

	vcVectorTableExistsQuery = `SELECT to_regclass(?) IS NOT NULL`
)

// ErrVectorChordVectorInit indicates VectorChord vector initialization failed.
var ErrVectorChordVectorInit = errors.New("initialize vectorchord vector index")

// VectorChordVectorIndex implements search.VectorIndex on the VectorChord
// PostgreSQL extension. Tables are created lazily on first Index because
// the column dimension comes from the vectors themselves.
type VectorChordVectorIndex struct {
	db     database.Database
	logger *slog.Logger
	ready  map[string]bool
	mu     sync.Mutex
}

// NewVectorChordVectorIndex creates a new VectorChordVectorIndex.
func NewVectorChordVectorIndex(db database.Database, logger *slog.Logger) *VectorChordVectorIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorChordVectorIndex{db: db, logger: logger, ready: map[string]bool{}}
}

func vectorTableName(embeddingType search.EmbeddingType) string {
	return fmt.Sprintf("repolens_%s_embeddings", embeddingType)
}

func (s *VectorChordVectorIndex) ensureTable(ctx context.Context, table string, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready[table] {
		return nil
	}

	db := s.db.Session(ctx)
	if err := db.Exec(vcCreateVChordExtension).Error; err != nil {
		return errors.Join(ErrVectorChordVectorInit, err)
	}

	createTableSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id SERIAL PRIMARY KEY,
    snippet_id BIGINT NOT NULL UNIQUE,
    embedding VECTOR(%d) NOT NULL
)`, table, dimension)
	if err := db.Exec(createTableSQL).Error; err != nil {
		return errors.Join(ErrVectorChordVectorInit, err)
	}

	indexSQL := fmt.Sprintf(vcVectorCreateIndexTemplate, table, table)
	if err := db.Exec(indexSQL).Error; err != nil {
		return errors.Join(ErrVectorChordVectorInit, err)
	}

	s.ready[table] = true
	return nil
}

func (s *VectorChordVectorIndex) tableExists(ctx context.Context, table string) (bool, error) {
	s.mu.Lock()
	if s.ready[table] {
		s.mu.Unlock()
		return true, nil
	}
	s.mu.Unlock()

	var exists bool
	err := s.db.Session(ctx).Raw(vcVectorTableExistsQuery, table).Scan(&exists).Error
	if err != nil {
		return false, fmt.Errorf("check vector table: %w", err)
	}
	return exists, nil
}

// Index stores embeddings for documents of the given type.
func (s *VectorChordVectorIndex) Index(ctx context.Context, embeddingType search.EmbeddingType, documents []search.Document, vectors [][]float64) error {
	if len(documents) == 0 {
		return nil
	}
	if len(documents) != len(vectors) {
		return fmt.Errorf("embedding count mismatch: %d documents, %d vectors", len(documents), len(vectors))
	}

	table := vectorTableName(embeddingType)
	if err := s.ensureTable(ctx, table, len(vectors[0])); err != nil {
		return err
	}

	insertSQL := fmt.Sprintf(vcVectorInsertTemplate, table)
	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		for i, doc := range documents {
			if len(vectors[i]) == 0 {
				s.logger.Warn("skipping empty embedding", "snippet_id", doc.SnippetID())
				continue
			}
			if err := tx.Exec(insertSQL, doc.SnippetID(), formatVector(vectors[i])).Error; err != nil {
				return fmt.Errorf("insert embedding: %w", err)
			}
		}
		return nil
	})
}

// Search performs cosine similarity search over the given embedding space.
// Cosine distance (0 identical, 2 opposite) is converted to a 0-1
// similarity.
func (s *VectorChordVectorIndex) Search(ctx context.Context, embeddingType search.EmbeddingType, vector []float64, limit int) ([]search.Result, error) {
	if len(vector) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	table := vectorTableName(embeddingType)
	exists, err := s.tableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	var rows []struct {
		SnippetID int64   `gorm:"column:snippet_id"`
		Score     float64 `gorm:"column:score"`
	}
	searchSQL := fmt.Sprintf(vcVectorSearchTemplate, table)
	err = s.db.Session(ctx).Raw(searchSQL, formatVector(vector), limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]search.Result, len(rows))
	for i, row := range rows {
		results[i] = search.NewResult(row.SnippetID, 1.0-row.Score/2.0)
	}
	return results, nil
}

// HasEmbeddings reports which of the given snippet IDs already have an
// embedding of the given type.
func (s *VectorChordVectorIndex) HasEmbeddings(ctx context.Context, embeddingType search.EmbeddingType, snippetIDs []int64) (map[int64]bool, error) {
	result := make(map[int64]bool, len(snippetIDs))
	if len(snippetIDs) == 0 {
		return result, nil
	}

	table := vectorTableName(embeddingType)
	exists, err := s.tableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return result, nil
	}

	var found []int64
	query := fmt.Sprintf(vcVectorExistingTemplate, table)
	if err := s.db.Session(ctx).Raw(query, snippetIDs).Scan(&found).Error; err != nil {
		return nil, fmt.Errorf("check embeddings: %w", err)
	}
	for _, id := range found {
		result[id] = true
	}
	return result, nil
}

// Delete removes embeddings for the given snippet IDs in all spaces.
func (s *VectorChordVectorIndex) Delete(ctx context.Context, snippetIDs []int64) error {
	if len(snippetIDs) == 0 {
		return nil
	}

	for _, embeddingType := range []search.EmbeddingType{search.EmbeddingTypeCode, search.EmbeddingTypeText} {
		table := vectorTableName(embeddingType)
		exists, err := s.tableExists(ctx, table)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		deleteSQL := fmt.Sprintf(vcVectorDeleteTemplate, table)
		if err := s.db.Session(ctx).Exec(deleteSQL, snippetIDs).Error; err != nil {
			return fmt.Errorf("delete embeddings: %w", err)
		}
	}
	return nil
}

// formatVector renders a float slice as a PostgreSQL vector literal.
func formatVector(vector []float64) string {
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
