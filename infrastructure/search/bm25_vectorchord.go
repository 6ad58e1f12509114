package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/repolens/repolens/domain/search"
	"github.com/repolens/repolens/internal/database"
	"gorm.io/gorm"
)

// SQL statements for the VectorChord BM25 keyword index.
const (
	vcCreateVChordExtension = `CREATE EXTENSION IF NOT EXISTS vchord CASCADE`
	vcCreateTokenizer       = `CREATE EXTENSION IF NOT EXISTS pg_tokenizer CASCADE`
	vcCreateVChordBM25      = `CREATE EXTENSION IF NOT EXISTS vchord_bm25 CASCADE`
	vcSetSearchPath         = `SET search_path TO "$user", public, bm25_catalog, pg_catalog, information_schema, tokenizer_catalog`

	vcCreateBM25Table = `
CREATE TABLE IF NOT EXISTS repolens_bm25_documents (
    id SERIAL PRIMARY KEY,
    snippet_id BIGINT NOT NULL,
    passage TEXT NOT NULL,
    embedding bm25vector,
    UNIQUE(snippet_id)
)`

	vcCreateBM25Index = `
CREATE INDEX IF NOT EXISTS repolens_bm25_documents_idx
ON repolens_bm25_documents
USING bm25 (embedding bm25_ops)`

	vcTokenizerExistsQuery = `SELECT 1 FROM tokenizer_catalog.tokenizer WHERE name = 'bert'`

	vcLoadTokenizer = `
SELECT create_tokenizer('bert', $$
model = "llmlingua2"
pre_tokenizer = "unicode_segmentation"
[[character_filters]]
to_lowercase = {}
[[character_filters]]
unicode_normalization = "nfkd"
[[token_filters]]
skip_non_alphanumeric = {}
[[token_filters]]
stopwords = "nltk_english"
[[token_filters]]
stemmer = "english_porter2"
$$)`

	vcBM25InsertQuery = `
INSERT INTO repolens_bm25_documents (snippet_id, passage)
VALUES (?, ?)
ON CONFLICT (snippet_id) DO UPDATE
SET passage = EXCLUDED.passage, embedding = NULL`

	vcBM25TokenizeQuery = `
UPDATE repolens_bm25_documents
SET embedding = tokenize(passage, 'bert')
WHERE embedding IS NULL`

	vcBM25SearchQuery = `
SELECT
    snippet_id,
    embedding <&> to_bm25query('repolens_bm25_documents_idx', tokenize(?, 'bert')) AS score
FROM repolens_bm25_documents
ORDER BY score
LIMIT ?`

	vcBM25DeleteQuery = `DELETE FROM repolens_bm25_documents WHERE snippet_id IN ?`
)

// ErrVectorChordBM25Init indicates VectorChord BM25 initialization failed.
var ErrVectorChordBM25Init = errors.New("initialize vectorchord keyword index")

// VectorChordKeywordIndex implements search.KeywordIndex on the VectorChord
// BM25 PostgreSQL extension.
type VectorChordKeywordIndex struct {
	db          database.Database
	logger      *slog.Logger
	initialized bool
	mu          sync.Mutex
}

// NewVectorChordKeywordIndex creates a new VectorChordKeywordIndex.
func NewVectorChordKeywordIndex(db database.Database, logger *slog.Logger) *VectorChordKeywordIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorChordKeywordIndex{db: db, logger: logger}
}

func (s *VectorChordKeywordIndex) initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	db := s.db.Session(ctx)
	for _, stmt := range []string{vcCreateVChordExtension, vcCreateTokenizer, vcCreateVChordBM25, vcSetSearchPath} {
		if err := db.Exec(stmt).Error; err != nil {
			return errors.Join(ErrVectorChordBM25Init, err)
		}
	}

	var exists int
	result := db.Raw(vcTokenizerExistsQuery).Scan(&exists)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return errors.Join(ErrVectorChordBM25Init, result.Error)
	}
	if result.RowsAffected == 0 {
		if err := db.Exec(vcLoadTokenizer).Error; err != nil {
			return errors.Join(ErrVectorChordBM25Init, err)
		}
	}

	if err := db.Exec(vcCreateBM25Table).Error; err != nil {
		return errors.Join(ErrVectorChordBM25Init, err)
	}
	if err := db.Exec(vcCreateBM25Index).Error; err != nil {
		return errors.Join(ErrVectorChordBM25Init, err)
	}

	s.initialized = true
	return nil
}

// Index upserts documents and tokenizes the new passages.
func (s *VectorChordKeywordIndex) Index(ctx context.Context, documents []search.Document) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}

	var valid []search.Document
	for _, doc := range documents {
		if doc.Text() != "" {
			valid = append(valid, doc)
		}
	}
	if len(valid) == 0 {
		s.logger.Warn("empty corpus, skipping keyword index")
		return nil
	}

	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		for _, doc := range valid {
			if err := tx.Exec(vcBM25InsertQuery, doc.SnippetID(), doc.Text()).Error; err != nil {
				return fmt.Errorf("insert keyword document: %w", err)
			}
		}
		if err := tx.Exec(vcBM25TokenizeQuery).Error; err != nil {
			return fmt.Errorf("tokenize keyword documents: %w", err)
		}
		return nil
	})
}

// Search performs BM25 keyword search. VectorChord returns negative scores
// where more negative is better, so scores are negated.
func (s *VectorChordKeywordIndex) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	var rows []struct {
		SnippetID int64   `gorm:"column:snippet_id"`
		Score     float64 `gorm:"column:score"`
	}
	err := s.db.Session(ctx).Raw(vcBM25SearchQuery, query, limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	results := make([]search.Result, len(rows))
	for i, row := range rows {
		results[i] = search.NewResult(row.SnippetID, -row.Score)
	}
	return results, nil
}

// Delete removes documents for the given snippet IDs.
func (s *VectorChordKeywordIndex) Delete(ctx context.Context, snippetIDs []int64) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}
	if len(snippetIDs) == 0 {
		return nil
	}
	return s.db.Session(ctx).Exec(vcBM25DeleteQuery, snippetIDs).Error
}
