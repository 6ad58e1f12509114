package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/repolens/repolens/domain/search"
	"github.com/repolens/repolens/internal/database"
	"gorm.io/gorm"
)

// SQL statements for the SQLite FTS5 keyword index.
const (
	sqliteCreateFTS5Table = `
CREATE VIRTUAL TABLE IF NOT EXISTS repolens_bm25_documents USING fts5(
    snippet_id UNINDEXED,
    passage,
    tokenize='porter ascii'
)`

	sqliteInsertQuery = `
INSERT INTO repolens_bm25_documents (rowid, snippet_id, passage)
VALUES (?, ?, ?)`

	sqliteDeleteQuery = `DELETE FROM repolens_bm25_documents WHERE snippet_id IN ?`

	sqliteSearchQuery = `
SELECT snippet_id, bm25(repolens_bm25_documents) AS score
FROM repolens_bm25_documents
WHERE repolens_bm25_documents MATCH ?
ORDER BY score
LIMIT ?`

	sqliteMaxRowIDQuery = `SELECT COALESCE(MAX(rowid), 0) FROM repolens_bm25_documents`
)

// ErrKeywordIndexInit indicates FTS5 initialization failed.
var ErrKeywordIndexInit = errors.New("initialize keyword index")

// SQLiteKeywordIndex implements search.KeywordIndex on SQLite FTS5.
type SQLiteKeywordIndex struct {
	db          database.Database
	logger      *slog.Logger
	initialized bool
	nextRowID   int64
	mu          sync.Mutex
}

// NewSQLiteKeywordIndex creates a new SQLiteKeywordIndex.
func NewSQLiteKeywordIndex(db database.Database, logger *slog.Logger) *SQLiteKeywordIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteKeywordIndex{db: db, logger: logger}
}

func (s *SQLiteKeywordIndex) initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if err := s.db.Session(ctx).Exec(sqliteCreateFTS5Table).Error; err != nil {
		return errors.Join(ErrKeywordIndexInit, err)
	}

	var maxRowID int64
	if err := s.db.Session(ctx).Raw(sqliteMaxRowIDQuery).Scan(&maxRowID).Error; err != nil {
		return errors.Join(ErrKeywordIndexInit, err)
	}
	s.nextRowID = maxRowID + 1

	s.initialized = true
	return nil
}

// Index adds documents to the keyword index. Re-indexed snippets replace
// their old passage.
func (s *SQLiteKeywordIndex) Index(ctx context.Context, documents []search.Document) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}

	var valid []search.Document
	var ids []int64
	for _, doc := range documents {
		if doc.Text() == "" {
			continue
		}
		valid = append(valid, doc)
		ids = append(ids, doc.SnippetID())
	}
	if len(valid) == 0 {
		s.logger.Warn("empty corpus, skipping keyword index")
		return nil
	}

	s.mu.Lock()
	firstRowID := s.nextRowID
	s.nextRowID += int64(len(valid))
	s.mu.Unlock()

	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Exec(sqliteDeleteQuery, ids).Error; err != nil {
			return fmt.Errorf("replace keyword documents: %w", err)
		}
		for i, doc := range valid {
			if err := tx.Exec(sqliteInsertQuery, firstRowID+int64(i), doc.SnippetID(), doc.Text()).Error; err != nil {
				return fmt.Errorf("insert keyword document: %w", err)
			}
		}
		return nil
	})
}

// Search performs BM25 keyword search. SQLite's bm25() returns negative
// scores where more negative is better, so scores are negated to make
// higher mean better.
func (s *SQLiteKeywordIndex) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Session(ctx).Raw(sqliteSearchQuery, escapeFTS5Query(query), limit).Rows()
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []search.Result
	for rows.Next() {
		var snippetID int64
		var score float64
		if err := rows.Scan(&snippetID, &score); err != nil {
			return nil, fmt.Errorf("scan keyword result: %w", err)
		}
		results = append(results, search.NewResult(snippetID, -score))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("keyword search rows: %w", err)
	}
	return results, nil
}

// Delete removes documents for the given snippet IDs.
func (s *SQLiteKeywordIndex) Delete(ctx context.Context, snippetIDs []int64) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}
	if len(snippetIDs) == 0 {
		return nil
	}
	return s.db.Session(ctx).Exec(sqliteDeleteQuery, snippetIDs).Error
}

// escapeFTS5Query quotes each whitespace-separated token so FTS5 operators
// (AND OR NOT * ^) read as plain terms. Separate quoted tokens form an AND
// of single-term matches; quoting the whole query would turn it into one
// phrase that only matches adjacent tokens.
func escapeFTS5Query(query string) string {
	fields := strings.Fields(query)
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = "\"" + strings.ReplaceAll(field, "\"", "\"\"") + "\""
	}
	return strings.Join(quoted, " ")
}
