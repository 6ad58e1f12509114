package search

import "context"

// EmbeddingType distinguishes the vector spaces snippets are indexed in.
type EmbeddingType string

// EmbeddingType values.
const (
	EmbeddingTypeCode EmbeddingType = "code"
	EmbeddingTypeText EmbeddingType = "text"
)

// KeywordIndex defines operations for BM25 full-text search.
type KeywordIndex interface {
	// Index adds documents to the keyword index. Re-indexing a snippet
	// replaces its document.
	Index(ctx context.Context, documents []Document) error

	// Search performs a keyword search returning hits sorted by score
	// descending.
	Search(ctx context.Context, query string, limit int) ([]Result, error)

	// Delete removes documents for the given snippet IDs.
	Delete(ctx context.Context, snippetIDs []int64) error
}

// VectorIndex defines operations for vector similarity search.
type VectorIndex interface {
	// Index stores embeddings for documents of the given type.
	Index(ctx context.Context, embeddingType EmbeddingType, documents []Document, vectors [][]float64) error

	// Search performs similarity search over the given embedding space.
	Search(ctx context.Context, embeddingType EmbeddingType, vector []float64, limit int) ([]Result, error)

	// HasEmbeddings reports which of the given snippet IDs already have an
	// embedding of the given type.
	HasEmbeddings(ctx context.Context, embeddingType EmbeddingType, snippetIDs []int64) (map[int64]bool, error)

	// Delete removes embeddings for the given snippet IDs in all spaces.
	Delete(ctx context.Context, snippetIDs []int64) error
}

// Embedder converts text into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
