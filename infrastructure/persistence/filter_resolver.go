package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/repolens/repolens/domain/search"
	"github.com/repolens/repolens/internal/database"
)

// FilterResolver translates search filters into the set of snippet IDs
// that satisfy them. Filters are metadata predicates, so they resolve
// against the relational store rather than the search indexes.
type FilterResolver struct {
	db database.Database
}

// NewFilterResolver creates a resolver on the given database.
func NewFilterResolver(db database.Database) *FilterResolver {
	return &FilterResolver{db: db}
}

// ResolveSnippetIDs returns the snippet IDs matching the filters. The
// second return is false when no filters are set, meaning results need no
// restriction at all.
func (r *FilterResolver) ResolveSnippetIDs(ctx context.Context, filters search.Filters) (map[int64]bool, bool, error) {
	if filters.IsEmpty() {
		return nil, false, nil
	}

	query := r.db.Session(ctx).
		Model(&SnippetModel{}).
		Distinct("snippets.id").
		Joins("JOIN snippet_derivations ON snippet_derivations.snippet_id = snippets.id").
		Joins("JOIN files ON files.id = snippet_derivations.file_id")

	if lang := filters.Language(); lang != "" {
		// Language matching is case-insensitive; stored tags are already
		// lowercase but the stored side is folded too for safety.
		query = query.Where("LOWER(snippets.language) = ?", strings.ToLower(lang))
	}
	if path := filters.FilePath(); path != "" {
		query = query.Where("files.path LIKE ?", "%"+path+"%")
	}
	if repo := filters.SourceRepo(); repo != "" {
		query = query.
			Joins("JOIN repositories ON repositories.id = files.repository_id").
			Where("repositories.sanitized_remote_uri LIKE ?", "%"+repo+"%")
	}

	if filters.Author() != "" || !filters.CreatedAfter().IsZero() || !filters.CreatedBefore().IsZero() {
		query = query.Joins("JOIN commits ON commits.sha = snippet_derivations.commit_sha")
		if author := filters.Author(); author != "" {
			query = query.Where("commits.author_name LIKE ?", "%"+author+"%")
		}
		if after := filters.CreatedAfter(); !after.IsZero() {
			query = query.Where("commits.committed_at >= ?", after)
		}
		if before := filters.CreatedBefore(); !before.IsZero() {
			query = query.Where("commits.committed_at <= ?", before)
		}
	}

	var ids []int64
	if err := query.Pluck("snippets.id", &ids).Error; err != nil {
		return nil, true, fmt.Errorf("resolve snippet filters: %w", err)
	}

	allowed := make(map[int64]bool, len(ids))
	for _, id := range ids {
		allowed[id] = true
	}
	return allowed, true, nil
}
