package snippet

import (
	"context"

	"github.com/repolens/repolens/domain/repository"
)

// Store defines operations for snippet persistence.
type Store interface {
	Get(ctx context.Context, id int64) (Snippet, error)
	GetBySHA(ctx context.Context, sha string) (Snippet, error)
	Find(ctx context.Context, options ...repository.Option) ([]Snippet, error)
	FindByCommitSHA(ctx context.Context, commitSHA string) ([]Snippet, error)

	// FindWithFiles retrieves snippets by ID with their derivation files
	// attached across all commits.
	FindWithFiles(ctx context.Context, ids []int64) ([]Snippet, error)

	// SaveAll upserts snippets by content SHA and records derivation links
	// scoped to the commit they were extracted from. Snippets that already
	// exist keep their row; new derivations are added.
	SaveAll(ctx context.Context, commitSHA string, snippets []Snippet) ([]Snippet, error)

	// UnlinkCommit removes derivation links for a commit and garbage
	// collects snippets left with no derivations. Returns the IDs of the
	// deleted snippets so callers can purge search indexes.
	UnlinkCommit(ctx context.Context, commitSHA string) ([]int64, error)

	// DeleteByRepositoryID removes all snippets derived only from the given
	// repository. Returns the IDs of the deleted snippets.
	DeleteByRepositoryID(ctx context.Context, repositoryID int64) ([]int64, error)
}

// StateStore defines operations for per-phase snippet state.
type StateStore interface {
	Upsert(ctx context.Context, states []State) error
	FindBySnippetIDs(ctx context.Context, snippetIDs []int64, phase Phase) ([]State, error)
	PendingSnippetIDs(ctx context.Context, phase Phase, snippetIDs []int64) ([]int64, error)
}
