// Package indexing implements the handlers for the repository indexing
// phases.
package indexing

import (
	"context"

	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/snippet"
)

// WorkingCopies clones or refreshes local working copies.
type WorkingCopies interface {
	Ensure(ctx context.Context, repo repository.Repository) (repository.Repository, error)
}

// Scanner extracts git metadata from a working copy.
type Scanner interface {
	ScanBranches(ctx context.Context, clonePath string, repositoryID int64) ([]repository.Branch, error)
	ScanTags(ctx context.Context, clonePath string, repositoryID int64) ([]repository.Tag, error)
	ScanDefaultBranchCommits(ctx context.Context, clonePath string, repositoryID int64) (string, []repository.Commit, error)
	ScanCommitFiles(ctx context.Context, clonePath, commitSHA string, repositoryID int64) ([]repository.File, error)
}

// Slicer turns source files into snippets.
type Slicer interface {
	Slice(ctx context.Context, workingCopyPath string, files []repository.File) ([]snippet.Snippet, error)
}
