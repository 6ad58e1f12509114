package repository

import "context"

// RepositoryStore defines the interface for Repository persistence.
type RepositoryStore interface {
	Get(ctx context.Context, id int64) (Repository, error)
	Find(ctx context.Context, options ...Option) ([]Repository, error)
	Save(ctx context.Context, repo Repository) (Repository, error)
	Delete(ctx context.Context, repo Repository) error
	GetBySanitizedURI(ctx context.Context, uri string) (Repository, error)
	ExistsBySanitizedURI(ctx context.Context, uri string) (bool, error)
}

// CommitStore defines the interface for Commit persistence.
type CommitStore interface {
	Get(ctx context.Context, id int64) (Commit, error)
	Find(ctx context.Context, options ...Option) ([]Commit, error)
	Save(ctx context.Context, commit Commit) (Commit, error)
	SaveAll(ctx context.Context, commits []Commit) ([]Commit, error)
	GetBySHA(ctx context.Context, repositoryID int64, sha string) (Commit, error)
	DeleteByRepositoryID(ctx context.Context, repositoryID int64) error
}

// BranchStore defines the interface for Branch persistence.
type BranchStore interface {
	Find(ctx context.Context, options ...Option) ([]Branch, error)
	Save(ctx context.Context, branch Branch) (Branch, error)
	SaveAll(ctx context.Context, branches []Branch) ([]Branch, error)
	GetDefault(ctx context.Context, repositoryID int64) (Branch, error)
	DeleteByRepositoryID(ctx context.Context, repositoryID int64) error
}

// TagStore defines the interface for Tag persistence.
type TagStore interface {
	Find(ctx context.Context, options ...Option) ([]Tag, error)
	SaveAll(ctx context.Context, tags []Tag) ([]Tag, error)
	DeleteByRepositoryID(ctx context.Context, repositoryID int64) error
}

// FileStore defines the interface for File persistence.
type FileStore interface {
	Get(ctx context.Context, id int64) (File, error)
	Find(ctx context.Context, options ...Option) ([]File, error)
	SaveAll(ctx context.Context, files []File) ([]File, error)
	FindByCommitSHA(ctx context.Context, commitSHA string) ([]File, error)
	LinkToCommit(ctx context.Context, commitSHA string, fileIDs []int64) error
	DeleteByRepositoryID(ctx context.Context, repositoryID int64) error
}
