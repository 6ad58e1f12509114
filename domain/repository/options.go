package repository

import "time"

// WithSanitizedURI filters by the "sanitized_remote_uri" column.
func WithSanitizedURI(uri string) Option {
	return WithCondition("sanitized_remote_uri", uri)
}

// WithName filters by the "name" column.
func WithName(name string) Option {
	return WithCondition("name", name)
}

// WithCommitSHA filters by the "commit_sha" column.
func WithCommitSHA(sha string) Option {
	return WithCondition("commit_sha", sha)
}

// WithSHA filters by the "sha" column.
func WithSHA(sha string) Option {
	return WithCondition("sha", sha)
}

// WithBlobSHA filters by the "blob_sha" column.
func WithBlobSHA(sha string) Option {
	return WithCondition("blob_sha", sha)
}

// WithDefault filters for the default branch.
func WithDefault() Option {
	return WithCondition("is_default", true)
}

// WithIndexDueBefore filters repositories last indexed before t, or never.
func WithIndexDueBefore(t time.Time) Option {
	return WithWhere("last_indexed_at IS NULL OR last_indexed_at < ?", t)
}
