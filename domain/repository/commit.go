package repository

import "time"

// Commit represents a Git commit.
type Commit struct {
	id           int64
	sha          string
	repositoryID int64
	message      string
	author       Author
	committer    Author
	authoredAt   time.Time
	committedAt  time.Time
	parentSHA    string
	createdAt    time.Time
}

// NewCommit creates a new Commit.
func NewCommit(sha string, repositoryID int64, message string, author, committer Author, authoredAt, committedAt time.Time, parentSHA string) Commit {
	return Commit{
		sha:          sha,
		repositoryID: repositoryID,
		message:      message,
		author:       author,
		committer:    committer,
		authoredAt:   authoredAt,
		committedAt:  committedAt,
		parentSHA:    parentSHA,
		createdAt:    time.Now(),
	}
}

// ReconstructCommit reconstructs a Commit from persistence.
func ReconstructCommit(
	id int64,
	sha string,
	repositoryID int64,
	message string,
	author, committer Author,
	authoredAt, committedAt time.Time,
	parentSHA string,
	createdAt time.Time,
) Commit {
	return Commit{
		id:           id,
		sha:          sha,
		repositoryID: repositoryID,
		message:      message,
		author:       author,
		committer:    committer,
		authoredAt:   authoredAt,
		committedAt:  committedAt,
		parentSHA:    parentSHA,
		createdAt:    createdAt,
	}
}

// ID returns the commit ID.
func (c Commit) ID() int64 { return c.id }

// SHA returns the commit SHA.
func (c Commit) SHA() string { return c.sha }

// RepositoryID returns the repository ID.
func (c Commit) RepositoryID() int64 { return c.repositoryID }

// Message returns the commit message.
func (c Commit) Message() string { return c.message }

// Author returns the author.
func (c Commit) Author() Author { return c.author }

// Committer returns the committer.
func (c Commit) Committer() Author { return c.committer }

// AuthoredAt returns the authored timestamp.
func (c Commit) AuthoredAt() time.Time { return c.authoredAt }

// CommittedAt returns the committed timestamp.
func (c Commit) CommittedAt() time.Time { return c.committedAt }

// ParentSHA returns the first parent commit SHA, or empty for root commits.
func (c Commit) ParentSHA() string { return c.parentSHA }

// CreatedAt returns the record creation timestamp.
func (c Commit) CreatedAt() time.Time { return c.createdAt }

// ShortSHA returns the first 7 characters of the SHA.
func (c Commit) ShortSHA() string {
	if len(c.sha) >= 7 {
		return c.sha[:7]
	}
	return c.sha
}

// ShortMessage returns the first line of the commit message.
func (c Commit) ShortMessage() string {
	for i, r := range c.message {
		if r == '\n' {
			return c.message[:i]
		}
	}
	return c.message
}

// WithID returns a new Commit with the specified ID.
func (c Commit) WithID(id int64) Commit {
	c.id = id
	return c
}
