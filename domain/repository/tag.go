package repository

import (
	"regexp"
	"time"
)

// versionTagPattern matches release-style tags such as v1.2.3, 2.0 or
// v3.1.4-beta.
var versionTagPattern = regexp.MustCompile(`^v?\d+(\.\d+)*(-\w+)?$`)

// Tag represents a Git tag.
type Tag struct {
	id           int64
	repositoryID int64
	name         string
	commitSHA    string
	message      string
	createdAt    time.Time
}

// NewTag creates a new Tag.
func NewTag(repositoryID int64, name, commitSHA, message string) Tag {
	return Tag{
		repositoryID: repositoryID,
		name:         name,
		commitSHA:    commitSHA,
		message:      message,
		createdAt:    time.Now(),
	}
}

// ReconstructTag reconstructs a Tag from persistence.
func ReconstructTag(id, repositoryID int64, name, commitSHA, message string, createdAt time.Time) Tag {
	return Tag{
		id:           id,
		repositoryID: repositoryID,
		name:         name,
		commitSHA:    commitSHA,
		message:      message,
		createdAt:    createdAt,
	}
}

// ID returns the tag ID.
func (t Tag) ID() int64 { return t.id }

// RepositoryID returns the repository ID.
func (t Tag) RepositoryID() int64 { return t.repositoryID }

// Name returns the tag name.
func (t Tag) Name() string { return t.name }

// CommitSHA returns the tagged commit SHA.
func (t Tag) CommitSHA() string { return t.commitSHA }

// Message returns the annotation message, or empty for lightweight tags.
func (t Tag) Message() string { return t.message }

// CreatedAt returns the record creation timestamp.
func (t Tag) CreatedAt() time.Time { return t.createdAt }

// IsVersionTag returns true if the tag name looks like a release version.
func (t Tag) IsVersionTag() bool {
	return versionTagPattern.MatchString(t.name)
}

// WithID returns a new Tag with the specified ID.
func (t Tag) WithID(id int64) Tag {
	t.id = id
	return t
}
