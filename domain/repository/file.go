package repository

import (
	"path/filepath"
	"time"
)

// File represents a file blob within a repository. Files are identified by
// blob SHA and may be shared across many commits.
type File struct {
	id           int64
	repositoryID int64
	blobSHA      string
	path         string
	mimeType     string
	sizeBytes    int64
	language     string
	createdAt    time.Time
}

// NewFile creates a new File.
func NewFile(repositoryID int64, blobSHA, path, mimeType string, sizeBytes int64, language string) File {
	return File{
		repositoryID: repositoryID,
		blobSHA:      blobSHA,
		path:         path,
		mimeType:     mimeType,
		sizeBytes:    sizeBytes,
		language:     language,
		createdAt:    time.Now(),
	}
}

// ReconstructFile reconstructs a File from persistence.
func ReconstructFile(
	id, repositoryID int64,
	blobSHA, path, mimeType string,
	sizeBytes int64,
	language string,
	createdAt time.Time,
) File {
	return File{
		id:           id,
		repositoryID: repositoryID,
		blobSHA:      blobSHA,
		path:         path,
		mimeType:     mimeType,
		sizeBytes:    sizeBytes,
		language:     language,
		createdAt:    createdAt,
	}
}

// ID returns the file ID.
func (f File) ID() int64 { return f.id }

// RepositoryID returns the repository ID.
func (f File) RepositoryID() int64 { return f.repositoryID }

// BlobSHA returns the Git blob SHA.
func (f File) BlobSHA() string { return f.blobSHA }

// Path returns the repository-relative path.
func (f File) Path() string { return f.path }

// MimeType returns the detected MIME type.
func (f File) MimeType() string { return f.mimeType }

// SizeBytes returns the blob size in bytes.
func (f File) SizeBytes() int64 { return f.sizeBytes }

// Language returns the detected programming language, or empty.
func (f File) Language() string { return f.language }

// CreatedAt returns the record creation timestamp.
func (f File) CreatedAt() time.Time { return f.createdAt }

// Extension returns the file extension without the leading dot.
func (f File) Extension() string {
	ext := filepath.Ext(f.path)
	if ext == "" {
		return ""
	}
	return ext[1:]
}

// WithID returns a new File with the specified ID.
func (f File) WithID(id int64) File {
	f.id = id
	return f
}
