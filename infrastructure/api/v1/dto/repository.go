// Package dto defines the JSON request and response bodies of the v1 API.
package dto

import "time"

// RepositoryCreateRequest is the body of POST /repositories.
type RepositoryCreateRequest struct {
	RemoteURI string `json:"remote_uri"`
}

// Repository is the wire form of a tracked repository.
type Repository struct {
	ID                 int64      `json:"id"`
	RemoteURI          string     `json:"remote_uri"`
	SanitizedRemoteURI string     `json:"sanitized_remote_uri"`
	ClonedPath         string     `json:"cloned_path,omitempty"`
	LastIndexedAt      *time.Time `json:"last_indexed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// RepositoryResponse wraps a single repository.
type RepositoryResponse struct {
	Data Repository `json:"data"`
}

// RepositoryListResponse wraps a repository listing.
type RepositoryListResponse struct {
	Data []Repository `json:"data"`
}

// RepositoryDetailResponse is the repository detail with branches and
// recent commits inlined.
type RepositoryDetailResponse struct {
	Data          Repository `json:"data"`
	Branches      []Branch   `json:"branches"`
	RecentCommits []Commit   `json:"recent_commits"`
}

// Branch is the wire form of a branch.
type Branch struct {
	Name          string `json:"name"`
	HeadCommitSHA string `json:"head_commit_sha"`
	IsDefault     bool   `json:"is_default"`
}

// Tag is the wire form of a tag.
type Tag struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CommitSHA    string `json:"commit_sha"`
	Message      string `json:"message,omitempty"`
	IsVersionTag bool   `json:"is_version_tag"`
}

// TagListResponse wraps a tag listing.
type TagListResponse struct {
	Data []Tag `json:"data"`
}

// Commit is the wire form of a commit.
type Commit struct {
	SHA         string    `json:"sha"`
	Message     string    `json:"message"`
	Author      string    `json:"author"`
	AuthorEmail string    `json:"author_email,omitempty"`
	ParentSHA   string    `json:"parent_sha,omitempty"`
	CommittedAt time.Time `json:"committed_at"`
}

// CommitResponse wraps a single commit.
type CommitResponse struct {
	Data Commit `json:"data"`
}

// CommitListResponse wraps a commit listing.
type CommitListResponse struct {
	Data []Commit `json:"data"`
}

// File is the wire form of a file blob.
type File struct {
	BlobSHA   string `json:"blob_sha"`
	Path      string `json:"path"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	Language  string `json:"language,omitempty"`
}

// FileResponse wraps a single file.
type FileResponse struct {
	Data File `json:"data"`
}

// FileListResponse wraps a file listing.
type FileListResponse struct {
	Data []File `json:"data"`
}
