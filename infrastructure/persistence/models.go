// Package persistence implements the domain store interfaces on GORM.
package persistence

import (
	"encoding/json"
	"time"
)

// RepositoryModel represents a tracked Git repository.
type RepositoryModel struct {
	ID                 int64      `gorm:"column:id;primaryKey;autoIncrement"`
	RemoteURI          string     `gorm:"column:remote_uri;size:1024"`
	SanitizedRemoteURI string     `gorm:"column:sanitized_remote_uri;uniqueIndex;size:1024"`
	ClonedPath         *string    `gorm:"column:cloned_path;size:1024"`
	LastIndexedAt      *time.Time `gorm:"column:last_indexed_at"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (RepositoryModel) TableName() string {
	return "repositories"
}

// CommitModel represents a Git commit.
type CommitModel struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SHA            string    `gorm:"column:sha;uniqueIndex:idx_commit_repo_sha;size:64"`
	RepositoryID   int64     `gorm:"column:repository_id;uniqueIndex:idx_commit_repo_sha"`
	Message        string    `gorm:"column:message;type:text"`
	AuthorName     string    `gorm:"column:author_name;index;size:255"`
	AuthorEmail    string    `gorm:"column:author_email;size:255"`
	CommitterName  string    `gorm:"column:committer_name;size:255"`
	CommitterEmail string    `gorm:"column:committer_email;size:255"`
	AuthoredAt     time.Time `gorm:"column:authored_at"`
	CommittedAt    time.Time `gorm:"column:committed_at"`
	ParentSHA      *string   `gorm:"column:parent_sha;size:64"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

// TableName returns the table name.
func (CommitModel) TableName() string {
	return "commits"
}

// BranchModel represents a Git branch.
type BranchModel struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RepositoryID  int64     `gorm:"column:repository_id;uniqueIndex:idx_branch_repo_name"`
	Name          string    `gorm:"column:name;uniqueIndex:idx_branch_repo_name;size:255"`
	HeadCommitSHA string    `gorm:"column:head_commit_sha;size:64"`
	IsDefault     bool      `gorm:"column:is_default;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (BranchModel) TableName() string {
	return "branches"
}

// TagModel represents a Git tag.
type TagModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RepositoryID int64     `gorm:"column:repository_id;uniqueIndex:idx_tag_repo_name"`
	Name         string    `gorm:"column:name;uniqueIndex:idx_tag_repo_name;size:255"`
	CommitSHA    string    `gorm:"column:commit_sha;size:64"`
	Message      *string   `gorm:"column:message;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

// TableName returns the table name.
func (TagModel) TableName() string {
	return "tags"
}

// FileModel represents a file blob, shared across commits.
type FileModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RepositoryID int64     `gorm:"column:repository_id;uniqueIndex:idx_file_repo_blob_path"`
	BlobSHA      string    `gorm:"column:blob_sha;uniqueIndex:idx_file_repo_blob_path;size:64"`
	Path         string    `gorm:"column:path;uniqueIndex:idx_file_repo_blob_path;size:1024"`
	MimeType     string    `gorm:"column:mime_type;size:255"`
	SizeBytes    int64     `gorm:"column:size_bytes"`
	Language     string    `gorm:"column:language;index;size:64"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

// TableName returns the table name.
func (FileModel) TableName() string {
	return "files"
}

// CommitFileModel links commits to the file blobs they contain.
type CommitFileModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	CommitSHA string    `gorm:"column:commit_sha;uniqueIndex:idx_commit_file;size:64"`
	FileID    int64     `gorm:"column:file_id;uniqueIndex:idx_commit_file"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName returns the table name.
func (CommitFileModel) TableName() string {
	return "commit_files"
}

// SnippetModel represents a content-addressed code snippet.
type SnippetModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SHA       string    `gorm:"column:sha;uniqueIndex;size:64"`
	Content   string    `gorm:"column:content;type:text"`
	Language  string    `gorm:"column:language;index;size:64"`
	Name      string    `gorm:"column:name;size:512"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName returns the table name.
func (SnippetModel) TableName() string {
	return "snippets"
}

// SnippetDerivationModel links snippets to the files they derive from.
type SnippetDerivationModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SnippetID int64     `gorm:"column:snippet_id;uniqueIndex:idx_snippet_derivation"`
	FileID    int64     `gorm:"column:file_id;uniqueIndex:idx_snippet_derivation"`
	CommitSHA string    `gorm:"column:commit_sha;uniqueIndex:idx_snippet_derivation;size:64"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

// TableName returns the table name.
func (SnippetDerivationModel) TableName() string {
	return "snippet_derivations"
}

// SnippetStateModel tracks per-phase processing state for a snippet.
type SnippetStateModel struct {
	SnippetID int64     `gorm:"column:snippet_id;primaryKey"`
	Phase     string    `gorm:"column:phase;primaryKey;size:64"`
	State     string    `gorm:"column:state;index;size:32"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName returns the table name.
func (SnippetStateModel) TableName() string {
	return "snippet_states"
}

// EnrichmentModel represents generated metadata attached to an entity.
type EnrichmentModel struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Kind       string    `gorm:"column:kind;uniqueIndex:idx_enrichment_target;size:64;not null"`
	TargetType string    `gorm:"column:target_type;uniqueIndex:idx_enrichment_target;size:32;not null"`
	TargetID   string    `gorm:"column:target_id;uniqueIndex:idx_enrichment_target;size:255;not null"`
	Content    string    `gorm:"column:content;type:text;not null"`
	Language   string    `gorm:"column:language;size:64"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

// TableName returns the table name.
func (EnrichmentModel) TableName() string {
	return "enrichments"
}

// EmbeddingModel stores a vector embedding as a JSON column. Cosine
// similarity is computed in process for the SQLite provider.
type EmbeddingModel struct {
	ID        int64        `gorm:"column:id;primaryKey;autoIncrement"`
	SnippetID int64        `gorm:"column:snippet_id;uniqueIndex:idx_embedding_snippet_type"`
	Type      string       `gorm:"column:type;uniqueIndex:idx_embedding_snippet_type;size:16"`
	Embedding Float64Slice `gorm:"column:embedding;type:json"`
	CreatedAt time.Time    `gorm:"column:created_at;not null"`
	UpdatedAt time.Time    `gorm:"column:updated_at;not null"`
}

// TableName returns the table name.
func (EmbeddingModel) TableName() string {
	return "embeddings"
}

// TaskModel represents a pending task in the queue.
type TaskModel struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	DedupKey  string          `gorm:"column:dedup_key;type:varchar(255);uniqueIndex;not null"`
	Operation string          `gorm:"column:operation;type:varchar(255);index;not null"`
	Payload   json.RawMessage `gorm:"column:payload;type:json"`
	Priority  int             `gorm:"column:priority;index;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (TaskModel) TableName() string {
	return "tasks"
}

// TaskStatusModel represents one node of the progress tree.
type TaskStatusModel struct {
	ID            string    `gorm:"column:id;type:varchar(255);primaryKey;not null"`
	Operation     string    `gorm:"column:operation;type:varchar(255);index;not null"`
	TrackableID   *int64    `gorm:"column:trackable_id;index"`
	TrackableType *string   `gorm:"column:trackable_type;type:varchar(64);index"`
	ParentID      *string   `gorm:"column:parent_id;type:varchar(255);index"`
	State         string    `gorm:"column:state;type:varchar(32);default:''"`
	Message       string    `gorm:"column:message;type:text;default:''"`
	Error         string    `gorm:"column:error;type:text;default:''"`
	Total         int       `gorm:"column:total;default:0"`
	Current       int       `gorm:"column:current;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null"`
}

// TableName returns the table name.
func (TaskStatusModel) TableName() string {
	return "task_statuses"
}
