// Package enrichment provides domain types for AI-generated semantic
// metadata attached to snippets and commits.
package enrichment

import "time"

// Kind identifies what an enrichment describes.
type Kind string

// Enrichment kinds.
const (
	KindSnippetSummary    Kind = "snippet_summary"
	KindCommitDescription Kind = "commit_description"
	KindArchitecture      Kind = "architecture"
	KindAPIDocs           Kind = "api_docs"
	KindDatabaseSchema    Kind = "database_schema"
	KindCookbook          Kind = "cookbook"
)

// TargetType is the kind of entity an enrichment is attached to.
type TargetType string

// Target types.
const (
	TargetSnippet TargetType = "snippet"
	TargetCommit  TargetType = "commit"
)

// CommitKinds lists the enrichment kinds generated once per commit.
func CommitKinds() []Kind {
	return []Kind{
		KindCommitDescription,
		KindArchitecture,
		KindAPIDocs,
		KindDatabaseSchema,
		KindCookbook,
	}
}

// Enrichment is an immutable value object holding generated text for a
// target entity.
type Enrichment struct {
	id         int64
	kind       Kind
	targetType TargetType
	targetID   string
	content    string
	language   string
	createdAt  time.Time
	updatedAt  time.Time
}

// NewEnrichment creates an enrichment for a target entity. The targetID is
// the snippet SHA or commit SHA depending on targetType.
func NewEnrichment(kind Kind, targetType TargetType, targetID, content string) Enrichment {
	now := time.Now()
	return Enrichment{
		kind:       kind,
		targetType: targetType,
		targetID:   targetID,
		content:    content,
		createdAt:  now,
		updatedAt:  now,
	}
}

// WithLanguage returns a copy tagged with a language (used for API docs).
func (e Enrichment) WithLanguage(language string) Enrichment {
	e.language = language
	return e
}

// ReconstructEnrichment reconstructs an Enrichment from persistence.
func ReconstructEnrichment(
	id int64,
	kind Kind,
	targetType TargetType,
	targetID, content, language string,
	createdAt, updatedAt time.Time,
) Enrichment {
	return Enrichment{
		id:         id,
		kind:       kind,
		targetType: targetType,
		targetID:   targetID,
		content:    content,
		language:   language,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// ID returns the database identifier.
func (e Enrichment) ID() int64 { return e.id }

// Kind returns the enrichment kind.
func (e Enrichment) Kind() Kind { return e.kind }

// TargetType returns the target entity type.
func (e Enrichment) TargetType() TargetType { return e.targetType }

// TargetID returns the target entity identifier (snippet or commit SHA).
func (e Enrichment) TargetID() string { return e.targetID }

// Content returns the generated text.
func (e Enrichment) Content() string { return e.content }

// Language returns the associated language, or empty.
func (e Enrichment) Language() string { return e.language }

// CreatedAt returns the creation timestamp.
func (e Enrichment) CreatedAt() time.Time { return e.createdAt }

// UpdatedAt returns the last update timestamp.
func (e Enrichment) UpdatedAt() time.Time { return e.updatedAt }

// IsEmpty reports whether the enrichment carries no content. Failed
// generation yields empty enrichments that are not persisted.
func (e Enrichment) IsEmpty() bool { return e.content == "" }

// WithID returns a new Enrichment with the specified ID.
func (e Enrichment) WithID(id int64) Enrichment {
	e.id = id
	return e
}
