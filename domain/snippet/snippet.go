// Package snippet provides domain types for content-addressed code fragments.
package snippet

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/repolens/repolens/domain/repository"
)

// MaxContentBytes caps the size of an extracted snippet. Oversized
// definitions are truncated at extraction time.
const MaxContentBytes = 32 * 1024

// Snippet represents a content-addressed code snippet. Identity is the
// SHA256 of normalized content plus language, so identical fragments
// extracted from different files or commits collapse to one row.
type Snippet struct {
	id          int64
	sha         string
	content     string
	language    string
	name        string
	derivesFrom []repository.File
	createdAt   time.Time
	updatedAt   time.Time
}

// NewSnippet creates a new Snippet with content-addressed SHA. The name is
// the qualified name of the extracted definition.
func NewSnippet(content, language, name string, derivesFrom []repository.File) Snippet {
	now := time.Now()

	files := make([]repository.File, len(derivesFrom))
	copy(files, derivesFrom)

	return Snippet{
		sha:         ComputeSHA(content, language),
		content:     content,
		language:    language,
		name:        name,
		derivesFrom: files,
		createdAt:   now,
		updatedAt:   now,
	}
}

// ReconstructSnippet reconstructs a Snippet from persistence.
func ReconstructSnippet(
	id int64,
	sha, content, language, name string,
	derivesFrom []repository.File,
	createdAt, updatedAt time.Time,
) Snippet {
	files := make([]repository.File, len(derivesFrom))
	copy(files, derivesFrom)

	return Snippet{
		id:          id,
		sha:         sha,
		content:     content,
		language:    language,
		name:        name,
		derivesFrom: files,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ID returns the database identifier.
func (s Snippet) ID() int64 { return s.id }

// SHA returns the content-addressed identifier.
func (s Snippet) SHA() string { return s.sha }

// Content returns the snippet code content.
func (s Snippet) Content() string { return s.content }

// Language returns the source language.
func (s Snippet) Language() string { return s.language }

// Name returns the qualified name of the extracted definition.
func (s Snippet) Name() string { return s.name }

// DerivesFrom returns the source files this snippet was extracted from.
func (s Snippet) DerivesFrom() []repository.File {
	result := make([]repository.File, len(s.derivesFrom))
	copy(result, s.derivesFrom)
	return result
}

// CreatedAt returns the creation timestamp.
func (s Snippet) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the last update timestamp.
func (s Snippet) UpdatedAt() time.Time { return s.updatedAt }

// WithID returns a new Snippet with the specified ID.
func (s Snippet) WithID(id int64) Snippet {
	s.id = id
	return s
}

// WithDerivesFrom returns a new Snippet with the given derivation links.
func (s Snippet) WithDerivesFrom(files []repository.File) Snippet {
	copied := make([]repository.File, len(files))
	copy(copied, files)
	s.derivesFrom = copied
	s.updatedAt = time.Now()
	return s
}

// ComputeSHA computes the content-addressed identifier for a snippet.
// Content is normalized (CRLF to LF, trailing whitespace stripped) before
// hashing so formatting-only differences do not fork identities.
func ComputeSHA(content, language string) string {
	hash := sha256.Sum256([]byte(NormalizeContent(content) + "\x00" + language))
	return hex.EncodeToString(hash[:])
}

// NormalizeContent applies the normalization used for snippet identity.
func NormalizeContent(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// Truncate caps content at MaxContentBytes without splitting a line.
func Truncate(content string) string {
	if len(content) <= MaxContentBytes {
		return content
	}
	cut := content[:MaxContentBytes]
	if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		cut = cut[:idx]
	}
	return cut
}
