// Package repository provides Git repository domain types.
package repository

import (
	"time"
)

// Repository represents a tracked Git repository (aggregate root).
// Identity is the sanitized remote URI.
type Repository struct {
	id            int64
	remoteURI     string
	sanitizedURI  string
	workingCopy   WorkingCopy
	lastIndexedAt *time.Time
	createdAt     time.Time
	updatedAt     time.Time
}

// NewRepository creates a new Repository from a raw remote URI.
// The URI is sanitized; credentials never reach persistence.
func NewRepository(remoteURI string) (Repository, error) {
	sanitized, err := SanitizeRemoteURI(remoteURI)
	if err != nil {
		return Repository{}, err
	}
	now := time.Now()
	return Repository{
		remoteURI:    remoteURI,
		sanitizedURI: sanitized,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructRepository reconstructs a Repository from persistence.
func ReconstructRepository(
	id int64,
	remoteURI, sanitizedURI string,
	workingCopy WorkingCopy,
	lastIndexedAt *time.Time,
	createdAt, updatedAt time.Time,
) Repository {
	return Repository{
		id:            id,
		remoteURI:     remoteURI,
		sanitizedURI:  sanitizedURI,
		workingCopy:   workingCopy,
		lastIndexedAt: lastIndexedAt,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// ID returns the repository ID.
func (r Repository) ID() int64 { return r.id }

// RemoteURI returns the remote URI as provided by the user.
func (r Repository) RemoteURI() string { return r.remoteURI }

// SanitizedRemoteURI returns the credential-free remote URI.
func (r Repository) SanitizedRemoteURI() string { return r.sanitizedURI }

// WorkingCopy returns the local working copy.
func (r Repository) WorkingCopy() WorkingCopy { return r.workingCopy }

// LastIndexedAt returns when the repository was last indexed, or nil.
func (r Repository) LastIndexedAt() *time.Time { return r.lastIndexedAt }

// CreatedAt returns the creation timestamp.
func (r Repository) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last update timestamp.
func (r Repository) UpdatedAt() time.Time { return r.updatedAt }

// HasWorkingCopy returns true if a working copy exists.
func (r Repository) HasWorkingCopy() bool { return !r.workingCopy.IsEmpty() }

// WithWorkingCopy returns a new Repository with the specified working copy.
func (r Repository) WithWorkingCopy(wc WorkingCopy) Repository {
	r.workingCopy = wc
	r.updatedAt = time.Now()
	return r
}

// WithLastIndexedAt returns a new Repository marked as indexed at t.
func (r Repository) WithLastIndexedAt(t time.Time) Repository {
	r.lastIndexedAt = &t
	r.updatedAt = time.Now()
	return r
}

// WithID returns a new Repository with the specified ID (after persistence).
func (r Repository) WithID(id int64) Repository {
	r.id = id
	return r
}
