package task

import (
	"context"

	"github.com/repolens/repolens/domain/repository"
)

// TaskStore defines the interface for Task persistence operations.
type TaskStore interface {
	// Get retrieves a task by ID.
	Get(ctx context.Context, id int64) (Task, error)

	// FindPending retrieves pending tasks ordered by priority.
	FindPending(ctx context.Context, options ...repository.Option) ([]Task, error)

	// Save upserts a task on its dedup key. When a task with the same key
	// already exists, the existing row is kept (its priority and position
	// are preserved) and returned.
	Save(ctx context.Context, task Task) (Task, error)

	// Delete removes a task.
	Delete(ctx context.Context, task Task) error

	// DeleteBy removes tasks matching the given options.
	DeleteBy(ctx context.Context, options ...repository.Option) error

	// CountPending returns the number of pending tasks.
	CountPending(ctx context.Context, options ...repository.Option) (int64, error)

	// Dequeue atomically retrieves and removes the highest priority task.
	// Returns false when the queue is empty.
	Dequeue(ctx context.Context) (Task, bool, error)
}

// StatusStore defines the interface for progress node persistence.
type StatusStore interface {
	// Get retrieves a status by ID.
	Get(ctx context.Context, id string) (Status, error)

	// Save creates or updates a status. Parents are saved first.
	Save(ctx context.Context, status Status) (Status, error)

	// Delete removes a status.
	Delete(ctx context.Context, status Status) error

	// DeleteByTrackable removes statuses for a trackable entity.
	DeleteByTrackable(ctx context.Context, trackableType TrackableType, trackableID int64) error

	// LoadWithHierarchy loads statuses for a trackable entity with
	// parent-child links reconstructed in memory.
	LoadWithHierarchy(ctx context.Context, trackableType TrackableType, trackableID int64) ([]Status, error)

	// FailNonTerminal flips every non-terminal status to failed with the
	// given message. Called on worker startup to sweep stale nodes.
	FailNonTerminal(ctx context.Context, message string) (int64, error)
}
