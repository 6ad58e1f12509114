// Package service provides application services that orchestrate domain
// operations.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/task"
)

// Queue enqueues and manages durable tasks.
type Queue struct {
	store  task.TaskStore
	logger *slog.Logger
}

// NewQueue creates a queue service.
func NewQueue(store task.TaskStore, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{store: store, logger: logger}
}

// Enqueue adds a task. Submissions with an existing dedup key keep the
// queued row, so re-enqueueing is idempotent and never reorders the queue.
func (s *Queue) Enqueue(ctx context.Context, t task.Task) error {
	if _, err := s.store.Save(ctx, t); err != nil {
		return err
	}
	s.logger.Debug("task enqueued",
		slog.String("operation", t.Operation().String()),
		slog.String("dedup_key", t.DedupKey()),
	)
	return nil
}

// EnqueueOperations queues a workflow of operations sharing a payload. The
// first operation gets the largest priority offset, so a priority-ordered
// dequeue processes the workflow in list order.
func (s *Queue) EnqueueOperations(ctx context.Context, operations []task.Operation, basePriority task.Priority, payload map[string]any) error {
	offset := len(operations) * 10
	for _, op := range operations {
		t := task.NewTask(op, int(basePriority)+offset, payload)
		if err := s.Enqueue(ctx, t); err != nil {
			return fmt.Errorf("enqueue %s: %w", op, err)
		}
		offset -= 10
	}
	return nil
}

// List returns pending tasks sorted by priority then age.
func (s *Queue) List(ctx context.Context, limit, offset int) ([]task.Task, error) {
	var options []repository.Option
	if limit > 0 {
		options = append(options, repository.WithLimit(limit), repository.WithOffset(offset))
	}
	return s.store.FindPending(ctx, options...)
}

// Count returns the number of pending tasks.
func (s *Queue) Count(ctx context.Context) (int64, error) {
	return s.store.CountPending(ctx)
}

// DrainForRepository removes every pending task that carries the given
// repository_id, including any still-queued phases of an indexing cycle.
func (s *Queue) DrainForRepository(ctx context.Context, repositoryID int64) (int, error) {
	tasks, err := s.store.FindPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("find pending tasks: %w", err)
	}

	removed := 0
	for _, t := range tasks {
		id, ok := t.RepositoryID()
		if !ok || id != repositoryID {
			continue
		}
		if err := s.store.Delete(ctx, t); err != nil {
			return removed, fmt.Errorf("delete task %d: %w", t.ID(), err)
		}
		removed++
	}
	return removed, nil
}
