// Package repository implements the handlers for repository lifecycle
// operations.
package repository

import (
	"context"
	"log/slog"

	"github.com/repolens/repolens/application/handler"
	"github.com/repolens/repolens/application/service"
	"github.com/repolens/repolens/domain/task"
)

// Sync queues a fresh indexing cycle for a repository. Periodic sync runs
// through this handler so the cycle inherits background priority.
type Sync struct {
	indexing       *service.Indexing
	trackerFactory handler.TrackerFactory
	logger         *slog.Logger
}

// NewSync creates the handler.
func NewSync(indexing *service.Indexing, trackerFactory handler.TrackerFactory, logger *slog.Logger) *Sync {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sync{indexing: indexing, trackerFactory: trackerFactory, logger: logger}
}

// Execute processes the sync operation.
func (h *Sync) Execute(ctx context.Context, payload map[string]any) (err error) {
	repoID, err := handler.RepositoryID(payload)
	if err != nil {
		return err
	}

	tracker := h.trackerFactory.ForOperation(task.OperationSyncRepository, task.TrackableTypeRepository, repoID)
	defer func() { tracker.Finish(ctx, err) }()

	if err = h.indexing.EnqueueCycle(ctx, repoID, task.PriorityBackground); err != nil {
		return err
	}

	h.logger.Debug("sync cycle queued", slog.Int64("repository_id", repoID))
	return nil
}
