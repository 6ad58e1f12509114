package repository

import (
	"context"
	"log/slog"

	"github.com/repolens/repolens/application/handler"
	"github.com/repolens/repolens/application/service"
	"github.com/repolens/repolens/domain/task"
)

// Delete removes a repository and everything derived from it. Deletion
// runs on the queue so API calls return immediately and the cascade never
// races a concurrent indexing task.
type Delete struct {
	repositories   *service.RepositoryService
	trackerFactory handler.TrackerFactory
	logger         *slog.Logger
}

// NewDelete creates the handler.
func NewDelete(repositories *service.RepositoryService, trackerFactory handler.TrackerFactory, logger *slog.Logger) *Delete {
	if logger == nil {
		logger = slog.Default()
	}
	return &Delete{repositories: repositories, trackerFactory: trackerFactory, logger: logger}
}

// Execute processes the delete operation.
func (h *Delete) Execute(ctx context.Context, payload map[string]any) (err error) {
	repoID, err := handler.RepositoryID(payload)
	if err != nil {
		return err
	}

	tracker := h.trackerFactory.ForOperation(task.OperationDeleteRepository, task.TrackableTypeRepository, repoID)
	defer func() { tracker.Finish(ctx, err) }()

	if err = h.repositories.Delete(ctx, repoID); err != nil {
		return err
	}

	h.logger.Info("repository deleted", slog.Int64("repository_id", repoID))
	return nil
}
