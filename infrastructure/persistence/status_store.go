package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/repolens/repolens/domain/task"
	"github.com/repolens/repolens/internal/database"
	"gorm.io/gorm"
)

// StatusStore implements task.StatusStore on GORM. Progress nodes form a
// tree; rows store only the parent ID and the hierarchy is rebuilt in
// memory on load.
type StatusStore struct {
	db     database.Database
	mapper TaskStatusMapper
}

// NewStatusStore creates a new StatusStore.
func NewStatusStore(db database.Database) *StatusStore {
	return &StatusStore{db: db}
}

// Get retrieves a status by ID, without its parent chain.
func (s *StatusStore) Get(ctx context.Context, id string) (task.Status, error) {
	var model TaskStatusModel
	err := s.db.Session(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return task.Status{}, fmt.Errorf("%w: task status", database.ErrNotFound)
		}
		return task.Status{}, fmt.Errorf("get task status: %w", err)
	}
	return s.mapper.ToDomain(model), nil
}

// Save creates or updates a status. The parent chain is saved first so the
// parent row always exists before a child references it.
func (s *StatusStore) Save(ctx context.Context, status task.Status) (task.Status, error) {
	if parent := status.Parent(); parent != nil {
		if _, err := s.Save(ctx, *parent); err != nil {
			return task.Status{}, err
		}
	}

	model := s.mapper.ToModel(status)
	if err := s.db.Session(ctx).Save(&model).Error; err != nil {
		return task.Status{}, fmt.Errorf("save task status: %w", err)
	}
	return status, nil
}

// Delete removes a status.
func (s *StatusStore) Delete(ctx context.Context, status task.Status) error {
	err := s.db.Session(ctx).Where("id = ?", status.ID()).Delete(&TaskStatusModel{}).Error
	if err != nil {
		return fmt.Errorf("delete task status: %w", err)
	}
	return nil
}

// DeleteByTrackable removes all statuses for a trackable entity.
func (s *StatusStore) DeleteByTrackable(ctx context.Context, trackableType task.TrackableType, trackableID int64) error {
	err := s.db.Session(ctx).
		Where("trackable_type = ? AND trackable_id = ?", string(trackableType), trackableID).
		Delete(&TaskStatusModel{}).Error
	if err != nil {
		return fmt.Errorf("delete task statuses: %w", err)
	}
	return nil
}

// LoadWithHierarchy loads statuses for a trackable entity and rebuilds
// parent-child links in memory. Parents outside the loaded set are left
// nil.
func (s *StatusStore) LoadWithHierarchy(ctx context.Context, trackableType task.TrackableType, trackableID int64) ([]task.Status, error) {
	var models []TaskStatusModel
	err := s.db.Session(ctx).
		Where("trackable_type = ? AND trackable_id = ?", string(trackableType), trackableID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("load task statuses: %w", err)
	}

	statuses := make([]task.Status, len(models))
	byID := make(map[string]*task.Status, len(models))
	for i, model := range models {
		statuses[i] = s.mapper.ToDomain(model)
		byID[model.ID] = &statuses[i]
	}
	for i, model := range models {
		if model.ParentID == nil {
			continue
		}
		if parent, ok := byID[*model.ParentID]; ok {
			statuses[i] = statuses[i].WithParent(parent)
		}
	}
	return statuses, nil
}

// FailNonTerminal flips every non-terminal status to failed with the given
// message. The worker runs this once on startup so progress left behind by
// a crash never reads as still running.
func (s *StatusStore) FailNonTerminal(ctx context.Context, message string) (int64, error) {
	result := s.db.Session(ctx).Model(&TaskStatusModel{}).
		Where("state NOT IN ?", []string{
			string(task.ReportingStateCompleted),
			string(task.ReportingStateFailed),
			string(task.ReportingStateSkipped),
		}).
		Updates(map[string]any{
			"state":      string(task.ReportingStateFailed),
			"error":      message,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("fail non-terminal statuses: %w", result.Error)
	}
	return result.RowsAffected, nil
}
