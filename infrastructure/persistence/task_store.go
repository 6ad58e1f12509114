package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/task"
	"github.com/repolens/repolens/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskStore implements task.TaskStore on GORM.
type TaskStore struct {
	db   database.Database
	repo database.Repository[task.Task, TaskModel]
}

// NewTaskStore creates a new TaskStore.
func NewTaskStore(db database.Database) *TaskStore {
	return &TaskStore{
		db:   db,
		repo: database.NewRepository[task.Task, TaskModel](db, TaskMapper{}, "task"),
	}
}

// Get retrieves a task by ID.
func (s *TaskStore) Get(ctx context.Context, id int64) (task.Task, error) {
	return s.repo.FindOne(ctx, repository.WithID(id))
}

// FindPending retrieves pending tasks in dequeue order.
func (s *TaskStore) FindPending(ctx context.Context, options ...repository.Option) ([]task.Task, error) {
	ordered := append(options,
		repository.WithOrderDesc("priority"),
		repository.WithOrderAsc("created_at"),
	)
	return s.repo.Find(ctx, ordered...)
}

// Save inserts a task, deduplicating on the dedup key. When a task with
// the same key is already queued, the existing row wins: its priority and
// queue position are untouched and it is returned to the caller.
func (s *TaskStore) Save(ctx context.Context, t task.Task) (task.Task, error) {
	model := s.repo.Mapper().ToModel(t)

	result := s.repo.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedup_key"}},
		DoNothing: true,
	}).Create(&model)
	if result.Error != nil {
		return task.Task{}, fmt.Errorf("save task: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return t.WithID(model.ID), nil
	}
	return s.repo.FindOne(ctx, repository.WithCondition("dedup_key", t.DedupKey()))
}

// Delete removes a task.
func (s *TaskStore) Delete(ctx context.Context, t task.Task) error {
	return s.repo.DeleteBy(ctx, repository.WithID(t.ID()))
}

// DeleteBy removes tasks matching the given options.
func (s *TaskStore) DeleteBy(ctx context.Context, options ...repository.Option) error {
	return s.repo.DeleteBy(ctx, options...)
}

// CountPending returns the number of pending tasks.
func (s *TaskStore) CountPending(ctx context.Context, options ...repository.Option) (int64, error) {
	return s.repo.Count(ctx, options...)
}

// Dequeue atomically claims the highest priority task: the row is selected
// and deleted in one transaction, so two workers never process the same
// task. Ties break on creation order.
func (s *TaskStore) Dequeue(ctx context.Context) (task.Task, bool, error) {
	var claimed task.Task
	found := false

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var model TaskModel
		query := tx.Order("priority DESC, created_at ASC")
		if s.db.IsPostgres() {
			// Concurrent workers skip rows another transaction has claimed
			// instead of blocking on them.
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		result := query.First(&model)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("select next task: %w", result.Error)
		}

		if err := tx.Delete(&TaskModel{}, model.ID).Error; err != nil {
			return fmt.Errorf("claim task: %w", err)
		}

		claimed = s.repo.Mapper().ToDomain(model)
		found = true
		return nil
	})
	if err != nil {
		return task.Task{}, false, err
	}
	return claimed, found, nil
}
