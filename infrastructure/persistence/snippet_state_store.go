package persistence

import (
	"context"
	"fmt"

	"github.com/repolens/repolens/domain/snippet"
	"github.com/repolens/repolens/internal/database"
	"gorm.io/gorm/clause"
)

// SnippetStateStore implements snippet.StateStore on GORM.
type SnippetStateStore struct {
	db     database.Database
	mapper SnippetStateMapper
}

// NewSnippetStateStore creates a new SnippetStateStore.
func NewSnippetStateStore(db database.Database) *SnippetStateStore {
	return &SnippetStateStore{db: db}
}

// Upsert writes phase states, replacing any existing (snippet, phase) rows.
func (s *SnippetStateStore) Upsert(ctx context.Context, states []snippet.State) error {
	if len(states) == 0 {
		return nil
	}

	models := make([]SnippetStateModel, len(states))
	for i, state := range states {
		models[i] = s.mapper.ToModel(state)
	}

	result := s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "snippet_id"}, {Name: "phase"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&models)
	if result.Error != nil {
		return fmt.Errorf("upsert snippet states: %w", result.Error)
	}
	return nil
}

// FindBySnippetIDs retrieves phase states for the given snippets.
func (s *SnippetStateStore) FindBySnippetIDs(ctx context.Context, snippetIDs []int64, phase snippet.Phase) ([]snippet.State, error) {
	if len(snippetIDs) == 0 {
		return nil, nil
	}

	var models []SnippetStateModel
	err := s.db.Session(ctx).
		Where("snippet_id IN ? AND phase = ?", snippetIDs, string(phase)).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("find snippet states: %w", err)
	}

	states := make([]snippet.State, len(models))
	for i, model := range models {
		states[i] = s.mapper.ToDomain(model)
	}
	return states, nil
}

// PendingSnippetIDs returns the subset of snippetIDs not yet completed for
// the phase. Snippets with no state row count as pending.
func (s *SnippetStateStore) PendingSnippetIDs(ctx context.Context, phase snippet.Phase, snippetIDs []int64) ([]int64, error) {
	if len(snippetIDs) == 0 {
		return nil, nil
	}

	var completed []int64
	err := s.db.Session(ctx).Model(&SnippetStateModel{}).
		Where("snippet_id IN ? AND phase = ? AND state = ?",
			snippetIDs, string(phase), string(snippet.StateCompleted)).
		Pluck("snippet_id", &completed).Error
	if err != nil {
		return nil, fmt.Errorf("find completed snippet states: %w", err)
	}

	done := make(map[int64]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}

	var pending []int64
	for _, id := range snippetIDs {
		if !done[id] {
			pending = append(pending, id)
		}
	}
	return pending, nil
}
