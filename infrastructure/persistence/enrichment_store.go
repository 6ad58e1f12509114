package persistence

import (
	"context"
	"fmt"

	"github.com/repolens/repolens/domain/enrichment"
	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/internal/database"
	"gorm.io/gorm/clause"
)

// EnrichmentStore implements enrichment.Store on GORM.
type EnrichmentStore struct {
	repo database.Repository[enrichment.Enrichment, EnrichmentModel]
}

// NewEnrichmentStore creates a new EnrichmentStore.
func NewEnrichmentStore(db database.Database) *EnrichmentStore {
	return &EnrichmentStore{
		repo: database.NewRepository[enrichment.Enrichment, EnrichmentModel](db, EnrichmentMapper{}, "enrichment"),
	}
}

// Find retrieves enrichments matching the given options.
func (s *EnrichmentStore) Find(ctx context.Context, options ...repository.Option) ([]enrichment.Enrichment, error) {
	return s.repo.Find(ctx, options...)
}

// SaveAll upserts enrichments by (kind, target type, target ID),
// regenerating content in place. Empty enrichments are skipped.
func (s *EnrichmentStore) SaveAll(ctx context.Context, enrichments []enrichment.Enrichment) ([]enrichment.Enrichment, error) {
	models := make([]EnrichmentModel, 0, len(enrichments))
	for _, e := range enrichments {
		if e.IsEmpty() {
			continue
		}
		models = append(models, s.repo.Mapper().ToModel(e))
	}
	if len(models) == 0 {
		return nil, nil
	}

	result := s.repo.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}, {Name: "target_type"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "language", "updated_at"}),
	}).Create(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("save enrichments: %w", result.Error)
	}

	saved := make([]enrichment.Enrichment, len(models))
	for i, model := range models {
		found, err := s.repo.FindOne(ctx,
			enrichment.WithKind(enrichment.Kind(model.Kind)),
			enrichment.WithTargetType(enrichment.TargetType(model.TargetType)),
			enrichment.WithTargetID(model.TargetID),
		)
		if err != nil {
			return nil, err
		}
		saved[i] = found
	}
	return saved, nil
}

// Exists checks whether an enrichment of the given kind already covers the
// target. Used to make enrichment tasks idempotent.
func (s *EnrichmentStore) Exists(ctx context.Context, kind enrichment.Kind, targetType enrichment.TargetType, targetID string) (bool, error) {
	return s.repo.Exists(ctx,
		enrichment.WithKind(kind),
		enrichment.WithTargetType(targetType),
		enrichment.WithTargetID(targetID),
	)
}

// FindByTargets retrieves all enrichments attached to the given targets.
func (s *EnrichmentStore) FindByTargets(ctx context.Context, targetType enrichment.TargetType, targetIDs []string) ([]enrichment.Enrichment, error) {
	if len(targetIDs) == 0 {
		return nil, nil
	}
	return s.repo.Find(ctx,
		enrichment.WithTargetType(targetType),
		repository.WithConditionIn("target_id", targetIDs),
	)
}

// DeleteByTargets removes all enrichments attached to the given targets.
func (s *EnrichmentStore) DeleteByTargets(ctx context.Context, targetType enrichment.TargetType, targetIDs []string) error {
	if len(targetIDs) == 0 {
		return nil
	}
	return s.repo.DeleteBy(ctx,
		enrichment.WithTargetType(targetType),
		repository.WithConditionIn("target_id", targetIDs),
	)
}
