package enrichment

import (
	"context"

	"github.com/repolens/repolens/domain/repository"
)

// Store defines operations for enrichment persistence.
type Store interface {
	Find(ctx context.Context, options ...repository.Option) ([]Enrichment, error)
	SaveAll(ctx context.Context, enrichments []Enrichment) ([]Enrichment, error)
	Exists(ctx context.Context, kind Kind, targetType TargetType, targetID string) (bool, error)
	FindByTargets(ctx context.Context, targetType TargetType, targetIDs []string) ([]Enrichment, error)
	DeleteByTargets(ctx context.Context, targetType TargetType, targetIDs []string) error
}

// WithKind filters by the "kind" column.
func WithKind(kind Kind) repository.Option {
	return repository.WithCondition("kind", string(kind))
}

// WithTargetType filters by the "target_type" column.
func WithTargetType(t TargetType) repository.Option {
	return repository.WithCondition("target_type", string(t))
}

// WithTargetID filters by the "target_id" column.
func WithTargetID(id string) repository.Option {
	return repository.WithCondition("target_id", id)
}
