package enrichment

import (
	"context"

	"github.com/repolens/repolens/application/handler"
	"github.com/repolens/repolens/domain/enrichment"
	"github.com/repolens/repolens/domain/task"
	"github.com/repolens/repolens/infrastructure/enricher"
)

// DatabaseSchemaDoc generates a description of a commit's data model from
// schema definitions found in the working copy.
type DatabaseSchemaDoc struct {
	deps Deps
}

// NewDatabaseSchemaDoc creates the handler.
func NewDatabaseSchemaDoc(deps Deps) *DatabaseSchemaDoc {
	return &DatabaseSchemaDoc{deps: deps.normalized()}
}

// Execute processes the create_database_schema_doc operation.
func (h *DatabaseSchemaDoc) Execute(ctx context.Context, payload map[string]any) (err error) {
	scope, err := handler.ExtractCommitScope(payload)
	if err != nil {
		return err
	}

	tracker := h.deps.TrackerFactory.ForOperation(task.OperationCreateDatabaseSchemaDoc, task.TrackableTypeRepository, scope.RepositoryID)
	defer func() { tracker.Finish(ctx, err) }()

	if h.deps.Pool == nil {
		tracker.Skip(ctx, "no enrichment endpoint configured")
		return nil
	}
	exists, err := h.deps.alreadyGenerated(ctx, enrichment.KindDatabaseSchema, scope.CommitSHA)
	if err != nil {
		return err
	}
	if exists {
		tracker.Skip(ctx, "database schema doc already generated")
		return nil
	}

	clonePath, err := h.deps.clonePath(ctx, scope.RepositoryID)
	if err != nil {
		return err
	}
	if clonePath == "" {
		tracker.Skip(ctx, "no working copy")
		return nil
	}

	report := enricher.SchemaReport(clonePath)
	if report == "" {
		tracker.Skip(ctx, "no schema definitions found")
		return nil
	}

	return h.deps.generate(ctx, enrichment.KindDatabaseSchema, enricher.DatabaseSchemaRequest(scope.CommitSHA, report))
}
