package enrichment

import (
	"context"
	"fmt"

	"github.com/repolens/repolens/application/handler"
	"github.com/repolens/repolens/domain/enrichment"
	"github.com/repolens/repolens/domain/task"
	"github.com/repolens/repolens/infrastructure/enricher"
)

// APIDocs generates documentation of a commit's public API surface from
// declarations extracted out of its source files.
type APIDocs struct {
	deps Deps
}

// NewAPIDocs creates the handler.
func NewAPIDocs(deps Deps) *APIDocs {
	return &APIDocs{deps: deps.normalized()}
}

// Execute processes the create_api_docs operation.
func (h *APIDocs) Execute(ctx context.Context, payload map[string]any) (err error) {
	scope, err := handler.ExtractCommitScope(payload)
	if err != nil {
		return err
	}

	tracker := h.deps.TrackerFactory.ForOperation(task.OperationCreateAPIDocs, task.TrackableTypeRepository, scope.RepositoryID)
	defer func() { tracker.Finish(ctx, err) }()

	if h.deps.Pool == nil {
		tracker.Skip(ctx, "no enrichment endpoint configured")
		return nil
	}
	exists, err := h.deps.alreadyGenerated(ctx, enrichment.KindAPIDocs, scope.CommitSHA)
	if err != nil {
		return err
	}
	if exists {
		tracker.Skip(ctx, "api docs already generated")
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

	files, err := h.deps.Files.FindByCommitSHA(ctx, scope.CommitSHA)
	if err != nil {
		return fmt.Errorf("load commit files: %w", err)
	}

	report := enricher.PublicAPIReport(clonePath, files)
	if report == "" {
		tracker.Skip(ctx, "no public api declarations found")
		return nil
	}

	return h.deps.generate(ctx, enrichment.KindAPIDocs, enricher.APIDocsRequest(scope.CommitSHA, report))
}
