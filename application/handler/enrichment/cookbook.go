package enrichment

import (
	"context"
	"fmt"

	"github.com/repolens/repolens/application/handler"
	"github.com/repolens/repolens/domain/enrichment"
	"github.com/repolens/repolens/domain/task"
	"github.com/repolens/repolens/infrastructure/enricher"
)

// Cookbook generates a practical usage guide for a commit. It runs last in
// the commit workflow so the other commit documents can feed its prompt.
type Cookbook struct {
	deps Deps
}

// NewCookbook creates the handler.
func NewCookbook(deps Deps) *Cookbook {
	return &Cookbook{deps: deps.normalized()}
}

// Execute processes the create_cookbook operation.
func (h *Cookbook) Execute(ctx context.Context, payload map[string]any) (err error) {
	scope, err := handler.ExtractCommitScope(payload)
	if err != nil {
		return err
	}

	tracker := h.deps.TrackerFactory.ForOperation(task.OperationCreateCookbook, task.TrackableTypeRepository, scope.RepositoryID)
	defer func() { tracker.Finish(ctx, err) }()

	if h.deps.Pool == nil {
		tracker.Skip(ctx, "no enrichment endpoint configured")
		return nil
	}
	exists, err := h.deps.alreadyGenerated(ctx, enrichment.KindCookbook, scope.CommitSHA)
	if err != nil {
		return err
	}
	if exists {
		tracker.Skip(ctx, "cookbook already generated")
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

	repoCtx, _, err := h.deps.repoContext(ctx, clonePath, scope.CommitSHA)
	if err != nil {
		return err
	}
	prior, err := h.deps.Enrichments.FindByTargets(ctx, enrichment.TargetCommit, []string{scope.CommitSHA})
	if err != nil {
		return fmt.Errorf("load prior enrichments: %w", err)
	}

	return h.deps.generate(ctx, enrichment.KindCookbook, enricher.CookbookRequest(scope.CommitSHA, repoCtx, prior))
}
