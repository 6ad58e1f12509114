package enrichment

import (
	"context"

	"github.com/repolens/repolens/application/handler"
	"github.com/repolens/repolens/domain/enrichment"
	"github.com/repolens/repolens/domain/task"
	"github.com/repolens/repolens/infrastructure/enricher"
)

// ArchitectureDoc generates an architecture narrative for a commit from
// the repository's README and file tree.
type ArchitectureDoc struct {
	deps Deps
}

// NewArchitectureDoc creates the handler.
func NewArchitectureDoc(deps Deps) *ArchitectureDoc {
	return &ArchitectureDoc{deps: deps.normalized()}
}

// Execute processes the create_architecture_doc operation.
func (h *ArchitectureDoc) Execute(ctx context.Context, payload map[string]any) (err error) {
	scope, err := handler.ExtractCommitScope(payload)
	if err != nil {
		return err
	}

	tracker := h.deps.TrackerFactory.ForOperation(task.OperationCreateArchitectureDoc, task.TrackableTypeRepository, scope.RepositoryID)
	defer func() { tracker.Finish(ctx, err) }()

	if h.deps.Pool == nil {
		tracker.Skip(ctx, "no enrichment endpoint configured")
		return nil
	}
	exists, err := h.deps.alreadyGenerated(ctx, enrichment.KindArchitecture, scope.CommitSHA)
	if err != nil {
		return err
	}
	if exists {
		tracker.Skip(ctx, "architecture doc already generated")
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
	if repoCtx.FileTree == "" {
		tracker.Skip(ctx, "commit has no recorded files")
		return nil
	}

	return h.deps.generate(ctx, enrichment.KindArchitecture, enricher.ArchitectureRequest(scope.CommitSHA, repoCtx))
}
