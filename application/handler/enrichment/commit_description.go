package enrichment

import (
	"context"
	"fmt"

	"github.com/repolens/repolens/application/handler"
	"github.com/repolens/repolens/domain/enrichment"
	"github.com/repolens/repolens/domain/task"
	"github.com/repolens/repolens/infrastructure/enricher"
)

// CommitDescription generates a prose description of a commit from its
// message and diff.
type CommitDescription struct {
	deps Deps
}

// NewCommitDescription creates the handler.
func NewCommitDescription(deps Deps) *CommitDescription {
	return &CommitDescription{deps: deps.normalized()}
}

// Execute processes the create_commit_description operation.
func (h *CommitDescription) Execute(ctx context.Context, payload map[string]any) (err error) {
	scope, err := handler.ExtractCommitScope(payload)
	if err != nil {
		return err
	}

	tracker := h.deps.TrackerFactory.ForOperation(task.OperationCreateCommitDescription, task.TrackableTypeRepository, scope.RepositoryID)
	defer func() { tracker.Finish(ctx, err) }()

	if h.deps.Pool == nil {
		tracker.Skip(ctx, "no enrichment endpoint configured")
		return nil
	}
	exists, err := h.deps.alreadyGenerated(ctx, enrichment.KindCommitDescription, scope.CommitSHA)
	if err != nil {
		return err
	}
	if exists {
		tracker.Skip(ctx, "commit already described")
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

	commit, err := h.deps.Commits.GetBySHA(ctx, scope.RepositoryID, scope.CommitSHA)
	if err != nil {
		return fmt.Errorf("get commit: %w", err)
	}
	diff, err := h.deps.Scanner.CommitDiff(ctx, clonePath, scope.CommitSHA)
	if err != nil {
		return fmt.Errorf("commit diff: %w", err)
	}

	return h.deps.generate(ctx, enrichment.KindCommitDescription, enricher.CommitDescriptionRequest(commit, diff))
}
