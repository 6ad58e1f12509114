// Package enrichment implements the handlers for the commit-scoped
// enrichment operations. Each handler generates one document kind for a
// commit and is idempotent: a commit that already has the document is
// skipped.
package enrichment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/repolens/repolens/application/handler"
	"github.com/repolens/repolens/domain/enrichment"
	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/infrastructure/enricher"
)

// Scanner provides the git material enrichment prompts are built from.
type Scanner interface {
	CommitDiff(ctx context.Context, clonePath, commitSHA string) (string, error)
}

// Deps carries the dependencies shared by the commit enrichment handlers.
type Deps struct {
	Repos          repository.RepositoryStore
	Commits        repository.CommitStore
	Files          repository.FileStore
	Enrichments    enrichment.Store
	Scanner        Scanner
	Pool           *enricher.Pool
	TrackerFactory handler.TrackerFactory
	Logger         *slog.Logger
}

func (d Deps) normalized() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

// clonePath resolves the repository's working copy. An empty path means
// there is no working copy and the handler should skip.
func (d Deps) clonePath(ctx context.Context, repositoryID int64) (string, error) {
	repo, err := d.Repos.Get(ctx, repositoryID)
	if err != nil {
		return "", fmt.Errorf("get repository: %w", err)
	}
	if !repo.HasWorkingCopy() {
		return "", nil
	}
	return repo.WorkingCopy().Path(), nil
}

// alreadyGenerated reports whether the commit already has a document of
// the given kind.
func (d Deps) alreadyGenerated(ctx context.Context, kind enrichment.Kind, commitSHA string) (bool, error) {
	exists, err := d.Enrichments.Exists(ctx, kind, enrichment.TargetCommit, commitSHA)
	if err != nil {
		return false, fmt.Errorf("check existing %s: %w", kind, err)
	}
	return exists, nil
}

// generate runs a single request through the pool and persists the result.
// An empty response means generation failed; the task fails so a later
// cycle retries.
func (d Deps) generate(ctx context.Context, kind enrichment.Kind, req enricher.Request) error {
	responses, err := d.Pool.EnrichAll(ctx, []enricher.Request{req})
	if err != nil {
		return err
	}
	if len(responses) == 0 || responses[0].Content == "" {
		return fmt.Errorf("generate %s: provider returned no content", kind)
	}

	doc := enrichment.NewEnrichment(kind, enrichment.TargetCommit, req.ID, responses[0].Content)
	if _, err := d.Enrichments.SaveAll(ctx, []enrichment.Enrichment{doc}); err != nil {
		return fmt.Errorf("save %s: %w", kind, err)
	}

	d.Logger.Info("commit enrichment generated",
		slog.String("kind", string(kind)),
		slog.String("commit", handler.ShortSHA(req.ID)),
	)
	return nil
}

// repoContext loads the head commit's files and gathers the README and
// file-tree context used by the repository-level prompts.
func (d Deps) repoContext(ctx context.Context, clonePath, commitSHA string) (enricher.Context, []repository.File, error) {
	files, err := d.Files.FindByCommitSHA(ctx, commitSHA)
	if err != nil {
		return enricher.Context{}, nil, fmt.Errorf("load commit files: %w", err)
	}
	return enricher.GatherContext(clonePath, files), files, nil
}
