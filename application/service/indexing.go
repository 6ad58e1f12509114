package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/repolens/repolens/domain/enrichment"
	"github.com/repolens/repolens/domain/task"
)

// Indexing schedules repository indexing cycles and commit-scoped
// enrichment work on the queue.
type Indexing struct {
	queue       *Queue
	enrichments enrichment.Store
	logger      *slog.Logger
}

// NewIndexing creates an indexing scheduler.
func NewIndexing(queue *Queue, enrichments enrichment.Store, logger *slog.Logger) *Indexing {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexing{queue: queue, enrichments: enrichments, logger: logger}
}

// EnqueueCycle queues the five indexing phases for a repository. The
// phases share one payload, so identical cycles collapse onto any cycle
// already queued.
func (s *Indexing) EnqueueCycle(ctx context.Context, repositoryID int64, priority task.Priority) error {
	payload := map[string]any{"repository_id": repositoryID}
	return s.queue.EnqueueOperations(ctx, task.IndexWorkflow(), priority, payload)
}

// EnqueueCommitEnrichments queues the commit-scoped enrichment operations
// for a commit, skipping any whose enrichment already exists. Enrichments
// are generated once per commit; re-runs of the cycle must not redo them.
func (s *Indexing) EnqueueCommitEnrichments(ctx context.Context, repositoryID int64, commitSHA string, priority task.Priority) error {
	var pending []task.Operation
	for _, op := range task.CommitEnrichmentWorkflow() {
		kind, ok := enrichmentKindFor(op)
		if !ok {
			continue
		}
		exists, err := s.enrichments.Exists(ctx, kind, enrichment.TargetCommit, commitSHA)
		if err != nil {
			return fmt.Errorf("check %s for commit %s: %w", kind, commitSHA, err)
		}
		if exists {
			continue
		}
		pending = append(pending, op)
	}

	if len(pending) == 0 {
		s.logger.Debug("commit enrichments already present", slog.String("commit_sha", commitSHA))
		return nil
	}

	payload := map[string]any{
		"repository_id": repositoryID,
		"commit_sha":    commitSHA,
	}
	return s.queue.EnqueueOperations(ctx, pending, priority, payload)
}

// enrichmentKindFor maps a commit operation to the enrichment kind it
// produces.
func enrichmentKindFor(op task.Operation) (enrichment.Kind, bool) {
	switch op {
	case task.OperationCreateCommitDescription:
		return enrichment.KindCommitDescription, true
	case task.OperationCreateArchitectureDoc:
		return enrichment.KindArchitecture, true
	case task.OperationCreateAPIDocs:
		return enrichment.KindAPIDocs, true
	case task.OperationCreateDatabaseSchemaDoc:
		return enrichment.KindDatabaseSchema, true
	case task.OperationCreateCookbook:
		return enrichment.KindCookbook, true
	default:
		return "", false
	}
}
