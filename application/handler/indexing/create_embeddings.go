package indexing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/repolens/repolens/application/handler"
	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/search"
	"github.com/repolens/repolens/domain/snippet"
	"github.com/repolens/repolens/domain/task"
)

// embeddingBatchSize caps how many snippets go into one embedding request.
const embeddingBatchSize = 32

// CreateCodeEmbeddings generates code-space embeddings for snippets of the
// head commit that do not have one yet.
type CreateCodeEmbeddings struct {
	branches       repository.BranchStore
	snippets       snippet.Store
	states         snippet.StateStore
	vectorIndex    search.VectorIndex
	embedder       search.Embedder
	trackerFactory handler.TrackerFactory
	logger         *slog.Logger
}

// NewCreateCodeEmbeddings creates the handler.
func NewCreateCodeEmbeddings(
	branches repository.BranchStore,
	snippets snippet.Store,
	states snippet.StateStore,
	vectorIndex search.VectorIndex,
	embedder search.Embedder,
	trackerFactory handler.TrackerFactory,
	logger *slog.Logger,
) *CreateCodeEmbeddings {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateCodeEmbeddings{
		branches:       branches,
		snippets:       snippets,
		states:         states,
		vectorIndex:    vectorIndex,
		embedder:       embedder,
		trackerFactory: trackerFactory,
		logger:         logger,
	}
}

// Execute processes the create_code_embeddings phase.
func (h *CreateCodeEmbeddings) Execute(ctx context.Context, payload map[string]any) (err error) {
	repoID, err := handler.RepositoryID(payload)
	if err != nil {
		return err
	}

	tracker := h.trackerFactory.ForOperation(task.OperationCreateCodeEmbeddings, task.TrackableTypeRepository, repoID)
	defer func() { tracker.Finish(ctx, err) }()

	if h.embedder == nil {
		tracker.Skip(ctx, "no embedding endpoint configured")
		return nil
	}

	pending, byID, err := pendingSnippets(ctx, h.branches, h.snippets, h.states, repoID, snippet.PhaseCodeEmbedding)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		tracker.Skip(ctx, "all snippets embedded")
		return nil
	}

	// Embeddings survive snippet re-extraction; only genuinely new
	// content goes to the endpoint.
	existing, err := h.vectorIndex.HasEmbeddings(ctx, search.EmbeddingTypeCode, pending)
	if err != nil {
		return fmt.Errorf("check existing embeddings: %w", err)
	}
	todo := make([]int64, 0, len(pending))
	for _, id := range pending {
		if !existing[id] {
			todo = append(todo, id)
		}
	}

	tracker.SetTotal(ctx, len(pending))

	done := 0
	for start := 0; start < len(todo); start += embeddingBatchSize {
		end := min(start+embeddingBatchSize, len(todo))
		batch := todo[start:end]

		documents := make([]search.Document, len(batch))
		texts := make([]string, len(batch))
		for i, id := range batch {
			documents[i] = search.NewDocument(id, byID[id].Content())
			texts[i] = byID[id].Content()
		}

		vectors, err := h.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch: %w", err)
		}
		if err := h.vectorIndex.Index(ctx, search.EmbeddingTypeCode, documents, vectors); err != nil {
			return fmt.Errorf("index embeddings: %w", err)
		}

		done += len(batch)
		tracker.SetCurrent(ctx, done, fmt.Sprintf("embedded %d/%d snippets", done, len(todo)))
	}

	if err = markCompleted(ctx, h.states, pending, snippet.PhaseCodeEmbedding); err != nil {
		return err
	}

	h.logger.Info("code embeddings created",
		slog.Int64("repository_id", repoID),
		slog.Int("embedded", len(todo)),
		slog.Int("reused", len(pending)-len(todo)),
	)
	return nil
}
