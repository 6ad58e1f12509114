package indexing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/repolens/repolens/application/handler"
	"github.com/repolens/repolens/domain/enrichment"
	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/search"
	"github.com/repolens/repolens/domain/snippet"
	"github.com/repolens/repolens/domain/task"
	"github.com/repolens/repolens/infrastructure/enricher"
)

// EnrichSnippets generates a natural-language summary for each snippet of
// the head commit and indexes the summaries in the text embedding space.
// The two phases share a handler because the text embedding is derived
// from the summary, never from the raw code.
type EnrichSnippets struct {
	branches       repository.BranchStore
	snippets       snippet.Store
	states         snippet.StateStore
	enrichments    enrichment.Store
	vectorIndex    search.VectorIndex
	embedder       search.Embedder
	pool           *enricher.Pool
	trackerFactory handler.TrackerFactory
	logger         *slog.Logger
}

// EnrichSnippetsParams carries the handler's dependencies.
type EnrichSnippetsParams struct {
	Branches       repository.BranchStore
	Snippets       snippet.Store
	States         snippet.StateStore
	Enrichments    enrichment.Store
	VectorIndex    search.VectorIndex
	Embedder       search.Embedder
	Pool           *enricher.Pool
	TrackerFactory handler.TrackerFactory
	Logger         *slog.Logger
}

// NewEnrichSnippets creates the handler.
func NewEnrichSnippets(p EnrichSnippetsParams) *EnrichSnippets {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichSnippets{
		branches:       p.Branches,
		snippets:       p.Snippets,
		states:         p.States,
		enrichments:    p.Enrichments,
		vectorIndex:    p.VectorIndex,
		embedder:       p.Embedder,
		pool:           p.Pool,
		trackerFactory: p.TrackerFactory,
		logger:         logger,
	}
}

// Execute processes the enrich_snippets phase.
func (h *EnrichSnippets) Execute(ctx context.Context, payload map[string]any) (err error) {
	repoID, err := handler.RepositoryID(payload)
	if err != nil {
		return err
	}

	tracker := h.trackerFactory.ForOperation(task.OperationEnrichSnippets, task.TrackableTypeRepository, repoID)
	defer func() { tracker.Finish(ctx, err) }()

	if h.pool == nil && h.embedder == nil {
		tracker.Skip(ctx, "no enrichment or embedding endpoint configured")
		return nil
	}

	summarized, failed, err := h.generateSummaries(ctx, repoID, tracker)
	if err != nil {
		return err
	}

	// Text embeddings run over everything still pending that phase, which
	// covers both this run's summaries and any backlog generated while the
	// embedding endpoint was unconfigured.
	embedded := 0
	if h.embedder != nil {
		embedded, err = h.embedPendingSummaries(ctx, repoID)
		if err != nil {
			return err
		}
	}

	if summarized == 0 && failed == 0 && embedded == 0 {
		tracker.Skip(ctx, "all snippets enriched")
		return nil
	}

	h.logger.Info("snippets enriched",
		slog.Int64("repository_id", repoID),
		slog.Int("summarized", summarized),
		slog.Int("failed", failed),
		slog.Int("embedded", embedded),
	)
	return nil
}

// generateSummaries runs the enrichment pool over snippets lacking a
// summary and persists the results. Snippets whose generation failed stay
// pending so the next cycle retries them.
func (h *EnrichSnippets) generateSummaries(ctx context.Context, repoID int64, tracker handler.Tracker) (summarized, failed int, err error) {
	if h.pool == nil {
		return 0, 0, nil
	}

	pending, byID, err := pendingSnippets(ctx, h.branches, h.snippets, h.states, repoID, snippet.PhaseEnrichment)
	if err != nil {
		return 0, 0, err
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	toEnrich := make([]snippet.Snippet, 0, len(pending))
	idBySHA := make(map[string]int64, len(pending))
	for _, id := range pending {
		snip := byID[id]
		toEnrich = append(toEnrich, snip)
		idBySHA[snip.SHA()] = id
	}

	tracker.SetTotal(ctx, len(toEnrich))

	summaries := make([]enrichment.Enrichment, 0, len(toEnrich))
	completed := make([]int64, 0, len(toEnrich))
	done := 0
	for resp := range h.pool.Stream(ctx, enricher.SnippetSummaryRequests(toEnrich)) {
		done++
		tracker.SetCurrent(ctx, done, fmt.Sprintf("summarized %d/%d snippets", done, len(toEnrich)))
		if resp.Content == "" {
			continue
		}
		summaries = append(summaries, enrichment.NewEnrichment(
			enrichment.KindSnippetSummary, enrichment.TargetSnippet, resp.ID, resp.Content,
		))
		completed = append(completed, idBySHA[resp.ID])
	}
	if ctx.Err() != nil {
		return 0, 0, ctx.Err()
	}

	if len(summaries) > 0 {
		if _, err := h.enrichments.SaveAll(ctx, summaries); err != nil {
			return 0, 0, fmt.Errorf("save summaries: %w", err)
		}
	}
	if err := markCompleted(ctx, h.states, completed, snippet.PhaseEnrichment); err != nil {
		return 0, 0, err
	}
	return len(summaries), len(toEnrich) - len(summaries), nil
}

// embedPendingSummaries indexes stored summaries for snippets still
// pending the text embedding phase. Only snippets whose vectors were
// actually written get the phase marked completed; snippets without a
// stored summary stay pending.
func (h *EnrichSnippets) embedPendingSummaries(ctx context.Context, repoID int64) (int, error) {
	pending, byID, err := pendingSnippets(ctx, h.branches, h.snippets, h.states, repoID, snippet.PhaseTextEmbedding)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	idBySHA := make(map[string]int64, len(pending))
	shas := make([]string, 0, len(pending))
	for _, id := range pending {
		sha := byID[id].SHA()
		idBySHA[sha] = id
		shas = append(shas, sha)
	}

	stored, err := h.enrichments.FindByTargets(ctx, enrichment.TargetSnippet, shas)
	if err != nil {
		return 0, fmt.Errorf("load summaries: %w", err)
	}

	summaryBySHA := make(map[string]string, len(stored))
	for _, e := range stored {
		if e.Kind() == enrichment.KindSnippetSummary && e.Content() != "" {
			summaryBySHA[e.TargetID()] = e.Content()
		}
	}
	if len(summaryBySHA) == 0 {
		return 0, nil
	}

	withSummary := make([]string, 0, len(summaryBySHA))
	for sha := range summaryBySHA {
		withSummary = append(withSummary, sha)
	}

	for start := 0; start < len(withSummary); start += embeddingBatchSize {
		end := min(start+embeddingBatchSize, len(withSummary))
		batch := withSummary[start:end]

		documents := make([]search.Document, len(batch))
		texts := make([]string, len(batch))
		for i, sha := range batch {
			documents[i] = search.NewDocument(idBySHA[sha], summaryBySHA[sha])
			texts[i] = summaryBySHA[sha]
		}

		vectors, err := h.embedder.Embed(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed summaries: %w", err)
		}
		if err := h.vectorIndex.Index(ctx, search.EmbeddingTypeText, documents, vectors); err != nil {
			return 0, fmt.Errorf("index summaries: %w", err)
		}

		ids := make([]int64, len(batch))
		for i, sha := range batch {
			ids[i] = idBySHA[sha]
		}
		if err := markCompleted(ctx, h.states, ids, snippet.PhaseTextEmbedding); err != nil {
			return 0, err
		}
	}
	return len(withSummary), nil
}
