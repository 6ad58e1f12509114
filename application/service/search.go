package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/repolens/repolens/domain/enrichment"
	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/search"
	"github.com/repolens/repolens/domain/snippet"
)

// DefaultTopK is the result count used when a query does not request one.
const DefaultTopK = 10

// FilterResolver translates search filters into the set of snippet IDs
// matching them. The second return is false when the filters are empty and
// no restriction applies.
type FilterResolver interface {
	ResolveSnippetIDs(ctx context.Context, filters search.Filters) (map[int64]bool, bool, error)
}

// AuthorResolver resolves the commit authors behind snippets.
type AuthorResolver interface {
	AuthorsBySnippetIDs(ctx context.Context, snippetIDs []int64) (map[int64][]string, error)
}

// Hit is one hydrated search result.
type Hit struct {
	snippet       snippet.Snippet
	score         float64
	engineScores  map[search.Type]float64
	summary       string
	authors       []string
	filePath      string
	repositoryURI string
}

// Snippet returns the matched snippet.
func (h Hit) Snippet() snippet.Snippet { return h.snippet }

// Score returns the fused score.
func (h Hit) Score() float64 { return h.score }

// EngineScores returns the raw score per engine that ranked the snippet.
func (h Hit) EngineScores() map[search.Type]float64 { return h.engineScores }

// Summary returns the generated snippet summary, or empty when none exists.
func (h Hit) Summary() string { return h.summary }

// Authors returns the commit author names behind the snippet.
func (h Hit) Authors() []string { return h.authors }

// FilePath returns the path of the first file the snippet derives from.
func (h Hit) FilePath() string { return h.filePath }

// RepositoryURI returns the sanitized URI of the source repository.
func (h Hit) RepositoryURI() string { return h.repositoryURI }

// Search dispatches queries to the keyword and vector engines, fuses the
// ranked lists with RRF, and hydrates hits with snippet and source
// metadata.
type Search struct {
	keywordIndex search.KeywordIndex
	vectorIndex  search.VectorIndex
	embedder     search.Embedder
	snippets     snippet.Store
	repos        repository.RepositoryStore
	enrichments  enrichment.Store
	authors      AuthorResolver
	filters      FilterResolver
	fusion       search.Fusion
	logger       *slog.Logger
}

// SearchParams carries the search service dependencies.
type SearchParams struct {
	KeywordIndex search.KeywordIndex
	VectorIndex  search.VectorIndex
	Embedder     search.Embedder
	Snippets     snippet.Store
	Repositories repository.RepositoryStore
	Enrichments  enrichment.Store
	Authors      AuthorResolver
	Filters      FilterResolver
	Logger       *slog.Logger
}

// NewSearch creates a search service.
func NewSearch(p SearchParams) *Search {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Search{
		keywordIndex: p.KeywordIndex,
		vectorIndex:  p.VectorIndex,
		embedder:     p.Embedder,
		snippets:     p.Snippets,
		repos:        p.Repositories,
		enrichments:  p.Enrichments,
		authors:      p.Authors,
		filters:      p.Filters,
		fusion:       search.NewFusion(),
		logger:       logger,
	}
}

// engineList is the ranked output of one engine, tagged with its origin so
// raw scores survive fusion.
type engineList struct {
	engine  search.Type
	results []search.Result
}

// Query executes a search query and returns hydrated hits. Every engine
// with a query to run contributes a ranked list and the lists are fused.
func (s *Search) Query(ctx context.Context, query search.Query) ([]Hit, error) {
	text := strings.TrimSpace(query.Text())
	code := strings.TrimSpace(query.Code())
	keywords := strings.TrimSpace(strings.Join(query.Keywords(), " "))
	if text == "" && code == "" && keywords == "" {
		return nil, nil
	}

	topK := query.TopK()
	if topK <= 0 {
		topK = DefaultTopK
	}

	allowed, restricted, err := s.resolveFilters(ctx, query.Filters())
	if err != nil {
		return nil, fmt.Errorf("resolve filters: %w", err)
	}

	// Engines are queried for more than topK so post-filter fusion still
	// has enough candidates.
	fetchLimit := topK * 2
	if restricted {
		fetchLimit = topK * 10
	}

	lists, err := s.engineResults(ctx, text, code, keywords, fetchLimit)
	if err != nil {
		return nil, err
	}

	if restricted {
		for i, list := range lists {
			lists[i].results = filterResults(list.results, allowed)
		}
	}

	raw := make([][]search.Result, len(lists))
	engineScores := make(map[int64]map[search.Type]float64)
	for i, list := range lists {
		raw[i] = list.results
		for _, result := range list.results {
			byEngine, ok := engineScores[result.SnippetID()]
			if !ok {
				byEngine = make(map[search.Type]float64, len(lists))
				engineScores[result.SnippetID()] = byEngine
			}
			byEngine[list.engine] = result.Score()
		}
	}

	fused := s.fusion.FuseTopK(topK, raw...)
	return s.hydrate(ctx, fused, engineScores)
}

// engineResults runs each engine on the query kind closest to it. The text
// query fills in for engines without a dedicated kind, so a text-only
// query fans out to all three engines. Individual engine failures are
// tolerated unless no engine produced anything: a broken embedding
// endpoint must not take keyword search down with it.
func (s *Search) engineResults(ctx context.Context, text, code, keywords string, limit int) ([]engineList, error) {
	var lists []engineList
	var firstErr error

	keywordQuery := keywords
	if keywordQuery == "" {
		keywordQuery = text
	}
	if keywordQuery != "" {
		list, err := s.keywordResults(ctx, keywordQuery, limit)
		if err != nil {
			s.logger.Warn("keyword search failed", slog.String("error", err.Error()))
			firstErr = err
		} else if len(list) > 0 {
			lists = append(lists, engineList{engine: search.TypeKeyword, results: list})
		}
	}

	codeQuery := code
	if codeQuery == "" {
		codeQuery = text
	}
	if codeQuery != "" {
		list, err := s.vectorResults(ctx, search.EmbeddingTypeCode, codeQuery, limit)
		if err != nil {
			s.logger.Warn("code vector search failed", slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
		} else if len(list) > 0 {
			lists = append(lists, engineList{engine: search.TypeCode, results: list})
		}
	}

	if text != "" {
		list, err := s.vectorResults(ctx, search.EmbeddingTypeText, text, limit)
		if err != nil {
			s.logger.Warn("text vector search failed", slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
		} else if len(list) > 0 {
			lists = append(lists, engineList{engine: search.TypeText, results: list})
		}
	}

	if len(lists) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return lists, nil
}

func (s *Search) keywordResults(ctx context.Context, text string, limit int) ([]search.Result, error) {
	if s.keywordIndex == nil {
		return nil, nil
	}
	return s.keywordIndex.Search(ctx, text, limit)
}

func (s *Search) vectorResults(ctx context.Context, embeddingType search.EmbeddingType, text string, limit int) ([]search.Result, error) {
	if s.vectorIndex == nil || s.embedder == nil {
		return nil, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	return s.vectorIndex.Search(ctx, embeddingType, vectors[0], limit)
}

func (s *Search) resolveFilters(ctx context.Context, filters search.Filters) (map[int64]bool, bool, error) {
	if filters.IsEmpty() || s.filters == nil {
		return nil, false, nil
	}
	return s.filters.ResolveSnippetIDs(ctx, filters)
}

func (s *Search) hydrate(ctx context.Context, fused []search.FusionResult, engineScores map[int64]map[search.Type]float64) ([]Hit, error) {
	if len(fused) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(fused))
	for i, result := range fused {
		ids[i] = result.SnippetID()
	}

	snippets, err := s.snippets.FindWithFiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load snippets: %w", err)
	}
	byID := make(map[int64]snippet.Snippet, len(snippets))
	for _, snip := range snippets {
		byID[snip.ID()] = snip
	}

	repoURIs, err := s.repositoryURIs(ctx, snippets)
	if err != nil {
		s.logger.Warn("failed to load repository metadata", slog.String("error", err.Error()))
	}
	summaries := s.summariesBySHA(ctx, snippets)
	authors := s.authorsByID(ctx, ids)

	hits := make([]Hit, 0, len(fused))
	for _, result := range fused {
		snip, ok := byID[result.SnippetID()]
		if !ok {
			// Index entry without a row: stale index, skip the hit.
			continue
		}

		hit := Hit{
			snippet:      snip,
			score:        result.Score(),
			engineScores: engineScores[result.SnippetID()],
			summary:      summaries[snip.SHA()],
			authors:      authors[snip.ID()],
		}
		if derivations := snip.DerivesFrom(); len(derivations) > 0 {
			hit.filePath = derivations[0].Path()
			hit.repositoryURI = repoURIs[derivations[0].RepositoryID()]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// summariesBySHA loads generated snippet summaries for the result set.
// Metadata lookups never fail the search.
func (s *Search) summariesBySHA(ctx context.Context, snippets []snippet.Snippet) map[string]string {
	if s.enrichments == nil || len(snippets) == 0 {
		return nil
	}

	shas := make([]string, len(snippets))
	for i, snip := range snippets {
		shas[i] = snip.SHA()
	}
	found, err := s.enrichments.FindByTargets(ctx, enrichment.TargetSnippet, shas)
	if err != nil {
		s.logger.Warn("failed to load snippet summaries", slog.String("error", err.Error()))
		return nil
	}

	summaries := make(map[string]string, len(found))
	for _, e := range found {
		if e.Kind() == enrichment.KindSnippetSummary {
			summaries[e.TargetID()] = e.Content()
		}
	}
	return summaries
}

func (s *Search) authorsByID(ctx context.Context, ids []int64) map[int64][]string {
	if s.authors == nil {
		return nil
	}
	authors, err := s.authors.AuthorsBySnippetIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to load snippet authors", slog.String("error", err.Error()))
		return nil
	}
	return authors
}

func (s *Search) repositoryURIs(ctx context.Context, snippets []snippet.Snippet) (map[int64]string, error) {
	idSet := make(map[int64]struct{})
	for _, snip := range snippets {
		for _, file := range snip.DerivesFrom() {
			idSet[file.RepositoryID()] = struct{}{}
		}
	}
	if len(idSet) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	repos, err := s.repos.Find(ctx, repository.WithIDIn(ids))
	if err != nil {
		return nil, err
	}

	uris := make(map[int64]string, len(repos))
	for _, repo := range repos {
		uris[repo.ID()] = repo.SanitizedRemoteURI()
	}
	return uris, nil
}

func filterResults(results []search.Result, allowed map[int64]bool) []search.Result {
	filtered := make([]search.Result, 0, len(results))
	for _, result := range results {
		if allowed[result.SnippetID()] {
			filtered = append(filtered, result)
		}
	}
	return filtered
}
