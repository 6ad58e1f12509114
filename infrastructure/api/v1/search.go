package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/repolens/repolens/application/service"
	"github.com/repolens/repolens/domain/search"
	"github.com/repolens/repolens/infrastructure/api/middleware"
	"github.com/repolens/repolens/infrastructure/api/v1/dto"
)

// SearchRouter handles the search API endpoint.
type SearchRouter struct {
	search *service.Search
	logger *slog.Logger
}

// NewSearchRouter creates a new SearchRouter.
func NewSearchRouter(searchService *service.Search, logger *slog.Logger) *SearchRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchRouter{search: searchService, logger: logger}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Search)

	return router
}

// Search handles POST /api/v1/search.
func (r *SearchRouter) Search(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.SearchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, fmt.Errorf("%w: %s", middleware.ErrBadRequest, err), r.logger)
		return
	}

	query, err := buildQuery(body)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	hits, err := r.search.Query(ctx, query)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	data := make([]dto.SearchHit, len(hits))
	for i, hit := range hits {
		snip := hit.Snippet()
		scores := make(map[string]float64, len(hit.EngineScores()))
		for engine, score := range hit.EngineScores() {
			scores[string(engine)] = score
		}
		data[i] = dto.SearchHit{
			SnippetID:     snip.ID(),
			SHA:           snip.SHA(),
			Name:          snip.Name(),
			Language:      snip.Language(),
			Content:       snip.Content(),
			Summary:       hit.Summary(),
			Authors:       hit.Authors(),
			CreatedAt:     snip.CreatedAt(),
			Score:         hit.Score(),
			EngineScores:  scores,
			FilePath:      hit.FilePath(),
			RepositoryURI: hit.RepositoryURI(),
		}
	}

	middleware.WriteJSON(w, http.StatusOK, dto.SearchResponse{Data: data})
}

// buildQuery maps a request body onto a domain query. All populated query
// kinds are carried: each one drives its own engine and the ranked lists
// are fused.
func buildQuery(body dto.SearchRequest) (search.Query, error) {
	if body.Text == "" && body.Code == "" && len(body.Keywords) == 0 {
		return search.Query{}, fmt.Errorf("%w: one of text, code, or keywords is required", middleware.ErrBadRequest)
	}

	var opts []search.FiltersOption
	if f := body.Filters; f != nil {
		if f.Language != "" {
			opts = append(opts, search.WithLanguage(f.Language))
		}
		if f.Author != "" {
			opts = append(opts, search.WithAuthor(f.Author))
		}
		if f.CreatedAfter != nil {
			opts = append(opts, search.WithCreatedAfter(*f.CreatedAfter))
		}
		if f.CreatedBefore != nil {
			opts = append(opts, search.WithCreatedBefore(*f.CreatedBefore))
		}
		if f.SourceRepo != "" {
			opts = append(opts, search.WithSourceRepo(f.SourceRepo))
		}
		if f.FilePath != "" {
			opts = append(opts, search.WithFilePath(f.FilePath))
		}
	}

	return search.NewQuery(body.Text, body.Code, body.Keywords, search.NewFilters(opts...), body.Limit), nil
}
