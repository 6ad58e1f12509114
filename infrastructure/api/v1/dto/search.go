package dto

import "time"

// SearchRequest is the body of POST /search. Each populated query kind
// drives its own engine: keywords feed BM25, code feeds the code vector
// space, text feeds the text vector space and fills in for absent kinds.
// Lists from all engines that ran are fused into one ranking.
type SearchRequest struct {
	Text     string         `json:"text,omitempty"`
	Code     string         `json:"code,omitempty"`
	Keywords []string       `json:"keywords,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Filters  *SearchFilters `json:"filters,omitempty"`
}

// SearchFilters narrows search results by snippet metadata.
type SearchFilters struct {
	Language      string     `json:"language,omitempty"`
	Author        string     `json:"author,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
	SourceRepo    string     `json:"source_repo,omitempty"`
	FilePath      string     `json:"file_path,omitempty"`
}

// SearchHit is one ranked search result. Summary is always present and
// empty when no enrichment exists for the snippet. EngineScores holds the
// raw score per engine that ranked the snippet; Score is the fused value.
type SearchHit struct {
	SnippetID     int64              `json:"snippet_id"`
	SHA           string             `json:"sha"`
	Name          string             `json:"name,omitempty"`
	Language      string             `json:"language,omitempty"`
	Content       string             `json:"content"`
	Summary       string             `json:"summary"`
	Authors       []string           `json:"authors,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	Score         float64            `json:"score"`
	EngineScores  map[string]float64 `json:"engine_scores,omitempty"`
	FilePath      string             `json:"file_path,omitempty"`
	RepositoryURI string             `json:"repository_uri,omitempty"`
}

// SearchResponse wraps ranked search hits.
type SearchResponse struct {
	Data []SearchHit `json:"data"`
}
