package dto

import "time"

// Enrichment is the wire form of a generated document.
type Enrichment struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EnrichmentListResponse wraps an enrichment listing.
type EnrichmentListResponse struct {
	Data []Enrichment `json:"data"`
}

// Snippet is the wire form of an extracted snippet, with its enrichments
// inlined.
type Snippet struct {
	ID          int64        `json:"id"`
	SHA         string       `json:"sha"`
	Name        string       `json:"name,omitempty"`
	Language    string       `json:"language,omitempty"`
	Content     string       `json:"content"`
	DerivesFrom []File       `json:"derives_from"`
	Enrichments []Enrichment `json:"enrichments"`
	CreatedAt   time.Time    `json:"created_at"`
}

// SnippetListResponse wraps a snippet listing.
type SnippetListResponse struct {
	Data []Snippet `json:"data"`
}

// TaskStatus is the wire form of one progress node.
type TaskStatus struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	State     string    `json:"state"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	Total     int       `json:"total"`
	Current   int       `json:"current"`
	Progress  float64   `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskStatusListResponse wraps the progress tree of a repository.
type TaskStatusListResponse struct {
	Data []TaskStatus `json:"data"`
}

// StatusSummary is the aggregate status of a repository.
type StatusSummary struct {
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusSummaryResponse wraps the aggregate status.
type StatusSummaryResponse struct {
	Data StatusSummary `json:"data"`
}
