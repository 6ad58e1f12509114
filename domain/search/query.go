// Package search provides domain types for hybrid code retrieval.
package search

// Type identifies a search engine.
type Type string

// Type values.
const (
	TypeKeyword Type = "keyword"
	TypeCode    Type = "code"
	TypeText    Type = "text"
)

// Query represents a snippet search query. A query carries up to three
// kinds of input, one per engine: free text, code, and keywords. Engines
// whose kind is absent fall back to the text query, so a text-only query
// fans out to every engine while a keywords-only query runs keyword
// search alone.
type Query struct {
	text     string
	code     string
	keywords []string
	filters  Filters
	topK     int
}

// NewQuery creates a new Query. A non-positive topK falls back to the
// default limit at the application layer.
func NewQuery(text, code string, keywords []string, filters Filters, topK int) Query {
	copied := make([]string, len(keywords))
	copy(copied, keywords)
	return Query{
		text:     text,
		code:     code,
		keywords: copied,
		filters:  filters,
		topK:     topK,
	}
}

// Text returns the natural-language query.
func (q Query) Text() string { return q.text }

// Code returns the code-oriented query.
func (q Query) Code() string { return q.code }

// Keywords returns the keyword query terms.
func (q Query) Keywords() []string {
	copied := make([]string, len(q.keywords))
	copy(copied, q.keywords)
	return copied
}

// IsEmpty reports whether no query kind is populated.
func (q Query) IsEmpty() bool {
	return q.text == "" && q.code == "" && len(q.keywords) == 0
}

// Filters returns the query filters.
func (q Query) Filters() Filters { return q.filters }

// TopK returns the requested result count.
func (q Query) TopK() int { return q.topK }
