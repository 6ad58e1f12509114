package search

// Result represents one hit from a single search method.
type Result struct {
	snippetID int64
	score     float64
}

// NewResult creates a new Result.
func NewResult(snippetID int64, score float64) Result {
	return Result{snippetID: snippetID, score: score}
}

// SnippetID returns the snippet ID.
func (r Result) SnippetID() int64 { return r.snippetID }

// Score returns the search score.
func (r Result) Score() float64 { return r.score }

// FusionResult represents one fused hit.
type FusionResult struct {
	snippetID      int64
	score          float64
	originalScores []float64
}

// NewFusionResult creates a new FusionResult. originalScores holds the
// per-method scores in input list order (0 where the method missed).
func NewFusionResult(snippetID int64, score float64, originalScores []float64) FusionResult {
	scores := make([]float64, len(originalScores))
	copy(scores, originalScores)
	return FusionResult{snippetID: snippetID, score: score, originalScores: scores}
}

// SnippetID returns the snippet ID.
func (f FusionResult) SnippetID() int64 { return f.snippetID }

// Score returns the fused RRF score.
func (f FusionResult) Score() float64 { return f.score }

// OriginalScores returns the per-method scores.
func (f FusionResult) OriginalScores() []float64 {
	scores := make([]float64, len(f.originalScores))
	copy(scores, f.originalScores)
	return scores
}

// Document represents a snippet text to index.
type Document struct {
	snippetID int64
	text      string
}

// NewDocument creates a new Document.
func NewDocument(snippetID int64, text string) Document {
	return Document{snippetID: snippetID, text: text}
}

// SnippetID returns the snippet ID.
func (d Document) SnippetID() int64 { return d.snippetID }

// Text returns the document text.
func (d Document) Text() string { return d.text }
