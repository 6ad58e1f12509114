package snippet

import "time"

// Phase identifies an indexing phase a snippet passes through.
type Phase string

// Indexing phases tracked per snippet.
const (
	PhaseBM25          Phase = "bm25"
	PhaseCodeEmbedding Phase = "code_embedding"
	PhaseTextEmbedding Phase = "text_embedding"
	PhaseEnrichment    Phase = "enrichment"
)

// StateValue is the processing state of a snippet within a phase.
type StateValue string

// Processing states.
const (
	StatePending   StateValue = "pending"
	StateCompleted StateValue = "completed"
	StateFailed    StateValue = "failed"
)

// State records the processing state of one snippet in one phase.
type State struct {
	snippetID int64
	phase     Phase
	value     StateValue
	updatedAt time.Time
}

// NewState creates a pending State.
func NewState(snippetID int64, phase Phase) State {
	return State{
		snippetID: snippetID,
		phase:     phase,
		value:     StatePending,
		updatedAt: time.Now(),
	}
}

// ReconstructState reconstructs a State from persistence.
func ReconstructState(snippetID int64, phase Phase, value StateValue, updatedAt time.Time) State {
	return State{snippetID: snippetID, phase: phase, value: value, updatedAt: updatedAt}
}

// SnippetID returns the snippet the state belongs to.
func (s State) SnippetID() int64 { return s.snippetID }

// Phase returns the indexing phase.
func (s State) Phase() Phase { return s.phase }

// Value returns the processing state.
func (s State) Value() StateValue { return s.value }

// UpdatedAt returns the last transition timestamp.
func (s State) UpdatedAt() time.Time { return s.updatedAt }

// Completed returns a copy marked completed.
func (s State) Completed() State {
	s.value = StateCompleted
	s.updatedAt = time.Now()
	return s
}

// Failed returns a copy marked failed.
func (s State) Failed() State {
	s.value = StateFailed
	s.updatedAt = time.Now()
	return s
}
