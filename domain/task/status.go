package task

import (
	"fmt"
	"strings"
	"time"
)

// ReportingState represents the state of a progress node.
type ReportingState string

// ReportingState values.
const (
	ReportingStatePending    ReportingState = "pending"
	ReportingStateStarted    ReportingState = "started"
	ReportingStateInProgress ReportingState = "in_progress"
	ReportingStateCompleted  ReportingState = "completed"
	ReportingStateFailed     ReportingState = "failed"
	ReportingStateSkipped    ReportingState = "skipped"
)

// IsTerminal returns true if the state is final.
func (s ReportingState) IsTerminal() bool {
	return s == ReportingStateCompleted ||
		s == ReportingStateFailed ||
		s == ReportingStateSkipped
}

// TrackableType represents types of trackable entities.
type TrackableType string

// TrackableType values.
const (
	TrackableTypeRepository TrackableType = "repository"
	TrackableTypeCommit     TrackableType = "commit"
)

// Status represents one node in the progress tree.
type Status struct {
	id            string
	state         ReportingState
	operation     Operation
	message       string
	createdAt     time.Time
	updatedAt     time.Time
	total         int
	current       int
	errorMessage  string
	parent        *Status
	trackableID   int64
	trackableType TrackableType
}

// NewStatus creates a new started Status for the given operation.
func NewStatus(
	operation Operation,
	parent *Status,
	trackableType TrackableType,
	trackableID int64,
) Status {
	now := time.Now().UTC()
	return Status{
		id:            StatusID(operation, trackableType, trackableID),
		operation:     operation,
		parent:        parent,
		trackableType: trackableType,
		trackableID:   trackableID,
		state:         ReportingStateStarted,
		createdAt:     now,
		updatedAt:     now,
	}
}

// ReconstructStatus creates a Status with all fields (used by persistence).
func ReconstructStatus(
	id string,
	state ReportingState,
	operation Operation,
	message string,
	createdAt, updatedAt time.Time,
	total, current int,
	errorMessage string,
	parent *Status,
	trackableID int64,
	trackableType TrackableType,
) Status {
	return Status{
		id:            id,
		state:         state,
		operation:     operation,
		message:       message,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		total:         total,
		current:       current,
		errorMessage:  errorMessage,
		parent:        parent,
		trackableID:   trackableID,
		trackableType: trackableType,
	}
}

// ID returns the status ID.
func (s Status) ID() string { return s.id }

// State returns the current state.
func (s Status) State() ReportingState { return s.state }

// Operation returns the tracked operation.
func (s Status) Operation() Operation { return s.operation }

// Message returns the status message.
func (s Status) Message() string { return s.message }

// CreatedAt returns when the status was created.
func (s Status) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns when the status was last updated.
func (s Status) UpdatedAt() time.Time { return s.updatedAt }

// Total returns the total count for progress tracking.
func (s Status) Total() int { return s.total }

// Current returns the current count for progress tracking.
func (s Status) Current() int { return s.current }

// Error returns the error message if failed.
func (s Status) Error() string { return s.errorMessage }

// Parent returns the parent status, or nil for roots.
func (s Status) Parent() *Status { return s.parent }

// TrackableID returns the trackable entity ID.
func (s Status) TrackableID() int64 { return s.trackableID }

// TrackableType returns the trackable entity type.
func (s Status) TrackableType() TrackableType { return s.trackableType }

// CompletionPercent calculates the completion percentage, clamped to
// [0, 100]. A zero total reports 0.
func (s Status) CompletionPercent() float64 {
	if s.total == 0 {
		return 0.0
	}
	percent := float64(s.current) / float64(s.total) * 100.0
	if percent < 0 {
		return 0.0
	}
	if percent > 100 {
		return 100.0
	}
	return percent
}

// Skip marks the node as skipped with the given message.
func (s Status) Skip(message string) Status {
	s.state = ReportingStateSkipped
	s.message = message
	s.updatedAt = time.Now().UTC()
	return s
}

// Fail marks the node as failed with the given error message.
func (s Status) Fail(errorMsg string) Status {
	s.state = ReportingStateFailed
	s.errorMessage = errorMsg
	s.updatedAt = time.Now().UTC()
	return s
}

// SetTotal sets the total count for progress tracking.
func (s Status) SetTotal(total int) Status {
	s.total = total
	s.updatedAt = time.Now().UTC()
	return s
}

// SetCurrent sets the current progress and optionally updates the message.
func (s Status) SetCurrent(current int, message string) Status {
	s.state = ReportingStateInProgress
	s.current = current
	if message != "" {
		s.message = message
	}
	s.updatedAt = time.Now().UTC()
	return s
}

// Complete marks the node as completed. Terminal states are not changed.
func (s Status) Complete() Status {
	if s.state.IsTerminal() {
		return s
	}
	s.state = ReportingStateCompleted
	s.current = s.total
	s.updatedAt = time.Now().UTC()
	return s
}

// WithParent returns a copy with the given parent.
func (s Status) WithParent(parent *Status) Status {
	s.parent = parent
	return s
}

// StatusID creates a unique ID for a progress node.
// Format: "{trackable_type}-{trackable_id}-{operation}".
func StatusID(operation Operation, trackableType TrackableType, trackableID int64) string {
	var parts []string
	if trackableType != "" {
		parts = append(parts, string(trackableType))
	}
	if trackableID != 0 {
		parts = append(parts, fmt.Sprintf("%d", trackableID))
	}
	parts = append(parts, string(operation))
	return strings.Join(parts, "-")
}
