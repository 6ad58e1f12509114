// Package task provides task queue domain types for async work processing.
package task

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"maps"
	"time"
)

// Priority represents task queue priority levels. Batch offsets are added
// on top of these bases, so the values are spaced apart.
type Priority int

// Priority values.
const (
	PriorityBackground    Priority = 10
	PriorityNormal        Priority = 50
	PriorityUserInitiated Priority = 100
)

// Task represents an item in the queue waiting to be processed. Existence
// implies pending: there is no status column, and completed tasks are
// removed from the table.
type Task struct {
	id        int64
	dedupKey  string
	operation Operation
	priority  int
	payload   map[string]any
	createdAt time.Time
	updatedAt time.Time
}

// NewTask creates a new Task with the given operation, priority, and
// payload. The dedup key is derived from the operation and the canonical
// form of the payload, so logically identical submissions collapse to one
// queue row.
func NewTask(operation Operation, priority int, payload map[string]any) Task {
	p := copyPayload(payload)
	return Task{
		dedupKey:  DedupKey(operation, p),
		operation: operation,
		priority:  priority,
		payload:   p,
	}
}

// ReconstructTask creates a Task with all fields (used by persistence).
func ReconstructTask(
	id int64,
	dedupKey string,
	operation Operation,
	priority int,
	payload map[string]any,
	createdAt, updatedAt time.Time,
) Task {
	return Task{
		id:        id,
		dedupKey:  dedupKey,
		operation: operation,
		priority:  priority,
		payload:   copyPayload(payload),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the task ID.
func (t Task) ID() int64 { return t.id }

// DedupKey returns the deduplication key.
func (t Task) DedupKey() string { return t.dedupKey }

// Operation returns the task operation.
func (t Task) Operation() Operation { return t.operation }

// Priority returns the task priority.
func (t Task) Priority() int { return t.priority }

// Payload returns a copy of the task payload.
func (t Task) Payload() map[string]any {
	return copyPayload(t.payload)
}

// CreatedAt returns when the task was created.
func (t Task) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns when the task was last updated.
func (t Task) UpdatedAt() time.Time { return t.updatedAt }

// WithID returns a copy of the task with the given ID.
func (t Task) WithID(id int64) Task {
	t.id = id
	return t
}

// WithPriority returns a copy of the task with the given priority.
func (t Task) WithPriority(priority int) Task {
	t.priority = priority
	return t
}

// PayloadJSON returns the payload as JSON bytes.
func (t Task) PayloadJSON() ([]byte, error) {
	return json.Marshal(t.payload)
}

// RepositoryID extracts the repository_id payload field, if present.
func (t Task) RepositoryID() (int64, bool) {
	return payloadInt64(t.payload, "repository_id")
}

// CommitSHA extracts the commit_sha payload field, if present.
func (t Task) CommitSHA() (string, bool) {
	v, ok := t.payload["commit_sha"].(string)
	return v, ok
}

// DedupKey computes the deduplication key for an operation and payload:
// the SHA1 of the operation name and the payload serialized with sorted
// keys. Payloads that differ only in map iteration order hash identically.
func DedupKey(operation Operation, payload map[string]any) string {
	canonical, err := json.Marshal(payload)
	if err != nil {
		canonical = []byte("{}")
	}
	h := sha1.New()
	h.Write([]byte(operation))
	h.Write([]byte{0})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil))
}

func copyPayload(payload map[string]any) map[string]any {
	if payload == nil {
		return make(map[string]any)
	}
	result := make(map[string]any, len(payload))
	maps.Copy(result, payload)
	return result
}

// payloadInt64 reads an integer payload field. JSON round-trips turn
// numbers into float64, so both forms are accepted.
func payloadInt64(payload map[string]any, key string) (int64, bool) {
	switch v := payload[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
