// Package handler provides task handlers for queued operations.
package handler

import (
	"context"
	"fmt"

	"github.com/repolens/repolens/domain/task"
)

// Tracker reports progress of a running operation.
type Tracker interface {
	SetTotal(ctx context.Context, total int)
	SetCurrent(ctx context.Context, current int, message string)
	Skip(ctx context.Context, reason string)
	Fail(ctx context.Context, message string)
	Complete(ctx context.Context)
	Finish(ctx context.Context, err error)
}

// TrackerFactory creates trackers bound to a trackable entity.
type TrackerFactory interface {
	ForOperation(operation task.Operation, trackableType task.TrackableType, trackableID int64) Tracker
}

// RepositoryID extracts the required repository_id payload field.
func RepositoryID(payload map[string]any) (int64, error) {
	return Int64(payload, "repository_id")
}

// Int64 extracts an integer payload field. JSON round-trips deliver
// numbers as float64, so both forms are accepted.
func Int64(payload map[string]any, key string) (int64, error) {
	val, ok := payload[key]
	if !ok {
		return 0, fmt.Errorf("missing payload field %q", key)
	}
	switch v := val.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("payload field %q has type %T, want integer", key, val)
	}
}

// String extracts a string payload field.
func String(payload map[string]any, key string) (string, error) {
	val, ok := payload[key]
	if !ok {
		return "", fmt.Errorf("missing payload field %q", key)
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("payload field %q has type %T, want string", key, val)
	}
	return s, nil
}

// CommitScope holds the repository_id and commit_sha fields shared by
// commit-scoped payloads.
type CommitScope struct {
	RepositoryID int64
	CommitSHA    string
}

// ExtractCommitScope reads the commit-scoped payload fields.
func ExtractCommitScope(payload map[string]any) (CommitScope, error) {
	repoID, err := RepositoryID(payload)
	if err != nil {
		return CommitScope{}, err
	}
	sha, err := String(payload, "commit_sha")
	if err != nil {
		return CommitScope{}, err
	}
	return CommitScope{RepositoryID: repoID, CommitSHA: sha}, nil
}

// ShortSHA abbreviates a SHA for log output.
func ShortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
