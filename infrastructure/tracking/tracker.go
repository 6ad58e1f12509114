// Package tracking maintains the progress tree for long-running
// operations and fans status changes out to subscribers.
package tracking

import (
	"context"
	"log/slog"
	"sync"

	"github.com/repolens/repolens/domain/task"
)

// Reporter receives progress node changes.
type Reporter interface {
	OnChange(ctx context.Context, status task.Status) error
}

// Tracker wraps one progress node and propagates every state change to its
// subscribers. Child trackers share the parent's subscribers, so a single
// Subscribe at the root covers the whole tree.
type Tracker struct {
	status      task.Status
	subscribers []Reporter
	logger      *slog.Logger
	mu          sync.RWMutex
}

// NewTracker creates a tracker for an operation on a trackable entity.
func NewTracker(operation task.Operation, trackableType task.TrackableType, trackableID int64, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		status: task.NewStatus(operation, nil, trackableType, trackableID),
		logger: logger,
	}
}

// Status returns a copy of the current node.
func (t *Tracker) Status() task.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Subscribe registers a reporter for this tracker and all children created
// afterwards.
func (t *Tracker) Subscribe(reporter Reporter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers = append(t.subscribers, reporter)
}

// Child creates a tracker for a sub-operation, linked to this node and
// sharing its subscribers.
func (t *Tracker) Child(operation task.Operation) *Tracker {
	t.mu.RLock()
	parent := t.status
	subscribers := make([]Reporter, len(t.subscribers))
	copy(subscribers, t.subscribers)
	t.mu.RUnlock()

	return &Tracker{
		status:      task.NewStatus(operation, &parent, parent.TrackableType(), parent.TrackableID()),
		subscribers: subscribers,
		logger:      t.logger,
	}
}

// SetTotal sets the expected item count.
func (t *Tracker) SetTotal(ctx context.Context, total int) {
	t.update(ctx, func(s task.Status) task.Status { return s.SetTotal(total) })
}

// SetCurrent advances progress, optionally updating the message.
func (t *Tracker) SetCurrent(ctx context.Context, current int, message string) {
	t.update(ctx, func(s task.Status) task.Status { return s.SetCurrent(current, message) })
}

// Complete marks the node completed. No-op on terminal nodes.
func (t *Tracker) Complete(ctx context.Context) {
	t.update(ctx, func(s task.Status) task.Status { return s.Complete() })
}

// Skip marks the node skipped with a reason.
func (t *Tracker) Skip(ctx context.Context, reason string) {
	t.update(ctx, func(s task.Status) task.Status { return s.Skip(reason) })
}

// Fail marks the node failed with an error message.
func (t *Tracker) Fail(ctx context.Context, errMsg string) {
	t.update(ctx, func(s task.Status) task.Status { return s.Fail(errMsg) })
}

// Announce notifies subscribers of the node's initial state.
func (t *Tracker) Announce(ctx context.Context) {
	t.mu.RLock()
	status := t.status
	t.mu.RUnlock()
	t.notify(ctx, status)
}

// Finish guarantees a terminal state: a node still running when its
// operation returns is completed on success and failed otherwise. Use with
// defer so panics and early returns still terminate the node.
func (t *Tracker) Finish(ctx context.Context, err error) {
	t.mu.RLock()
	terminal := t.status.State().IsTerminal()
	t.mu.RUnlock()
	if terminal {
		return
	}

	if err != nil {
		t.Fail(ctx, err.Error())
		return
	}
	t.Complete(ctx)
}

func (t *Tracker) update(ctx context.Context, fn func(task.Status) task.Status) {
	t.mu.Lock()
	t.status = fn(t.status)
	status := t.status
	t.mu.Unlock()

	t.notify(ctx, status)
}

func (t *Tracker) notify(ctx context.Context, status task.Status) {
	t.mu.RLock()
	subscribers := make([]Reporter, len(t.subscribers))
	copy(subscribers, t.subscribers)
	t.mu.RUnlock()

	for _, subscriber := range subscribers {
		if err := subscriber.OnChange(ctx, status); err != nil {
			// One broken reporter must not silence the rest.
			t.logger.Error("progress reporter failed",
				slog.String("operation", status.Operation().String()),
				slog.String("error", err.Error()),
			)
		}
	}
}
