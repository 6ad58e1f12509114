package tracking

import (
	"log/slog"

	"github.com/repolens/repolens/application/handler"
	"github.com/repolens/repolens/domain/task"
)

// Factory creates trackers pre-wired with a fixed set of reporters,
// typically a StoreReporter plus a LoggingReporter.
type Factory struct {
	reporters []Reporter
	logger    *slog.Logger
}

// NewFactory creates a tracker factory.
func NewFactory(logger *slog.Logger, reporters ...Reporter) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{reporters: reporters, logger: logger}
}

// ForOperation creates a tracker for one operation on a trackable entity.
func (f *Factory) ForOperation(operation task.Operation, trackableType task.TrackableType, trackableID int64) handler.Tracker {
	tracker := NewTracker(operation, trackableType, trackableID, f.logger)
	for _, reporter := range f.reporters {
		tracker.Subscribe(reporter)
	}
	return tracker
}

var _ handler.TrackerFactory = (*Factory)(nil)
