package tracking

import (
	"context"
	"log/slog"

	"github.com/repolens/repolens/domain/task"
)

// LoggingReporter logs every status change.
type LoggingReporter struct {
	logger *slog.Logger
}

// NewLoggingReporter creates a LoggingReporter.
func NewLoggingReporter(logger *slog.Logger) *LoggingReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingReporter{logger: logger}
}

// OnChange logs the status change; failures log at error level.
func (r *LoggingReporter) OnChange(_ context.Context, status task.Status) error {
	if status.State() == task.ReportingStateFailed {
		r.logger.Error(status.Operation().String(),
			slog.String("state", string(status.State())),
			slog.Float64("percent", status.CompletionPercent()),
			slog.String("error", status.Error()),
		)
		return nil
	}

	r.logger.Info(status.Operation().String(),
		slog.String("state", string(status.State())),
		slog.Float64("percent", status.CompletionPercent()),
	)
	return nil
}

// StoreReporter persists every status change, keeping the progress tree
// visible through the API while an operation runs.
type StoreReporter struct {
	store task.StatusStore
}

// NewStoreReporter creates a StoreReporter.
func NewStoreReporter(store task.StatusStore) *StoreReporter {
	return &StoreReporter{store: store}
}

// OnChange saves the status (and transitively its parents).
func (r *StoreReporter) OnChange(ctx context.Context, status task.Status) error {
	_, err := r.store.Save(ctx, status)
	return err
}

var (
	_ Reporter = (*LoggingReporter)(nil)
	_ Reporter = (*StoreReporter)(nil)
)
