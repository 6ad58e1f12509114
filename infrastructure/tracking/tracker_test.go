package tracking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/domain/task"
)

// recordingReporter captures every status change it receives.
type recordingReporter struct {
	changes []task.Status
	err     error
}

func (r *recordingReporter) OnChange(_ context.Context, status task.Status) error {
	r.changes = append(r.changes, status)
	return r.err
}

func TestTracker_FinishCompletesOnSuccess(t *testing.T) {
	ctx := context.Background()
	reporter := &recordingReporter{}

	tracker := NewTracker(task.OperationCreateBM25Index, task.TrackableTypeRepository, 1, nil)
	tracker.Subscribe(reporter)

	tracker.SetTotal(ctx, 3)
	tracker.SetCurrent(ctx, 3, "done")
	tracker.Finish(ctx, nil)

	require.NotEmpty(t, reporter.changes)
	last := reporter.changes[len(reporter.changes)-1]
	assert.Equal(t, task.ReportingStateCompleted, last.State())
	assert.Equal(t, 3, last.Current())
}

func TestTracker_FinishFailsOnError(t *testing.T) {
	ctx := context.Background()
	reporter := &recordingReporter{}

	tracker := NewTracker(task.OperationEnrichSnippets, task.TrackableTypeRepository, 1, nil)
	tracker.Subscribe(reporter)

	tracker.Finish(ctx, errors.New("provider unavailable"))

	require.Len(t, reporter.changes, 1)
	assert.Equal(t, task.ReportingStateFailed, reporter.changes[0].State())
	assert.Equal(t, "provider unavailable", reporter.changes[0].Error())
}

func TestTracker_FinishKeepsSkippedState(t *testing.T) {
	ctx := context.Background()
	reporter := &recordingReporter{}

	tracker := NewTracker(task.OperationCreateCodeEmbeddings, task.TrackableTypeRepository, 1, nil)
	tracker.Subscribe(reporter)

	tracker.Skip(ctx, "no embedding endpoint configured")
	tracker.Finish(ctx, nil)

	// Finish must not emit a second change for an already-terminal node.
	require.Len(t, reporter.changes, 1)
	assert.Equal(t, task.ReportingStateSkipped, reporter.changes[0].State())
}

func TestTracker_ChildSharesSubscribersAndParent(t *testing.T) {
	ctx := context.Background()
	reporter := &recordingReporter{}

	root := NewTracker(task.OperationSyncRepository, task.TrackableTypeRepository, 7, nil)
	root.Subscribe(reporter)

	child := root.Child(task.OperationRefreshWorkingCopy)
	child.Complete(ctx)

	require.Len(t, reporter.changes, 1)
	got := reporter.changes[0]
	assert.Equal(t, task.OperationRefreshWorkingCopy, got.Operation())
	require.NotNil(t, got.Parent())
	assert.Equal(t, root.Status().ID(), got.Parent().ID())
}

func TestTracker_BrokenReporterDoesNotStopOthers(t *testing.T) {
	ctx := context.Background()
	broken := &recordingReporter{err: errors.New("store down")}
	healthy := &recordingReporter{}

	tracker := NewTracker(task.OperationExtractSnippets, task.TrackableTypeRepository, 1, nil)
	tracker.Subscribe(broken)
	tracker.Subscribe(healthy)

	tracker.Complete(ctx)

	assert.Len(t, broken.changes, 1)
	assert.Len(t, healthy.changes, 1)
}

func TestFactory_ForOperationWiresReporters(t *testing.T) {
	ctx := context.Background()
	reporter := &recordingReporter{}

	factory := NewFactory(nil, reporter)
	tracker := factory.ForOperation(task.OperationDeleteRepository, task.TrackableTypeRepository, 2)
	tracker.Complete(ctx)

	require.Len(t, reporter.changes, 1)
	assert.Equal(t, task.OperationDeleteRepository, reporter.changes[0].Operation())
	assert.Equal(t, int64(2), reporter.changes[0].TrackableID())
}
