package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/domain/task"
	"github.com/repolens/repolens/infrastructure/persistence"
	"github.com/repolens/repolens/internal/testdb"
)

// recordingHandler captures the payloads it was executed with.
type recordingHandler struct {
	payloads []map[string]any
	err      error
	panics   bool
}

func (h *recordingHandler) Execute(_ context.Context, payload map[string]any) error {
	if h.panics {
		panic("handler exploded")
	}
	h.payloads = append(h.payloads, payload)
	return h.err
}

func newWorker(t *testing.T) (*Worker, *Registry, *persistence.TaskStore) {
	t.Helper()
	db := testdb.New(t)
	store := persistence.NewTaskStore(db)
	statuses := persistence.NewStatusStore(db)
	registry := NewRegistry()
	return NewWorker(store, statuses, registry, nil), registry, store
}

func TestWorker_ProcessOne_EmptyQueue(t *testing.T) {
	worker, _, _ := newWorker(t)

	processed, err := worker.ProcessOne(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestWorker_ProcessOne_ExecutesHandler(t *testing.T) {
	ctx := context.Background()
	worker, registry, store := newWorker(t)

	h := &recordingHandler{}
	registry.Register(task.OperationSyncRepository, h)

	_, err := store.Save(ctx, task.NewTask(task.OperationSyncRepository, int(task.PriorityNormal),
		map[string]any{"repository_id": int64(4)}))
	require.NoError(t, err)

	processed, err := worker.ProcessOne(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	require.Len(t, h.payloads, 1)
	// Payloads round-trip through JSON, so numbers come back as float64.
	assert.EqualValues(t, 4, h.payloads[0]["repository_id"])

	// The claimed task is gone even though more work could exist.
	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWorker_ProcessOne_FailedTaskIsNotRetried(t *testing.T) {
	ctx := context.Background()
	worker, registry, store := newWorker(t)

	registry.Register(task.OperationSyncRepository, &recordingHandler{err: errors.New("boom")})

	_, err := store.Save(ctx, task.NewTask(task.OperationSyncRepository, int(task.PriorityNormal),
		map[string]any{"repository_id": int64(1)}))
	require.NoError(t, err)

	processed, err := worker.ProcessOne(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "failed tasks are dropped, not requeued")
}

func TestWorker_ProcessOne_SurvivesPanickingHandler(t *testing.T) {
	ctx := context.Background()
	worker, registry, store := newWorker(t)

	registry.Register(task.OperationSyncRepository, &recordingHandler{panics: true})

	_, err := store.Save(ctx, task.NewTask(task.OperationSyncRepository, int(task.PriorityNormal),
		map[string]any{"repository_id": int64(1)}))
	require.NoError(t, err)

	processed, err := worker.ProcessOne(ctx)
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestWorker_ProcessOne_UnknownOperationIsDropped(t *testing.T) {
	ctx := context.Background()
	worker, _, store := newWorker(t)

	_, err := store.Save(ctx, task.NewTask(task.OperationSyncRepository, int(task.PriorityNormal),
		map[string]any{"repository_id": int64(1)}))
	require.NoError(t, err)

	processed, err := worker.ProcessOne(ctx)
	require.NoError(t, err)
	assert.True(t, processed)

	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRegistry_MissingOperations(t *testing.T) {
	registry := NewRegistry()
	assert.Len(t, registry.MissingOperations(), len(task.AllOperations()))

	for _, op := range task.AllOperations() {
		registry.Register(op, &recordingHandler{})
	}
	assert.Empty(t, registry.MissingOperations())
}
