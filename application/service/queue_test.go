package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/domain/task"
	"github.com/repolens/repolens/infrastructure/persistence"
	"github.com/repolens/repolens/internal/testdb"
)

func newQueue(t *testing.T) (*Queue, *persistence.TaskStore) {
	t.Helper()
	db := testdb.New(t)
	store := persistence.NewTaskStore(db)
	return NewQueue(store, nil), store
}

func TestQueue_EnqueueDeduplicates(t *testing.T) {
	ctx := context.Background()
	queue, _ := newQueue(t)

	payload := map[string]any{"repository_id": int64(1)}
	require.NoError(t, queue.Enqueue(ctx, task.NewTask(task.OperationSyncRepository, int(task.PriorityNormal), payload)))
	require.NoError(t, queue.Enqueue(ctx, task.NewTask(task.OperationSyncRepository, int(task.PriorityNormal), payload)))

	count, err := queue.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestQueue_ReenqueueKeepsOriginalPriority(t *testing.T) {
	ctx := context.Background()
	queue, _ := newQueue(t)

	payload := map[string]any{"repository_id": int64(1)}
	require.NoError(t, queue.Enqueue(ctx, task.NewTask(task.OperationSyncRepository, int(task.PriorityUserInitiated), payload)))
	require.NoError(t, queue.Enqueue(ctx, task.NewTask(task.OperationSyncRepository, int(task.PriorityBackground), payload)))

	pending, err := queue.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int(task.PriorityUserInitiated), pending[0].Priority())
}

func TestQueue_EnqueueOperations_DequeuesInWorkflowOrder(t *testing.T) {
	ctx := context.Background()
	queue, store := newQueue(t)

	payload := map[string]any{"repository_id": int64(1)}
	require.NoError(t, queue.EnqueueOperations(ctx, task.IndexWorkflow(), task.PriorityNormal, payload))

	var got []task.Operation
	for {
		next, found, err := store.Dequeue(ctx)
		require.NoError(t, err)
		if !found {
			break
		}
		got = append(got, next.Operation())
	}

	assert.Equal(t, task.IndexWorkflow(), got)
}

func TestQueue_UserInitiatedBeatsBackground(t *testing.T) {
	ctx := context.Background()
	queue, store := newQueue(t)

	require.NoError(t, queue.EnqueueOperations(ctx, task.IndexWorkflow(), task.PriorityBackground,
		map[string]any{"repository_id": int64(1)}))
	require.NoError(t, queue.EnqueueOperations(ctx, task.IndexWorkflow(), task.PriorityUserInitiated,
		map[string]any{"repository_id": int64(2)}))

	next, found, err := store.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, found)

	repoID, ok := next.RepositoryID()
	require.True(t, ok)
	assert.Equal(t, int64(2), repoID)
	assert.Equal(t, task.OperationRefreshWorkingCopy, next.Operation())
}

func TestQueue_DrainForRepository(t *testing.T) {
	ctx := context.Background()
	queue, _ := newQueue(t)

	require.NoError(t, queue.EnqueueOperations(ctx, task.IndexWorkflow(), task.PriorityNormal,
		map[string]any{"repository_id": int64(1)}))
	require.NoError(t, queue.Enqueue(ctx, task.NewTask(task.OperationSyncRepository, int(task.PriorityNormal),
		map[string]any{"repository_id": int64(2)})))

	removed, err := queue.DrainForRepository(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, len(task.IndexWorkflow()), removed)

	remaining, err := queue.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	repoID, _ := remaining[0].RepositoryID()
	assert.Equal(t, int64(2), repoID)
}
