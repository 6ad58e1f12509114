package task

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask_DedupKeyIgnoresMapOrder(t *testing.T) {
	a := NewTask(OperationExtractSnippets, int(PriorityNormal), map[string]any{
		"repository_id": int64(1),
		"commit_sha":    "abc",
	})
	b := NewTask(OperationExtractSnippets, int(PriorityNormal), map[string]any{
		"commit_sha":    "abc",
		"repository_id": int64(1),
	})

	assert.Equal(t, a.DedupKey(), b.DedupKey())
}

func TestNewTask_DedupKeyVariesWithOperation(t *testing.T) {
	payload := map[string]any{"repository_id": int64(1)}

	a := NewTask(OperationCreateBM25Index, int(PriorityNormal), payload)
	b := NewTask(OperationCreateCodeEmbeddings, int(PriorityNormal), payload)

	assert.NotEqual(t, a.DedupKey(), b.DedupKey())
}

func TestNewTask_DedupKeyIgnoresPriority(t *testing.T) {
	payload := map[string]any{"repository_id": int64(1)}

	a := NewTask(OperationSyncRepository, int(PriorityBackground), payload)
	b := NewTask(OperationSyncRepository, int(PriorityUserInitiated), payload)

	assert.Equal(t, a.DedupKey(), b.DedupKey())
}

func TestTask_PayloadIsCopied(t *testing.T) {
	payload := map[string]any{"repository_id": int64(1)}
	task := NewTask(OperationSyncRepository, int(PriorityNormal), payload)

	payload["repository_id"] = int64(99)
	got, ok := task.RepositoryID()
	require.True(t, ok)
	assert.Equal(t, int64(1), got)

	// Mutating the returned payload must not leak back either.
	task.Payload()["repository_id"] = int64(42)
	got, _ = task.RepositoryID()
	assert.Equal(t, int64(1), got)
}

func TestTask_RepositoryIDAcceptsJSONNumbers(t *testing.T) {
	// Payloads stored as JSON come back with float64 numbers.
	raw, err := json.Marshal(map[string]any{"repository_id": 7})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	task := NewTask(OperationSyncRepository, int(PriorityNormal), decoded)
	id, ok := task.RepositoryID()
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestTask_CommitSHA(t *testing.T) {
	task := NewTask(OperationCreateCommitDescription, int(PriorityNormal), map[string]any{
		"repository_id": int64(1),
		"commit_sha":    "deadbeef",
	})

	sha, ok := task.CommitSHA()
	require.True(t, ok)
	assert.Equal(t, "deadbeef", sha)

	_, ok = NewTask(OperationSyncRepository, int(PriorityNormal), nil).CommitSHA()
	assert.False(t, ok)
}

func TestAllOperations_CoversEveryWorkflow(t *testing.T) {
	all := AllOperations()

	assert.Len(t, all, 12)
	for _, op := range IndexWorkflow() {
		assert.Contains(t, all, op)
	}
	for _, op := range CommitEnrichmentWorkflow() {
		assert.Contains(t, all, op)
	}
	assert.Contains(t, all, OperationSyncRepository)
	assert.Contains(t, all, OperationDeleteRepository)
}
