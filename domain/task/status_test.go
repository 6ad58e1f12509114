package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatus_StartsStarted(t *testing.T) {
	s := NewStatus(OperationRefreshWorkingCopy, nil, TrackableTypeRepository, 3)

	assert.Equal(t, ReportingStateStarted, s.State())
	assert.Equal(t, "repository-3-repolens.index.refresh_working_copy", s.ID())
	assert.Nil(t, s.Parent())
	assert.False(t, s.State().IsTerminal())
}

func TestStatus_Lifecycle(t *testing.T) {
	s := NewStatus(OperationCreateBM25Index, nil, TrackableTypeRepository, 1)

	s = s.SetTotal(10)
	s = s.SetCurrent(4, "indexing snippets")
	assert.Equal(t, ReportingStateInProgress, s.State())
	assert.Equal(t, "indexing snippets", s.Message())
	assert.InDelta(t, 40.0, s.CompletionPercent(), 0.001)

	s = s.Complete()
	assert.Equal(t, ReportingStateCompleted, s.State())
	assert.Equal(t, 10, s.Current())
	assert.True(t, s.State().IsTerminal())
}

func TestStatus_CompleteDoesNotOverrideTerminal(t *testing.T) {
	failed := NewStatus(OperationEnrichSnippets, nil, TrackableTypeRepository, 1).Fail("provider down")
	assert.Equal(t, ReportingStateFailed, failed.Complete().State())
	assert.Equal(t, "provider down", failed.Error())

	skipped := NewStatus(OperationEnrichSnippets, nil, TrackableTypeRepository, 1).Skip("nothing to do")
	assert.Equal(t, ReportingStateSkipped, skipped.Complete().State())
	assert.Equal(t, "nothing to do", skipped.Message())
}

func TestStatus_CompletionPercentClamped(t *testing.T) {
	s := NewStatus(OperationCreateCodeEmbeddings, nil, TrackableTypeRepository, 1)
	assert.Zero(t, s.CompletionPercent())

	s = s.SetTotal(5).SetCurrent(12, "")
	assert.Equal(t, 100.0, s.CompletionPercent())
}

func TestStatus_Hierarchy(t *testing.T) {
	parent := NewStatus(OperationSyncRepository, nil, TrackableTypeRepository, 2)
	child := NewStatus(OperationRefreshWorkingCopy, &parent, TrackableTypeRepository, 2)

	require.NotNil(t, child.Parent())
	assert.Equal(t, parent.ID(), child.Parent().ID())
}

func TestStatusID_OmitsEmptyParts(t *testing.T) {
	assert.Equal(t, "repolens.repository.sync", StatusID(OperationSyncRepository, "", 0))
	assert.Equal(t, "commit-9-repolens.commit.create_cookbook", StatusID(OperationCreateCookbook, TrackableTypeCommit, 9))
}
