package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/repolens/repolens/domain/task"
)

func status(op task.Operation) task.Status {
	return task.NewStatus(op, nil, task.TrackableTypeRepository, 1)
}

func TestSummarize(t *testing.T) {
	completed := status(task.OperationCreateBM25Index).Complete()
	failed := status(task.OperationEnrichSnippets).Fail("boom")
	skipped := status(task.OperationCreateCodeEmbeddings).Skip("not configured")
	running := status(task.OperationExtractSnippets).SetCurrent(1, "")

	cases := []struct {
		name     string
		statuses []task.Status
		want     SummaryState
	}{
		{"empty", nil, SummaryPending},
		{"all completed", []task.Status{completed, completed}, SummaryCompleted},
		{"skipped counts as success", []task.Status{completed, skipped}, SummaryCompleted},
		{"any running wins", []task.Status{completed, running, failed}, SummaryInProgress},
		{"all failed", []task.Status{failed, failed}, SummaryFailed},
		{"mixed failures", []task.Status{completed, failed}, SummaryCompletedWithErrors},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Summarize(tc.statuses))
		})
	}
}
