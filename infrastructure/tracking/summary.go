package tracking

import "github.com/repolens/repolens/domain/task"

// SummaryState is the aggregate state of a progress tree.
type SummaryState string

// Aggregate states, coarsest first.
const (
	SummaryPending             SummaryState = "pending"
	SummaryInProgress          SummaryState = "in_progress"
	SummaryCompleted           SummaryState = "completed"
	SummaryCompletedWithErrors SummaryState = "completed_with_errors"
	SummaryFailed              SummaryState = "failed"
)

// Summarize reduces a set of progress nodes to one aggregate state. Any
// running node means in_progress; all-terminal trees report completed,
// failed, or completed_with_errors depending on how many nodes failed.
func Summarize(statuses []task.Status) SummaryState {
	if len(statuses) == 0 {
		return SummaryPending
	}

	failed := 0
	for _, status := range statuses {
		if !status.State().IsTerminal() {
			return SummaryInProgress
		}
		if status.State() == task.ReportingStateFailed {
			failed++
		}
	}

	switch {
	case failed == 0:
		return SummaryCompleted
	case failed == len(statuses):
		return SummaryFailed
	default:
		return SummaryCompletedWithErrors
	}
}
