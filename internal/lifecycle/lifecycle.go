// Package lifecycle owns the task status state machine and the guards that
// gate candidate downloads and submissions. All checks are pure: callers load
// authoritative state from the store and pass it in.
package lifecycle

import (
	"github.com/shrimpsizemoose/semla/internal/faults"
	"github.com/shrimpsizemoose/semla/internal/models"
)

// statusRank orders statuses along the lifecycle. Transitions must never
// decrease the rank.
var statusRank = map[string]int{
	models.StatusAssigned:   0,
	models.StatusDownloaded: 1,
	models.StatusSubmitted:  2,
	models.StatusCompleted:  3,
}

// Rank returns the position of a status in the lifecycle, -1 for unknown.
func Rank(status string) int {
	rank, ok := statusRank[status]
	if !ok {
		return -1
	}
	return rank
}

// IsForward reports whether moving from one status to another keeps the
// lifecycle monotonic. Staying in place counts as forward: a re-download does
// not regress a downloaded task, and a resubmission keeps submitted.
func IsForward(from, to string) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank >= fromRank
}

// GuardDownload checks that the task exists and belongs to the caller. A task
// assigned to someone else reads as not found, indistinguishable from a task
// that does not exist.
func GuardDownload(task *models.Task) error {
	if task == nil {
		return faults.NotFound("task not found or not assigned to you")
	}
	return nil
}

// GuardSubmit checks ownership and the deadline. The deadline is an exclusive
// upper bound: a submission at exactly the deadline instant is rejected.
// Resubmission of an already-submitted task before the deadline is permitted;
// the latest artifact wins.
func GuardSubmit(task *models.Task, now int64) error {
	if task == nil {
		return faults.NotFound("task not found or not assigned to you")
	}
	if now >= task.Deadline {
		return faults.DeadlineExceeded()
	}
	return nil
}
