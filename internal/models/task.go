package models

import (
	"github.com/go-playground/validator/v10"
)

// Task statuses, in lifecycle order. Transitions are monotonic: a task never
// moves backward through this sequence.
const (
	StatusAssigned   = "assigned"
	StatusDownloaded = "downloaded"
	StatusSubmitted  = "submitted"
	StatusCompleted  = "completed"
)

type Task struct {
	ID          int64  `db:"id" json:"id"`
	TaskName    string `db:"task_name" json:"task_name" validate:"required,max=255"`
	Description string `db:"description" json:"description"`
	ZipPath     string `db:"zip_path" json:"-"`
	AssignedTo  *int64 `db:"assigned_to" json:"assigned_to,omitempty"`
	CreatedBy   int64  `db:"created_by" json:"created_by"`
	Deadline    int64  `db:"deadline" json:"deadline" validate:"required"`
	Status      string `db:"status" json:"status" validate:"oneof=assigned downloaded submitted completed"`
	CreatedAt   int64  `db:"created_at" json:"created_at"`
}

func (t *Task) Validate() error {
	validate := validator.New()
	return validate.Struct(t)
}

// TaskOverview is the admin task listing row: the task joined with usernames
// and the effective status. A submission row is authoritative over the status
// column, so EffectiveStatus reports submitted even if the column lags.
type TaskOverview struct {
	Task
	AssignedToName  *string `db:"assigned_to_name" json:"assigned_to_name,omitempty"`
	CreatedByName   string  `db:"created_by_name" json:"created_by_name"`
	SubmittedAt     *int64  `db:"submitted_at" json:"submitted_at,omitempty"`
	EffectiveStatus string  `db:"effective_status" json:"effective_status"`
}
