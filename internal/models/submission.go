package models

type Submission struct {
	ID              int64   `db:"id" json:"id"`
	UserID          int64   `db:"user_id" json:"user_id"`
	TaskID          int64   `db:"task_id" json:"task_id"`
	FilePath        string  `db:"file_path" json:"-"`
	SubmissionNotes string  `db:"submission_notes" json:"submission_notes"`
	SubmittedAt     int64   `db:"submitted_at" json:"submitted_at"`
	IsEvaluated     bool    `db:"is_evaluated" json:"is_evaluated"`
	EvaluationScore *int    `db:"evaluation_score" json:"evaluation_score,omitempty"`
	EvaluationNotes *string `db:"evaluation_notes" json:"evaluation_notes,omitempty"`
}

// SubmissionView joins the submission with its task name for candidate-facing
// listings.
type SubmissionView struct {
	Submission
	TaskName string `db:"task_name" json:"task_name"`
}
