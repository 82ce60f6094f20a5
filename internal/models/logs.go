package models

// Activity types written to the audit trail. One entry per lifecycle
// transition, plus logins and admin actions.
const (
	ActivityLogin           = "login"
	ActivityCreateCandidate = "create_candidate"
	ActivityDeleteCandidate = "delete_candidate"
	ActivityCreateTask      = "create_task"
	ActivityDownloadTask    = "download_task"
	ActivitySubmitTask      = "submit_task"
	ActivityEvaluate        = "evaluate_submission"
)

type ActivityLog struct {
	ID          int64  `db:"id" json:"id"`
	UserID      int64  `db:"user_id" json:"user_id"`
	Activity    string `db:"activity_type" json:"activity_type"`
	Description string `db:"activity_description" json:"activity_description"`
	IPAddress   string `db:"ip_address" json:"ip_address"`
	UserAgent   string `db:"user_agent" json:"user_agent"`
	CreatedAt   int64  `db:"created_at" json:"created_at"`
}

// DownloadLog is a per (user, task) counter, incremented rather than
// appended. Audit only, never gates behavior.
type DownloadLog struct {
	UserID        int64 `db:"user_id" json:"user_id"`
	TaskID        int64 `db:"task_id" json:"task_id"`
	DownloadCount int64 `db:"download_count" json:"download_count"`
	FirstDownload int64 `db:"first_download" json:"first_download"`
	LastDownload  int64 `db:"last_download" json:"last_download"`
}
