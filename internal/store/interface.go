package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/semla/internal/faults"
	"github.com/shrimpsizemoose/semla/internal/models"
)

type TaskStore interface {
	Close() error
	ApplyMigrations(dir string) error

	CreateUser(user *models.User) (int64, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id int64) (*models.User, error)
	ListCandidates() ([]models.User, error)
	DeleteCandidate(id int64) (bool, error)

	CreateTask(task *models.Task) (int64, error)
	GetTaskForUser(taskID, userID int64) (*models.Task, error)
	ListTasksForUser(userID int64) ([]models.TaskOverview, error)
	ListAllTasks() ([]models.TaskOverview, error)
	MarkTaskDownloaded(taskID int64) error

	RecordSubmission(sub *models.Submission) error
	GetSubmission(userID, taskID int64) (*models.Submission, error)
	ListSubmissionsForUser(userID int64) ([]models.SubmissionView, error)
	EvaluateSubmission(userID, taskID int64, score int, notes string) error

	TrackDownload(userID, taskID, now int64) error
	GetDownloadCount(userID, taskID int64) (int64, error)

	LogActivity(entry *models.ActivityLog) error
	ListActivity(limit int) ([]models.ActivityLog, error)
}

// BaseStore provides common functionality for different DB implementations.
// Converter rewrites `?` placeholders for the target dialect; UniqueViolation
// recognizes the driver's unique-constraint error.
type BaseStore struct {
	DB              *sqlx.DB
	Converter       func(string) string
	UniqueViolation func(error) bool
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) CreateUser(user *models.User) (int64, error) {
	query := s.Converter(`
		INSERT INTO users (username, password_hash, email, mobile, role, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	var id int64
	err := s.DB.Get(&id, query,
		user.Username,
		user.PasswordHash,
		user.Email,
		user.Mobile,
		user.Role,
		user.IsActive,
		user.CreatedAt,
	)
	if err != nil {
		if s.UniqueViolation != nil && s.UniqueViolation(err) {
			return 0, faults.Conflict("username or email already exists")
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

func (s *BaseStore) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	query := s.Converter(`
		SELECT id, username, password_hash, email, COALESCE(mobile, '') AS mobile, role, is_active, created_at
		FROM users
		WHERE username = ? AND is_active
	`)
	err := s.DB.Get(&user, query, username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}

func (s *BaseStore) GetUserByID(id int64) (*models.User, error) {
	var user models.User
	query := s.Converter(`
		SELECT id, username, password_hash, email, COALESCE(mobile, '') AS mobile, role, is_active, created_at
		FROM users
		WHERE id = ? AND is_active
	`)
	err := s.DB.Get(&user, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

func (s *BaseStore) ListCandidates() ([]models.User, error) {
	var users []models.User
	query := `
		SELECT id, username, password_hash, email, COALESCE(mobile, '') AS mobile, role, is_active, created_at
		FROM users
		WHERE role = 'candidate' AND is_active
		ORDER BY created_at DESC, id DESC
	`
	if err := s.DB.Select(&users, query); err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return users, nil
}

// DeleteCandidate hard-deletes a candidate row; dependent rows go through
// ON DELETE rules. Admins are never deleted through this path.
func (s *BaseStore) DeleteCandidate(id int64) (bool, error) {
	query := s.Converter(`DELETE FROM users WHERE id = ? AND role = 'candidate'`)
	res, err := s.DB.Exec(query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete candidate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (s *BaseStore) CreateTask(task *models.Task) (int64, error) {
	query := s.Converter(`
		INSERT INTO tasks (task_name, description, zip_path, assigned_to, created_by, deadline, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	var id int64
	err := s.DB.Get(&id, query,
		task.TaskName,
		task.Description,
		task.ZipPath,
		task.AssignedTo,
		task.CreatedBy,
		task.Deadline,
		task.Status,
		task.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create task: %w", err)
	}
	return id, nil
}

func (s *BaseStore) GetTaskForUser(taskID, userID int64) (*models.Task, error) {
	var task models.Task
	query := s.Converter(`
		SELECT id, task_name, description, zip_path, assigned_to, created_by, deadline, status, created_at
		FROM tasks
		WHERE id = ? AND assigned_to = ?
	`)
	err := s.DB.Get(&task, query, taskID, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task for user: %w", err)
	}
	return &task, nil
}

// A submission row is authoritative over the status column, so the joined
// view reports submitted even when the column briefly lags behind.
const taskOverviewQuery = `
	SELECT
		t.id,
		t.task_name,
		t.description,
		t.zip_path,
		t.assigned_to,
		t.created_by,
		t.deadline,
		t.status,
		t.created_at,
		u1.username AS assigned_to_name,
		u2.username AS created_by_name,
		s.submitted_at,
		CASE
			WHEN s.id IS NOT NULL AND t.status <> 'completed' THEN 'submitted'
			ELSE t.status
		END AS effective_status
	FROM tasks t
	LEFT JOIN users u1 ON t.assigned_to = u1.id
	LEFT JOIN users u2 ON t.created_by = u2.id
	LEFT JOIN submissions s ON s.task_id = t.id AND s.user_id = t.assigned_to
`

func (s *BaseStore) ListTasksForUser(userID int64) ([]models.TaskOverview, error) {
	var tasks []models.TaskOverview
	query := s.Converter(taskOverviewQuery + `
		WHERE t.assigned_to = ?
		ORDER BY t.created_at DESC, t.id DESC
	`)
	if err := s.DB.Select(&tasks, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list tasks for user: %w", err)
	}
	return tasks, nil
}

func (s *BaseStore) ListAllTasks() ([]models.TaskOverview, error) {
	var tasks []models.TaskOverview
	query := taskOverviewQuery + `
		ORDER BY t.created_at DESC, t.id DESC
	`
	if err := s.DB.Select(&tasks, query); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// MarkTaskDownloaded flips status to downloaded on first download only. The
// WHERE clause keeps the transition monotonic: re-downloads and downloads
// after submission never move the status backward.
func (s *BaseStore) MarkTaskDownloaded(taskID int64) error {
	query := s.Converter(`
		UPDATE tasks SET status = 'downloaded'
		WHERE id = ? AND status = 'assigned'
	`)
	if _, err := s.DB.Exec(query, taskID); err != nil {
		return fmt.Errorf("failed to mark task downloaded: %w", err)
	}
	return nil
}

// RecordSubmission upserts the (user, task) submission row and flips the task
// status to submitted in one transaction. A resubmission overwrites the prior
// artifact reference and notes and resets any evaluation.
func (s *BaseStore) RecordSubmission(sub *models.Submission) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin submission tx: %w", err)
	}
	defer tx.Rollback()

	upsert := s.Converter(`
		INSERT INTO submissions (user_id, task_id, file_path, submission_notes, submitted_at, is_evaluated)
		VALUES (?, ?, ?, ?, ?, FALSE)
		ON CONFLICT (user_id, task_id) DO UPDATE SET
			file_path = excluded.file_path,
			submission_notes = excluded.submission_notes,
			submitted_at = excluded.submitted_at,
			is_evaluated = FALSE,
			evaluation_score = NULL,
			evaluation_notes = NULL
	`)
	if _, err := tx.Exec(upsert, sub.UserID, sub.TaskID, sub.FilePath, sub.SubmissionNotes, sub.SubmittedAt); err != nil {
		return fmt.Errorf("failed to upsert submission: %w", err)
	}

	flip := s.Converter(`
		UPDATE tasks SET status = 'submitted'
		WHERE id = ? AND status <> 'completed'
	`)
	if _, err := tx.Exec(flip, sub.TaskID); err != nil {
		return fmt.Errorf("failed to flip task status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit submission: %w", err)
	}
	return nil
}

func (s *BaseStore) GetSubmission(userID, taskID int64) (*models.Submission, error) {
	var sub models.Submission
	query := s.Converter(`
		SELECT id, user_id, task_id, file_path, submission_notes, submitted_at,
		       is_evaluated, evaluation_score, evaluation_notes
		FROM submissions
		WHERE user_id = ? AND task_id = ?
	`)
	err := s.DB.Get(&sub, query, userID, taskID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &sub, nil
}

func (s *BaseStore) ListSubmissionsForUser(userID int64) ([]models.SubmissionView, error) {
	var subs []models.SubmissionView
	query := s.Converter(`
		SELECT s.id, s.user_id, s.task_id, s.file_path, s.submission_notes, s.submitted_at,
		       s.is_evaluated, s.evaluation_score, s.evaluation_notes,
		       COALESCE(t.task_name, '') AS task_name
		FROM submissions s
		LEFT JOIN tasks t ON s.task_id = t.id
		WHERE s.user_id = ?
		ORDER BY s.submitted_at DESC
	`)
	if err := s.DB.Select(&subs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list submissions for user: %w", err)
	}
	return subs, nil
}

// EvaluateSubmission records review results and completes the task, in one
// transaction. Returns NotFound when no submission row exists for the pair.
func (s *BaseStore) EvaluateSubmission(userID, taskID int64, score int, notes string) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin evaluation tx: %w", err)
	}
	defer tx.Rollback()

	update := s.Converter(`
		UPDATE submissions SET
			is_evaluated = TRUE,
			evaluation_score = ?,
			evaluation_notes = ?
		WHERE user_id = ? AND task_id = ?
	`)
	res, err := tx.Exec(update, score, notes, userID, taskID)
	if err != nil {
		return fmt.Errorf("failed to evaluate submission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return faults.NotFound("submission not found")
	}

	complete := s.Converter(`
		UPDATE tasks SET status = 'completed'
		WHERE id = ? AND status = 'submitted'
	`)
	if _, err := tx.Exec(complete, taskID); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	return tx.Commit()
}

// TrackDownload increments the per-pair counter, creating the row on first
// download. Audit only.
func (s *BaseStore) TrackDownload(userID, taskID, now int64) error {
	query := s.Converter(`
		INSERT INTO download_logs (user_id, task_id, download_count, first_download, last_download)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT (user_id, task_id) DO UPDATE SET
			download_count = download_logs.download_count + 1,
			last_download = excluded.last_download
	`)
	if _, err := s.DB.Exec(query, userID, taskID, now, now); err != nil {
		return fmt.Errorf("failed to track download: %w", err)
	}
	return nil
}

func (s *BaseStore) GetDownloadCount(userID, taskID int64) (int64, error) {
	var count int64
	query := s.Converter(`
		SELECT download_count FROM download_logs
		WHERE user_id = ? AND task_id = ?
	`)
	err := s.DB.Get(&count, query, userID, taskID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get download count: %w", err)
	}
	return count, nil
}

func (s *BaseStore) LogActivity(entry *models.ActivityLog) error {
	query := s.Converter(`
		INSERT INTO activity_logs (user_id, activity_type, activity_description, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err := s.DB.Exec(query,
		entry.UserID,
		entry.Activity,
		entry.Description,
		entry.IPAddress,
		entry.UserAgent,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	return nil
}

func (s *BaseStore) ListActivity(limit int) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	query := s.Converter(`
		SELECT id, user_id, activity_type,
		       COALESCE(activity_description, '') AS activity_description,
		       COALESCE(ip_address, '') AS ip_address,
		       COALESCE(user_agent, '') AS user_agent,
		       created_at
		FROM activity_logs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`)
	if err := s.DB.Select(&entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, nil
}
