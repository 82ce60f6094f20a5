package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/archive"
	"github.com/shrimpsizemoose/semla/internal/faults"
	"github.com/shrimpsizemoose/semla/internal/metrics"
	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/storage"
)

type AdminHandler struct {
	service *app.Service
}

func NewAdminHandler(service *app.Service) *AdminHandler {
	return &AdminHandler{
		service: service,
	}
}

func (h *AdminHandler) HandleListCandidates(w http.ResponseWriter, r *http.Request) {
	if _, err := authorize(h.service, r, models.RoleAdmin); err != nil {
		writeError(w, err)
		return
	}

	candidates, err := h.service.Store.ListCandidates()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, candidates)
}

// HandleCreateCandidate generates credentials server-side and returns the
// plaintext password exactly once in the response.
func (h *AdminHandler) HandleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	claims, err := authorize(h.service, r, models.RoleAdmin)
	if err != nil {
		writeError(w, err)
		return
	}

	var req models.CreateCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, faults.Validation("invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, faults.Validation("name, email, and mobile are required"))
		return
	}

	username, password, err := app.GenerateCredentials()
	if err != nil {
		writeError(w, err)
		return
	}

	hash, err := h.service.HashPassword(password)
	if err != nil {
		writeError(w, err)
		return
	}

	candidate := &models.User{
		Username:     username,
		PasswordHash: hash,
		Email:        req.Email,
		Mobile:       req.Mobile,
		Role:         models.RoleCandidate,
		IsActive:     true,
		CreatedAt:    time.Now().UTC().Unix(),
	}

	id, err := h.service.Store.CreateUser(candidate)
	if err != nil {
		writeError(w, err)
		return
	}

	h.service.Audit(r, claims.UserID, models.ActivityCreateCandidate,
		fmt.Sprintf("Created candidate: %s (%s)", username, req.Email))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Candidate created successfully",
		"candidate": map[string]interface{}{
			"id":       id,
			"username": username,
			"password": password,
			"email":    req.Email,
			"mobile":   req.Mobile,
		},
	})
}

func (h *AdminHandler) HandleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	claims, err := authorize(h.service, r, models.RoleAdmin)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := pathID(r, "candidateId")
	if err != nil {
		writeError(w, err)
		return
	}

	deleted, err := h.service.Store.DeleteCandidate(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, faults.NotFound("candidate not found"))
		return
	}

	h.service.Audit(r, claims.UserID, models.ActivityDeleteCandidate,
		fmt.Sprintf("Deleted candidate %d", id))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Candidate deleted"})
}

// HandleUploadTask accepts a multipart ZIP upload, validates it holds at
// least five entries and files the task against a candidate with a deadline.
// A rejected archive is removed before the error goes out.
func (h *AdminHandler) HandleUploadTask(w http.ResponseWriter, r *http.Request) {
	claims, err := authorize(h.service, r, models.RoleAdmin)
	if err != nil {
		writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.service.Config.MaxUploadBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, faults.Validation("invalid multipart form or file too large"))
		return
	}

	taskName := r.FormValue("taskName")
	assignedToRaw := r.FormValue("assignedTo")
	deadlineRaw := r.FormValue("deadline")
	description := r.FormValue("description")

	if taskName == "" || assignedToRaw == "" || deadlineRaw == "" {
		writeError(w, faults.Validation("task name, assigned user, and deadline are required"))
		return
	}

	assignedTo, err := strconv.ParseInt(assignedToRaw, 10, 64)
	if err != nil {
		writeError(w, faults.Validation("invalid assigned user id"))
		return
	}
	assignee, err := h.service.Store.GetUserByID(assignedTo)
	if err != nil {
		writeError(w, err)
		return
	}
	if assignee == nil || assignee.Role != models.RoleCandidate {
		writeError(w, faults.Validation("assigned user is not an active candidate"))
		return
	}

	deadline, err := parseDeadline(deadlineRaw)
	if err != nil {
		writeError(w, err)
		return
	}

	file, header, err := r.FormFile("zipFile")
	if err != nil {
		writeError(w, faults.Validation("ZIP file is required"))
		return
	}
	defer file.Close()

	path, result, err := saveAndValidate(h.service, storage.KindTask, file, archive.MinTaskEntries)
	if err != nil {
		metrics.TaskUploadsTotal.WithLabelValues("rejected").Inc()
		writeError(w, err)
		return
	}

	task := &models.Task{
		TaskName:    taskName,
		Description: description,
		ZipPath:     path,
		AssignedTo:  &assignedTo,
		CreatedBy:   claims.UserID,
		Deadline:    deadline,
		Status:      models.StatusAssigned,
		CreatedAt:   time.Now().UTC().Unix(),
	}

	id, err := h.service.Store.CreateTask(task)
	if err != nil {
		if rmErr := h.service.Files.Remove(path); rmErr != nil {
			logger.Error.Printf("Failed to clean up task file %s: %v", path, rmErr)
		}
		writeError(w, err)
		return
	}

	h.service.Audit(r, claims.UserID, models.ActivityCreateTask,
		fmt.Sprintf("Created task: %s (assigned to user %d)", taskName, assignedTo))
	metrics.TaskUploadsTotal.WithLabelValues("ok").Inc()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task created and assigned successfully",
		"task": map[string]interface{}{
			"id":          id,
			"taskName":    taskName,
			"description": description,
			"assignedTo":  assignedTo,
			"deadline":    deadline,
			"fileInfo": map[string]interface{}{
				"filename":  header.Filename,
				"size":      header.Size,
				"fileCount": result.EntryCount,
			},
		},
	})
}

func (h *AdminHandler) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	if _, err := authorize(h.service, r, models.RoleAdmin); err != nil {
		writeError(w, err)
		return
	}

	tasks, err := h.service.Store.ListAllTasks()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (h *AdminHandler) HandleListActivity(w http.ResponseWriter, r *http.Request) {
	if _, err := authorize(h.service, r, models.RoleAdmin); err != nil {
		writeError(w, err)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, faults.Validation("invalid limit"))
			return
		}
		limit = parsed
	}

	entries, err := h.service.Store.ListActivity(limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": entries,
	})
}

type evaluateRequest struct {
	UserID int64  `json:"user_id"`
	Score  int    `json:"score"`
	Notes  string `json:"notes"`
}

// HandleEvaluate records review results for a submission and completes the
// task.
func (h *AdminHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	claims, err := authorize(h.service, r, models.RoleAdmin)
	if err != nil {
		writeError(w, err)
		return
	}

	taskID, err := pathID(r, "taskId")
	if err != nil {
		writeError(w, err)
		return
	}

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, faults.Validation("invalid request body"))
		return
	}
	if req.UserID <= 0 {
		writeError(w, faults.Validation("user_id is required"))
		return
	}

	if err := h.service.Store.EvaluateSubmission(req.UserID, taskID, req.Score, req.Notes); err != nil {
		writeError(w, err)
		return
	}

	h.service.Audit(r, claims.UserID, models.ActivityEvaluate,
		fmt.Sprintf("Evaluated submission for task %d, user %d", taskID, req.UserID))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Submission evaluated"})
}

// parseDeadline accepts RFC3339 or a bare date; a bare date means end of that
// day UTC.
func parseDeadline(raw string) (int64, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC().Unix(), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		deadline := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
		return deadline.Unix(), nil
	}
	return 0, faults.Validation("invalid deadline, use RFC3339 or YYYY-MM-DD")
}
