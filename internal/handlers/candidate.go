package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/archive"
	"github.com/shrimpsizemoose/semla/internal/faults"
	"github.com/shrimpsizemoose/semla/internal/lifecycle"
	"github.com/shrimpsizemoose/semla/internal/metrics"
	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/storage"
)

type CandidateHandler struct {
	service *app.Service
}

func NewCandidateHandler(service *app.Service) *CandidateHandler {
	return &CandidateHandler{
		service: service,
	}
}

func (h *CandidateHandler) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	claims, err := authorize(h.service, r, models.RoleCandidate)
	if err != nil {
		writeError(w, err)
		return
	}

	tasks, err := h.service.Store.ListTasksForUser(claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// HandleDownload serves the task archive to its assignee. A task assigned to
// someone else reads as 404, same as a task that does not exist.
func (h *CandidateHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	claims, err := authorize(h.service, r, models.RoleCandidate)
	if err != nil {
		writeError(w, err)
		return
	}

	taskID, err := pathID(r, "taskId")
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := h.service.Store.GetTaskForUser(taskID, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := lifecycle.GuardDownload(task); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Files.Ensure(task.ZipPath); err != nil {
		writeError(w, err)
		return
	}

	now := time.Now().UTC().Unix()
	if err := h.service.Store.TrackDownload(claims.UserID, taskID, now); err != nil {
		writeError(w, err)
		return
	}
	if err := h.service.Store.MarkTaskDownloaded(taskID); err != nil {
		writeError(w, err)
		return
	}

	h.service.Audit(r, claims.UserID, models.ActivityDownloadTask,
		fmt.Sprintf("Downloaded task: %s", task.TaskName))
	metrics.DownloadsTotal.Inc()

	filename := unsafeFilename.ReplaceAllString(task.TaskName, "_") + "_task.zip"
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Type", "application/zip")
	http.ServeFile(w, r, task.ZipPath)
}

// HandleSubmit accepts a completed archive before the deadline. Guards run
// before the upload is persisted; a rejected archive is deleted before the
// error goes out. A second valid submission replaces the first.
func (h *CandidateHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	claims, err := authorize(h.service, r, models.RoleCandidate)
	if err != nil {
		writeError(w, err)
		return
	}

	taskID, err := pathID(r, "taskId")
	if err != nil {
		writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.service.Config.MaxUploadBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, faults.Validation("invalid multipart form or file too large"))
		return
	}
	notes := r.FormValue("notes")

	task, err := h.service.Store.GetTaskForUser(taskID, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now().UTC()
	if err := lifecycle.GuardSubmit(task, now.Unix()); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		writeError(w, err)
		return
	}

	file, _, err := r.FormFile("submission")
	if err != nil {
		writeError(w, faults.Validation("submission ZIP file is required"))
		return
	}
	defer file.Close()

	path, result, err := saveAndValidate(h.service, storage.KindSubmission, file, archive.MinSubmissionEntries)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		writeError(w, err)
		return
	}

	prior, err := h.service.Store.GetSubmission(claims.UserID, taskID)
	if err != nil {
		writeError(w, err)
		return
	}

	sub := &models.Submission{
		UserID:          claims.UserID,
		TaskID:          taskID,
		FilePath:        path,
		SubmissionNotes: notes,
		SubmittedAt:     now.Unix(),
	}
	if err := h.service.Store.RecordSubmission(sub); err != nil {
		if rmErr := h.service.Files.Remove(path); rmErr != nil {
			logger.Error.Printf("Failed to clean up submission file %s: %v", path, rmErr)
		}
		writeError(w, err)
		return
	}

	// latest wins: the replaced artifact is garbage once the new row commits
	if prior != nil && prior.FilePath != path {
		if err := h.service.Files.Remove(prior.FilePath); err != nil {
			logger.Error.Printf("Failed to remove replaced submission %s: %v", prior.FilePath, err)
		}
	}

	h.service.Audit(r, claims.UserID, models.ActivitySubmitTask,
		fmt.Sprintf("Submitted task: %s", task.TaskName))
	metrics.SubmissionsTotal.WithLabelValues("ok").Inc()
	metrics.SubmissionEntryCount.Observe(float64(result.EntryCount))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task submitted successfully",
		"submission": map[string]interface{}{
			"taskId":      taskID,
			"submittedAt": now.Format(time.RFC3339),
			"fileCount":   result.EntryCount,
			"notes":       notes,
		},
	})
}

func (h *CandidateHandler) HandleListSubmissions(w http.ResponseWriter, r *http.Request) {
	claims, err := authorize(h.service, r, models.RoleCandidate)
	if err != nil {
		writeError(w, err)
		return
	}

	subs, err := h.service.Store.ListSubmissionsForUser(claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, subs)
}
