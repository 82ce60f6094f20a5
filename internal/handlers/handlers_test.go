package handlers

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/storage"
	"github.com/shrimpsizemoose/semla/internal/store"
	"github.com/shrimpsizemoose/semla/internal/store/sqlite"
)

type testEnv struct {
	service *app.Service
	mux     *http.ServeMux
	uploads string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := sqlite.NewSQLiteStore(&store.DBConfig{
		DSN:           filepath.Join(t.TempDir(), "handlers.db"),
		Type:          store.DBTypeSQLite,
		MigrationsDir: "../../migrations",
	})
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations("../../migrations"))
	t.Cleanup(func() { s.Close() })

	uploads := t.TempDir()
	files, err := storage.NewFileStore(uploads)
	require.NoError(t, err)

	sessions, err := app.NewSessionRegistry(false, "")
	require.NoError(t, err)

	config := &app.Config{}
	config.Server.Port = ":0"
	config.Auth.JWTSecret = "handler-test-secret"
	config.Auth.TokenTTLHours = 8
	config.Auth.BcryptCost = 4
	config.Storage.UploadsDir = uploads
	config.Storage.MaxUploadMB = 50

	service := &app.Service{
		Config:   config,
		Store:    s,
		Files:    files,
		Tokens:   app.NewTokenIssuer(config.Auth.JWTSecret, config.TokenTTL()),
		Sessions: sessions,
	}

	authHandler := NewAuthHandler(service)
	adminHandler := NewAdminHandler(service)
	candidateHandler := NewCandidateHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", authHandler.HandleHealth)
	mux.HandleFunc("POST /api/auth/login", authHandler.HandleLogin)
	mux.HandleFunc("GET /api/auth/session", authHandler.HandleSession)
	mux.HandleFunc("GET /api/admin/candidates", adminHandler.HandleListCandidates)
	mux.HandleFunc("POST /api/admin/create-candidate", adminHandler.HandleCreateCandidate)
	mux.HandleFunc("DELETE /api/admin/candidates/{candidateId}", adminHandler.HandleDeleteCandidate)
	mux.HandleFunc("POST /api/admin/upload-task", adminHandler.HandleUploadTask)
	mux.HandleFunc("GET /api/admin/tasks", adminHandler.HandleListTasks)
	mux.HandleFunc("GET /api/admin/activity", adminHandler.HandleListActivity)
	mux.HandleFunc("POST /api/admin/evaluate/{taskId}", adminHandler.HandleEvaluate)
	mux.HandleFunc("GET /api/candidate/tasks", candidateHandler.HandleListTasks)
	mux.HandleFunc("GET /api/candidate/download/{taskId}", candidateHandler.HandleDownload)
	mux.HandleFunc("POST /api/candidate/submit/{taskId}", candidateHandler.HandleSubmit)
	mux.HandleFunc("GET /api/candidate/submissions", candidateHandler.HandleListSubmissions)

	return &testEnv{service: service, mux: mux, uploads: uploads}
}

func (env *testEnv) createUser(t *testing.T, username, password, mobile, role string) *models.User {
	t.Helper()

	hash, err := env.service.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Email:        username + "@example.com",
		Mobile:       mobile,
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC().Unix(),
	}
	id, err := env.service.Store.CreateUser(user)
	require.NoError(t, err)
	user.ID = id
	return user
}

func (env *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, _, err := env.service.Tokens.Issue(user)
	require.NoError(t, err)
	return token
}

// createTask seeds a task directly, with a real archive on disk
func (env *testEnv) createTask(t *testing.T, name string, assignedTo int64, deadline time.Time) int64 {
	t.Helper()

	path, err := env.service.Files.Save(storage.KindTask, bytes.NewReader(zipBytes(t, "a.txt", "b.txt", "c.txt", "d.txt", "e.txt")))
	require.NoError(t, err)

	id, err := env.service.Store.CreateTask(&models.Task{
		TaskName:   name,
		ZipPath:    path,
		AssignedTo: &assignedTo,
		CreatedBy:  1,
		Deadline:   deadline.Unix(),
		Status:     models.StatusAssigned,
		CreatedAt:  time.Now().UTC().Unix(),
	})
	require.NoError(t, err)
	return id
}

func zipBytes(t *testing.T, entries ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("content of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func multipartBody(t *testing.T, fileField, fileName string, fileContent []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write(fileContent)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (env *testEnv) do(t *testing.T, method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	env.mux.ServeHTTP(rr, req)
	return rr
}

func (env *testEnv) doJSON(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return env.do(t, method, path, token, bytes.NewBuffer(body), "application/json")
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/health", "", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", decodeBody(t, rr)["status"])
}

func TestHandleLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "admin", "adminpass", "", models.RoleAdmin)
	env.createUser(t, "SwiftTiger42", "tigerpass", "5551234567", models.RoleCandidate)

	t.Run("admin login succeeds", func(t *testing.T) {
		rr := env.doJSON(t, "POST", "/api/auth/login", "", map[string]string{
			"username": "admin",
			"password": "adminpass",
		})
		require.Equal(t, http.StatusOK, rr.Code)

		body := decodeBody(t, rr)
		assert.NotEmpty(t, body["token"])
		user := body["user"].(map[string]interface{})
		assert.Equal(t, "admin", user["username"])
		assert.NotContains(t, user, "password_hash")
	})

	t.Run("candidate login needs matching mobile", func(t *testing.T) {
		rr := env.doJSON(t, "POST", "/api/auth/login", "", map[string]string{
			"username": "SwiftTiger42",
			"password": "tigerpass",
			"mobile":   "5551234567",
		})
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("all mismatches read the same", func(t *testing.T) {
		cases := map[string]map[string]string{
			"unknown username": {"username": "ghost", "password": "whatever"},
			"wrong password":   {"username": "admin", "password": "nope"},
			"wrong mobile":     {"username": "SwiftTiger42", "password": "tigerpass", "mobile": "0000000000"},
			"missing mobile":   {"username": "SwiftTiger42", "password": "tigerpass"},
		}
		for name, payload := range cases {
			t.Run(name, func(t *testing.T) {
				rr := env.doJSON(t, "POST", "/api/auth/login", "", payload)
				assert.Equal(t, http.StatusUnauthorized, rr.Code)
				assert.Equal(t, "invalid credentials", decodeBody(t, rr)["error"])
			})
		}
	})

	t.Run("missing fields is a validation error", func(t *testing.T) {
		rr := env.doJSON(t, "POST", "/api/auth/login", "", map[string]string{"username": "admin"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("malformed body is a validation error", func(t *testing.T) {
		rr := env.do(t, "POST", "/api/auth/login", "", bytes.NewBufferString("{nope"), "application/json")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthorization(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", "adminpass", "", models.RoleAdmin)
	candidate := env.createUser(t, "SwiftTiger42", "tigerpass", "", models.RoleCandidate)

	t.Run("no token", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/admin/tasks", "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/admin/tasks", "not.a.token", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("candidate on admin route", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/admin/tasks", env.token(t, candidate), nil, "")
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin on candidate route", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/candidate/tasks", env.token(t, admin), nil, "")
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestHandleCreateCandidate(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", "adminpass", "", models.RoleAdmin)
	adminToken := env.token(t, admin)

	t.Run("generates credentials server-side", func(t *testing.T) {
		rr := env.doJSON(t, "POST", "/api/admin/create-candidate", adminToken, map[string]string{
			"name":   "Jane Applicant",
			"email":  "jane@example.com",
			"mobile": "5559876543",
		})
		require.Equal(t, http.StatusOK, rr.Code)

		body := decodeBody(t, rr)
		created := body["candidate"].(map[string]interface{})
		assert.NotEmpty(t, created["username"])
		assert.NotEmpty(t, created["password"])
		assert.Equal(t, "jane@example.com", created["email"])

		t.Run("candidate can log in with them", func(t *testing.T) {
			rr := env.doJSON(t, "POST", "/api/auth/login", "", map[string]string{
				"username": created["username"].(string),
				"password": created["password"].(string),
				"mobile":   "5559876543",
			})
			assert.Equal(t, http.StatusOK, rr.Code)
		})
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rr := env.doJSON(t, "POST", "/api/admin/create-candidate", adminToken, map[string]string{
			"name":   "Jane Again",
			"email":  "jane@example.com",
			"mobile": "5550001111",
		})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		rr := env.doJSON(t, "POST", "/api/admin/create-candidate", adminToken, map[string]string{
			"name": "No Email",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandleDeleteCandidate(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", "adminpass", "", models.RoleAdmin)
	candidate := env.createUser(t, "SwiftTiger42", "tigerpass", "", models.RoleCandidate)
	adminToken := env.token(t, admin)

	t.Run("unknown id is 404", func(t *testing.T) {
		rr := env.do(t, "DELETE", "/api/admin/candidates/99999", adminToken, nil, "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("bad id is 400", func(t *testing.T) {
		rr := env.do(t, "DELETE", "/api/admin/candidates/abc", adminToken, nil, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("delete removes the account", func(t *testing.T) {
		rr := env.do(t, "DELETE", fmt.Sprintf("/api/admin/candidates/%d", candidate.ID), adminToken, nil, "")
		require.Equal(t, http.StatusOK, rr.Code)

		rr = env.do(t, "GET", "/api/admin/candidates", adminToken, nil, "")
		require.Equal(t, http.StatusOK, rr.Code)
		var listed []models.User
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
		assert.Empty(t, listed)
	})
}

func TestHandleUploadTask(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", "adminpass", "", models.RoleAdmin)
	candidate := env.createUser(t, "SwiftTiger42", "tigerpass", "", models.RoleCandidate)
	adminToken := env.token(t, admin)
	tasksDir := filepath.Join(env.uploads, "tasks")

	deadline := time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339)

	upload := func(t *testing.T, content []byte, fields map[string]string) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, "zipFile", "task.zip", content, fields)
		return env.do(t, "POST", "/api/admin/upload-task", adminToken, body, contentType)
	}

	fullFields := func() map[string]string {
		return map[string]string{
			"taskName":    "Build ETL Pipeline",
			"description": "see README inside",
			"assignedTo":  fmt.Sprintf("%d", candidate.ID),
			"deadline":    deadline,
		}
	}

	t.Run("five entry archive accepted", func(t *testing.T) {
		rr := upload(t, zipBytes(t, "README.md", "main.go", "go.mod", "Makefile", "data.csv"), fullFields())
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		body := decodeBody(t, rr)
		task := body["task"].(map[string]interface{})
		fileInfo := task["fileInfo"].(map[string]interface{})
		assert.Equal(t, float64(5), fileInfo["fileCount"])
		assert.Equal(t, 1, countFiles(t, tasksDir))
	})

	t.Run("under five entries rejected with no residual file", func(t *testing.T) {
		before := countFiles(t, tasksDir)

		rr := upload(t, zipBytes(t, "README.md", "main.go"), fullFields())
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeBody(t, rr)["error"], "at least 5")
		assert.Equal(t, before, countFiles(t, tasksDir))
	})

	t.Run("corrupt archive rejected with no residual file", func(t *testing.T) {
		before := countFiles(t, tasksDir)

		rr := upload(t, []byte("definitely not a zip"), fullFields())
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, before, countFiles(t, tasksDir))
	})

	t.Run("missing metadata rejected", func(t *testing.T) {
		fields := fullFields()
		delete(fields, "deadline")
		rr := upload(t, zipBytes(t, "a", "b", "c", "d", "e"), fields)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("bad deadline rejected", func(t *testing.T) {
		fields := fullFields()
		fields["deadline"] = "next tuesday"
		rr := upload(t, zipBytes(t, "a", "b", "c", "d", "e"), fields)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("bare date deadline accepted", func(t *testing.T) {
		fields := fullFields()
		fields["deadline"] = time.Now().UTC().Add(96 * time.Hour).Format("2006-01-02")
		rr := upload(t, zipBytes(t, "a", "b", "c", "d", "e"), fields)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("assignee must be a candidate", func(t *testing.T) {
		fields := fullFields()
		fields["assignedTo"] = fmt.Sprintf("%d", admin.ID)
		rr := upload(t, zipBytes(t, "a", "b", "c", "d", "e"), fields)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing file rejected", func(t *testing.T) {
		body, contentType := multipartBody(t, "", "", nil, fullFields())
		rr := env.do(t, "POST", "/api/admin/upload-task", adminToken, body, contentType)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandleDownload(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "admin", "adminpass", "", models.RoleAdmin)
	candidate := env.createUser(t, "SwiftTiger42", "tigerpass", "", models.RoleCandidate)
	other := env.createUser(t, "BraveEagle11", "eaglepass", "", models.RoleCandidate)
	token := env.token(t, candidate)

	taskID := env.createTask(t, "Build ETL Pipeline", candidate.ID, time.Now().UTC().Add(72*time.Hour))

	t.Run("assignee downloads the archive", func(t *testing.T) {
		rr := env.do(t, "GET", fmt.Sprintf("/api/candidate/download/%d", taskID), token, nil, "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/zip", rr.Header().Get("Content-Type"))
		assert.Contains(t, rr.Header().Get("Content-Disposition"), "Build_ETL_Pipeline_task.zip")
		assert.NotEmpty(t, rr.Body.Bytes())
	})

	t.Run("status flips to downloaded once", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/candidate/tasks", token, nil, "")
		require.Equal(t, http.StatusOK, rr.Code)

		var tasks []models.TaskOverview
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tasks))
		require.Len(t, tasks, 1)
		assert.Equal(t, models.StatusDownloaded, tasks[0].EffectiveStatus)

		env.do(t, "GET", fmt.Sprintf("/api/candidate/download/%d", taskID), token, nil, "")
		count, err := env.service.Store.GetDownloadCount(candidate.ID, taskID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("someone else's task reads as 404", func(t *testing.T) {
		rr := env.do(t, "GET", fmt.Sprintf("/api/candidate/download/%d", taskID), env.token(t, other), nil, "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("unknown task reads as 404", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/candidate/download/99999", token, nil, "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("artifact gone from disk is 404", func(t *testing.T) {
		goneID := env.createTask(t, "gone-task", candidate.ID, time.Now().UTC().Add(72*time.Hour))
		task, err := env.service.Store.GetTaskForUser(goneID, candidate.ID)
		require.NoError(t, err)
		require.NoError(t, os.Remove(task.ZipPath))

		rr := env.do(t, "GET", fmt.Sprintf("/api/candidate/download/%d", goneID), token, nil, "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestHandleSubmit(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "admin", "adminpass", "", models.RoleAdmin)
	candidate := env.createUser(t, "SwiftTiger42", "tigerpass", "", models.RoleCandidate)
	other := env.createUser(t, "BraveEagle11", "eaglepass", "", models.RoleCandidate)
	token := env.token(t, candidate)
	subsDir := filepath.Join(env.uploads, "submissions")

	taskID := env.createTask(t, "Build ETL Pipeline", candidate.ID, time.Now().UTC().Add(72*time.Hour))

	submit := func(t *testing.T, asToken string, id int64, content []byte, notes string) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, "submission", "solution.zip", content, map[string]string{"notes": notes})
		return env.do(t, "POST", fmt.Sprintf("/api/candidate/submit/%d", id), asToken, body, contentType)
	}

	t.Run("submission before deadline accepted", func(t *testing.T) {
		rr := submit(t, token, taskID, zipBytes(t, "solution.py"), "first pass")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		body := decodeBody(t, rr)
		sub := body["submission"].(map[string]interface{})
		assert.Equal(t, float64(1), sub["fileCount"])
		assert.Equal(t, "first pass", sub["notes"])
		assert.Equal(t, 1, countFiles(t, subsDir))
	})

	t.Run("resubmission replaces the previous artifact", func(t *testing.T) {
		rr := submit(t, token, taskID, zipBytes(t, "solution.py", "README.md"), "second pass")
		require.Equal(t, http.StatusOK, rr.Code)

		assert.Equal(t, 1, countFiles(t, subsDir), "old artifact should be gone")

		listing := env.do(t, "GET", "/api/candidate/submissions", token, nil, "")
		require.Equal(t, http.StatusOK, listing.Code)
		var subs []models.SubmissionView
		require.NoError(t, json.Unmarshal(listing.Body.Bytes(), &subs))
		require.Len(t, subs, 1)
		assert.Equal(t, "second pass", subs[0].SubmissionNotes)
	})

	t.Run("empty archive rejected with no residual file", func(t *testing.T) {
		before := countFiles(t, subsDir)
		rr := submit(t, token, taskID, zipBytes(t), "empty")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, before, countFiles(t, subsDir))
	})

	t.Run("corrupt archive rejected", func(t *testing.T) {
		rr := submit(t, token, taskID, []byte("not a zip"), "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeBody(t, rr)["error"], "corrupted")
	})

	t.Run("past deadline rejected before the file is read", func(t *testing.T) {
		expiredID := env.createTask(t, "expired-task", candidate.ID, time.Now().UTC().Add(-time.Hour))
		before := countFiles(t, subsDir)

		rr := submit(t, token, expiredID, zipBytes(t, "late.py"), "too late")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeBody(t, rr)["error"], "deadline")
		assert.Equal(t, before, countFiles(t, subsDir))
	})

	t.Run("someone else's task reads as 404", func(t *testing.T) {
		rr := submit(t, env.token(t, other), taskID, zipBytes(t, "steal.py"), "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("unknown task reads as 404", func(t *testing.T) {
		rr := submit(t, token, 99999, zipBytes(t, "a.py"), "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestHandleEvaluate(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", "adminpass", "", models.RoleAdmin)
	candidate := env.createUser(t, "SwiftTiger42", "tigerpass", "", models.RoleCandidate)
	adminToken := env.token(t, admin)

	taskID := env.createTask(t, "Build ETL Pipeline", candidate.ID, time.Now().UTC().Add(72*time.Hour))

	t.Run("no submission yet is 404", func(t *testing.T) {
		rr := env.doJSON(t, "POST", fmt.Sprintf("/api/admin/evaluate/%d", taskID), adminToken, map[string]interface{}{
			"user_id": candidate.ID,
			"score":   90,
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("evaluation completes the task", func(t *testing.T) {
		body, contentType := multipartBody(t, "submission", "solution.zip", zipBytes(t, "solution.py"), nil)
		rr := env.do(t, "POST", fmt.Sprintf("/api/candidate/submit/%d", taskID), env.token(t, candidate), body, contentType)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = env.doJSON(t, "POST", fmt.Sprintf("/api/admin/evaluate/%d", taskID), adminToken, map[string]interface{}{
			"user_id": candidate.ID,
			"score":   90,
			"notes":   "well structured",
		})
		require.Equal(t, http.StatusOK, rr.Code)

		listing := env.do(t, "GET", "/api/admin/tasks", adminToken, nil, "")
		require.Equal(t, http.StatusOK, listing.Code)
		var tasks []models.TaskOverview
		require.NoError(t, json.Unmarshal(listing.Body.Bytes(), &tasks))
		require.Len(t, tasks, 1)
		assert.Equal(t, models.StatusCompleted, tasks[0].EffectiveStatus)
	})

	t.Run("missing user_id rejected", func(t *testing.T) {
		rr := env.doJSON(t, "POST", fmt.Sprintf("/api/admin/evaluate/%d", taskID), adminToken, map[string]interface{}{
			"score": 50,
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandleListActivity(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", "adminpass", "", models.RoleAdmin)
	adminToken := env.token(t, admin)

	rr := env.doJSON(t, "POST", "/api/auth/login", "", map[string]string{
		"username": "admin",
		"password": "adminpass",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	t.Run("login lands in the trail", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/admin/activity", adminToken, nil, "")
		require.Equal(t, http.StatusOK, rr.Code)

		body := decodeBody(t, rr)
		rows := body["rows"].([]interface{})
		require.NotEmpty(t, rows)
		first := rows[0].(map[string]interface{})
		assert.Equal(t, models.ActivityLogin, first["activity_type"])
		assert.Equal(t, float64(admin.ID), first["user_id"])
	})

	t.Run("bad limit rejected", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/admin/activity?limit=zero", adminToken, nil, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSessionEndpointWithoutRegistry(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", "adminpass", "", models.RoleAdmin)

	rr := env.do(t, "GET", "/api/auth/session", env.token(t, admin), nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestParseDeadline(t *testing.T) {
	t.Run("rfc3339 passes through", func(t *testing.T) {
		got, err := parseDeadline("2025-06-01T15:04:05Z")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 6, 1, 15, 4, 5, 0, time.UTC).Unix(), got)
	})

	t.Run("bare date means end of day", func(t *testing.T) {
		got, err := parseDeadline("2025-06-01")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC).Unix(), got)
	})

	t.Run("anything else fails", func(t *testing.T) {
		_, err := parseDeadline("June 1st")
		assert.Error(t, err)
	})
}

func TestUnsafeFilename(t *testing.T) {
	assert.Equal(t, "Build_ETL_Pipeline", unsafeFilename.ReplaceAllString("Build ETL Pipeline", "_"))
	assert.Equal(t, "data_cleaner_v2_0", unsafeFilename.ReplaceAllString("data-cleaner v2.0", "_"))
	assert.Equal(t, "plain", unsafeFilename.ReplaceAllString("plain", "_"))
}
