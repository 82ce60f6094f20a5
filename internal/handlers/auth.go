package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/faults"
	"github.com/shrimpsizemoose/semla/internal/metrics"
	"github.com/shrimpsizemoose/semla/internal/models"
)

type AuthHandler struct {
	service *app.Service
}

func NewAuthHandler(service *app.Service) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// HandleLogin authenticates username+password (+mobile for candidates) and
// returns a signed token. Every credential mismatch yields the same generic
// 401, so the response never reveals which field was wrong.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, faults.Validation("invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, faults.Validation("username and password are required"))
		return
	}

	invalid := faults.Auth("invalid credentials")

	user, err := h.service.Store.GetUserByUsername(req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil || !h.service.CheckPassword(user.PasswordHash, req.Password) {
		metrics.LoginsTotal.WithLabelValues("unknown", "rejected").Inc()
		writeError(w, invalid)
		return
	}

	if user.Role == models.RoleCandidate && user.Mobile != "" && req.Mobile != user.Mobile {
		metrics.LoginsTotal.WithLabelValues(user.Role, "rejected").Inc()
		writeError(w, invalid)
		return
	}

	token, expires, err := h.service.Tokens.Issue(user)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Sessions.RecordLogin(r.Context(), user, token, expires); err != nil {
		logger.Error.Printf("Failed to record session for user %d: %v", user.ID, err)
	}

	h.service.Audit(r, user.ID, models.ActivityLogin, "User logged in successfully")
	metrics.LoginsTotal.WithLabelValues(user.Role, "ok").Inc()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// HandleSession reports the caller's recorded session, when the deployment
// keeps a server-side registry.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	claims, err := authenticate(h.service, r)
	if err != nil {
		writeError(w, err)
		return
	}

	session, err := h.service.Sessions.Fetch(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if session == nil {
		writeError(w, faults.NotFound("no recorded session"))
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// HandleHealth is an unauthenticated liveness probe.
func (h *AuthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Server is running",
	})
}
