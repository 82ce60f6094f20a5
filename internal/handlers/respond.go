package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/faults"
	"github.com/shrimpsizemoose/semla/internal/metrics"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

// writeError maps any error to the JSON {error: message} body. Untyped
// errors never leak internals to the client.
func writeError(w http.ResponseWriter, err error) {
	status := faults.HTTPStatus(err)
	message := "internal server error"
	if _, ok := faults.KindOf(err); ok {
		message = err.Error()
	} else {
		logger.Error.Printf("Unhandled error: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// WithMetrics wraps a route with the request duration histogram. The path
// label uses the registered pattern, not the raw URL, to keep cardinality
// bounded.
func WithMetrics(pattern string, next http.HandlerFunc) http.HandlerFunc {
	parts := strings.SplitN(pattern, " ", 2)
	method, path := parts[0], parts[len(parts)-1]
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		metrics.APIRequestDuration.WithLabelValues(
			path,
			method,
			strconv.Itoa(rec.status),
		).Observe(time.Since(start).Seconds())
	}
}

// authenticate verifies the bearer token and bumps the session counter.
func authenticate(service *app.Service, r *http.Request) (*app.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, faults.Auth("access token required")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	claims, err := service.Tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	if err := service.Sessions.Touch(r.Context(), claims.UserID); err != nil {
		logger.Debug.Printf("Failed to touch session for user %d: %v", claims.UserID, err)
	}

	return claims, nil
}

// authorize additionally checks the caller's role against the route
// requirement. Role mismatch is a 403, never a silent redirect.
func authorize(service *app.Service, r *http.Request, role string) (*app.Claims, error) {
	claims, err := authenticate(service, r)
	if err != nil {
		return nil, err
	}
	if err := app.RequireRole(claims, role); err != nil {
		return nil, err
	}
	return claims, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, faults.Newf(faults.KindValidation, "invalid %s", name)
	}
	return id, nil
}
