// internal/app/sessions.go
package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/semla/internal/models"
)

const (
	timeFormat    = "2006-01-02 15:04:05"
	sessionKeyTpl = "session:%d" // session:${userID}
)

// SessionRegistry records issued tokens in redis when the deployment wants
// server-side session visibility. Token verification itself never consults
// it; the registry is audit and introspection only.
type SessionRegistry struct {
	enabled bool
	redis   *redis.Client
}

func NewSessionRegistry(enabled bool, redisURL string) (*SessionRegistry, error) {
	if !enabled {
		return &SessionRegistry{enabled: false}, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &SessionRegistry{
		enabled: true,
		redis:   client,
	}, nil
}

func (sr *SessionRegistry) Close() error {
	if sr.redis != nil {
		return sr.redis.Close()
	}
	return nil
}

func tokenFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// RecordLogin stores the latest session for the user, keyed by user id. Only
// a token fingerprint lands in redis, never the signed credential itself.
// The key expires together with the token.
func (sr *SessionRegistry) RecordLogin(ctx context.Context, user *models.User, token string, expires time.Time) error {
	if !sr.enabled {
		return nil
	}

	now := time.Now().UTC()
	key := fmt.Sprintf(sessionKeyTpl, user.ID)

	pipe := sr.redis.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"username":              user.Username,
		"role":                  user.Role,
		"token_fp":              tokenFingerprint(token),
		"request_count":         1,
		"last_request_dttm_utc": now.Format(timeFormat),
		"created_dttm_utc":      now.Format(timeFormat),
		"expires_dttm_utc":      expires.UTC().Format(timeFormat),
	})
	pipe.ExpireAt(ctx, key, expires)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// Touch bumps the request counter for the user's session, if one is recorded.
func (sr *SessionRegistry) Touch(ctx context.Context, userID int64) error {
	if !sr.enabled {
		return nil
	}

	key := fmt.Sprintf(sessionKeyTpl, userID)
	now := time.Now().UTC()

	pipe := sr.redis.Pipeline()
	pipe.HIncrBy(ctx, key, "request_count", 1)
	pipe.HSet(ctx, key, "last_request_dttm_utc", now.Format(timeFormat))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Fetch returns the recorded session for a user, or nil when none exists.
func (sr *SessionRegistry) Fetch(ctx context.Context, userID int64) (*models.SessionInfo, error) {
	if !sr.enabled {
		return nil, nil
	}

	key := fmt.Sprintf(sessionKeyTpl, userID)
	values, err := sr.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}

	lastReqTime, _ := time.Parse(timeFormat, values["last_request_dttm_utc"])
	createdTime, _ := time.Parse(timeFormat, values["created_dttm_utc"])
	expiresTime, _ := time.Parse(timeFormat, values["expires_dttm_utc"])
	reqCount, _ := strconv.Atoi(values["request_count"])

	return &models.SessionInfo{
		UserID:          userID,
		Username:        values["username"],
		Role:            values["role"],
		RequestCount:    reqCount,
		LastRequestTime: lastReqTime,
		CreatedTime:     createdTime,
		ExpiresTime:     expiresTime,
	}, nil
}
