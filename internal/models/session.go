package models

import "time"

// SessionInfo describes a token issued to a user, as recorded in the optional
// redis session registry. Verification itself stays stateless; this record
// exists for audit and introspection only.
type SessionInfo struct {
	UserID          int64     `json:"user_id"`
	Username        string    `json:"username"`
	Role            string    `json:"role"`
	RequestCount    int       `json:"request_count"`
	LastRequestTime time.Time `json:"last_request_dttm_utc"`
	CreatedTime     time.Time `json:"created_dttm_utc"`
	ExpiresTime     time.Time `json:"expires_dttm_utc"`
}
