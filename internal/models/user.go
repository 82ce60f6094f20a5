package models

import (
	"github.com/go-playground/validator/v10"
)

const (
	RoleAdmin     = "admin"
	RoleCandidate = "candidate"
)

type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username" validate:"required,max=50"`
	PasswordHash string `db:"password_hash" json:"-"`
	Email        string `db:"email" json:"email" validate:"required,email,max=100"`
	Mobile       string `db:"mobile" json:"mobile,omitempty" validate:"max=15"`
	Role         string `db:"role" json:"role" validate:"required,oneof=admin candidate"`
	IsActive     bool   `db:"is_active" json:"-"`
	CreatedAt    int64  `db:"created_at" json:"created_at"`
}

func (u *User) Validate() error {
	validate := validator.New()
	return validate.Struct(u)
}

// LoginRequest is the POST /api/auth/login body. Mobile is checked for
// candidates only, and only when the stored record has one.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Mobile   string `json:"mobile"`
}

func (r *LoginRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// CreateCandidateRequest is the admin create-candidate body. Username and
// password are generated server-side, never supplied by the caller.
type CreateCandidateRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	Email  string `json:"email" validate:"required,email,max=100"`
	Mobile string `json:"mobile" validate:"required,max=15"`
}

func (r *CreateCandidateRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
