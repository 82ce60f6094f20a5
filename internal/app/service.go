package app

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/storage"
	"github.com/shrimpsizemoose/semla/internal/store"
)

type Service struct {
	Config   *Config
	Store    store.TaskStore
	Files    *storage.FileStore
	Tokens   *TokenIssuer
	Sessions *SessionRegistry
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	files, err := storage.NewFileStore(config.Storage.UploadsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init file storage: %w", err)
	}

	sessions, err := NewSessionRegistry(config.Sessions.Enabled, config.Sessions.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init session registry: %w", err)
	}

	return &Service{
		Config:   config,
		Store:    store,
		Files:    files,
		Tokens:   NewTokenIssuer(config.Auth.JWTSecret, config.TokenTTL()),
		Sessions: sessions,
	}, nil
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Config.Auth.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// EnsureAdmin creates the bootstrap admin account on first start. Existing
// accounts are left alone.
func (s *Service) EnsureAdmin() error {
	b := s.Config.Bootstrap
	if b.AdminUsername == "" {
		return nil
	}

	existing, err := s.Store.GetUserByUsername(b.AdminUsername)
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := s.HashPassword(b.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:     b.AdminUsername,
		PasswordHash: hash,
		Email:        b.AdminEmail,
		Role:         models.RoleAdmin,
		IsActive:     true,
		CreatedAt:    time.Now().UTC().Unix(),
	}
	if _, err := s.Store.CreateUser(admin); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	logger.Info.Printf("Created bootstrap admin user %q", b.AdminUsername)
	return nil
}

// Audit writes one activity-log entry, capturing actor and request origin.
// Audit failures are logged and swallowed: the trail never fails a request
// that already committed its transition.
func (s *Service) Audit(r *http.Request, userID int64, activity, description string) {
	entry := &models.ActivityLog{
		UserID:      userID,
		Activity:    activity,
		Description: description,
		IPAddress:   r.RemoteAddr,
		UserAgent:   r.UserAgent(),
		CreatedAt:   time.Now().UTC().Unix(),
	}
	if err := s.Store.LogActivity(entry); err != nil {
		logger.Error.Printf("Failed to write activity log (%s): %v", activity, err)
	}
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Sessions.Close(); err != nil {
		errs = append(errs, fmt.Errorf("sessions: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
