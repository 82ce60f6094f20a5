package app

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// GSheetConfig describes one scheduled spreadsheet export target.
type GSheetConfig struct {
	CredentialsPath string `toml:"credentials_path"`
	Schedule        string `toml:"schedule"`
	SpreadsheetID   string `toml:"spreadsheet_id"`
	SheetName       string `toml:"sheet_name"`
}

type Config struct {
	Server struct {
		Port string `toml:"port"`
	} `toml:"server"`

	Auth struct {
		JWTSecret     string `toml:"jwt_secret"`
		TokenTTLHours int    `toml:"token_ttl_hours"`
		BcryptCost    int    `toml:"bcrypt_cost"`
	} `toml:"auth"`

	Sessions struct {
		Enabled  bool   `toml:"enabled"`
		RedisURL string `toml:"redis_url"`
	} `toml:"sessions"`

	Storage struct {
		UploadsDir  string `toml:"uploads_dir"`
		MaxUploadMB int64  `toml:"max_upload_mb"`
	} `toml:"storage"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Bootstrap struct {
		AdminUsername string `toml:"admin_username"`
		AdminEmail    string `toml:"admin_email"`
		AdminPassword string `toml:"admin_password"`
	} `toml:"bootstrap"`

	Export map[string][]GSheetConfig `toml:"export"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :5000")
	}
	if config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required")
	}

	if config.Auth.TokenTTLHours == 0 {
		config.Auth.TokenTTLHours = 8
	}
	if config.Auth.BcryptCost == 0 {
		config.Auth.BcryptCost = 10
	}
	if config.Storage.UploadsDir == "" {
		config.Storage.UploadsDir = "./uploads"
	}
	if config.Storage.MaxUploadMB == 0 {
		config.Storage.MaxUploadMB = 50
	}
	if config.Database.MigrationsDir == "" {
		config.Database.MigrationsDir = "./migrations"
	}

	return &config, nil
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

func (c *Config) MaxUploadBytes() int64 {
	return c.Storage.MaxUploadMB << 20
}
