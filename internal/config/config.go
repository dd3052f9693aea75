package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds the application configuration
type Config struct {
	DatabaseURL    string
	Port           string
	AdminJWTSecret string
	AdminEmail     string

	// SMTP settings; when SMTPHost is empty the service falls back to the
	// log-only mailer (codes are printed, nothing is sent).
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	CodeTTL    time.Duration
	SessionTTL time.Duration

	DevMode bool
}

const (
	defaultPort       = "8080"
	defaultCodeTTL    = 10 * time.Minute
	defaultSessionTTL = 30 * 24 * time.Hour
)

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:       defaultPort,
		CodeTTL:    defaultCodeTTL,
		SessionTTL: defaultSessionTTL,
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	cfg.AdminJWTSecret = os.Getenv("ADMIN_JWT_SECRET")
	if cfg.AdminJWTSecret == "" {
		return nil, fmt.Errorf("ADMIN_JWT_SECRET environment variable is required")
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	// Moderation alerts go here; optional, alerts are skipped when unset.
	cfg.AdminEmail = os.Getenv("ADMIN_EMAIL")

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort = os.Getenv("SMTP_PORT")
	if cfg.SMTPPort == "" {
		cfg.SMTPPort = "465"
	}
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPass = os.Getenv("SMTP_PASS")
	cfg.SMTPFrom = os.Getenv("SMTP_FROM")
	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.SMTPUser
	}

	if ttl := os.Getenv("LOGIN_CODE_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid LOGIN_CODE_TTL: %w", err)
		}
		cfg.CodeTTL = d
	}

	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = d
	}

	cfg.DevMode = os.Getenv("DEV_MODE") == "true"

	return cfg, nil
}
