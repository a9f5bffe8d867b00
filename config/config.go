package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/lifanwar/warung22/internal/helper"
)

const (
	DefaultPort           = "3000"
	DefaultBackendURL     = "http://localhost:8000"
	DefaultSessionID      = "session1"
	DefaultBrandName      = "Warung22"
	DefaultReconnectDelay = 3  // seconds
	DefaultAskTimeout     = 50 // seconds
	DefaultRefreshTimeout = 10 // seconds
)

var ErrMissingAPIKey = errors.New("API_KEY is not set")

type Config struct {
	Port       string
	BackendURL string
	APIKey     string

	// SessionID keys the credential store. With the default SQLite store
	// it is also the database file name.
	SessionID   string
	DatabaseURL string

	BrandName      string
	ReconnectDelay time.Duration
	AskTimeout     time.Duration
	RefreshTimeout time.Duration

	WebhookURL    string
	WebhookSecret string

	LogLevel  string
	LogFormat string
}

// Load reads the process environment. godotenv.Load has to run before this
// if a .env file should be honoured.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           helper.GetEnv("PORT_WA", DefaultPort),
		BackendURL:     helper.GetEnv("BACKEND_URL", DefaultBackendURL),
		APIKey:         helper.GetEnv("API_KEY", ""),
		SessionID:      helper.GetEnv("SESSION_ID", DefaultSessionID),
		DatabaseURL:    helper.GetEnv("DATABASE_URL", ""),
		BrandName:      helper.GetEnv("BRAND_NAME", DefaultBrandName),
		ReconnectDelay: helper.GetEnvAsSeconds("RECONNECT_DELAY_SECONDS", DefaultReconnectDelay),
		AskTimeout:     helper.GetEnvAsSeconds("ASK_TIMEOUT_SECONDS", DefaultAskTimeout),
		RefreshTimeout: helper.GetEnvAsSeconds("REFRESH_TIMEOUT_SECONDS", DefaultRefreshTimeout),
		WebhookURL:     helper.GetEnv("WEBHOOK_URL", ""),
		WebhookSecret:  helper.GetEnv("WEBHOOK_SECRET", ""),
		LogLevel:       helper.GetEnv("LOG_LEVEL", "info"),
		LogFormat:      helper.GetEnv("LOG_FORMAT", "console"),
	}

	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return cfg, nil
}

// Addr is the listen address of the pairing page.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// CredentialStoreURL returns the dialect and address of the credential
// database. Without DATABASE_URL a local SQLite file named after the
// session is used.
func (c *Config) CredentialStoreURL() (dialect, address string) {
	if c.DatabaseURL != "" {
		return "postgres", c.DatabaseURL
	}
	return "sqlite", fmt.Sprintf("file:%s.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", c.SessionID)
}
