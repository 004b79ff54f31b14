package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// Config holds application configuration
type Config struct {
	Port       string
	DBConn     string
	SQLitePath string
	LogLevel   string

	// Identity provider. An empty secret enables development mode with a
	// fixed synthetic identity.
	AuthJWTSecret string
	AuthIssuer    string

	// Text generator for tips.
	GeminiAPIKey string
	GeminiAPIURL string
	GeminiModel  string

	AllowedOrigins []string

	// SessionSecret is auto-generated when not configured; anything
	// signed with a generated secret does not survive a restart.
	SessionSecret          string
	SessionSecretGenerated bool

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	// Cron expression for the daily stats reconciliation job. Empty
	// disables the job.
	ReconcileSpec string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBConn:        getEnv("DB_CONN", ""),
		SQLitePath:    getEnv("SQLITE_DB_PATH", "./data/finmate.db"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		AuthIssuer:    getEnv("AUTH_ISSUER", ""),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiAPIURL:  getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-pro"),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SenderEmail:   getEnv("SENDER_EMAIL", ""),
		ReconcileSpec: getEnv("STATS_RECONCILE_SPEC", ""),
	}

	for _, origin := range strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if cfg.Port == "" {
		return nil, fmt.Errorf("PORT is required")
	}
	if cfg.SQLitePath == "" && cfg.DBConn == "" {
		return nil, fmt.Errorf("either DB_CONN or SQLITE_DB_PATH is required")
	}

	if cfg.SessionSecret == "" {
		secret, err := generateSecret(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		cfg.SessionSecret = secret
		cfg.SessionSecretGenerated = true
	}

	return cfg, nil
}

// DevMode reports whether no identity-provider credential is configured.
func (c *Config) DevMode() bool {
	return c.AuthJWTSecret == ""
}

// SMTPConfigured reports whether the welcome-mail sender can be used.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SenderEmail != ""
}

func generateSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
