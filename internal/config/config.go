package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
// Safety thresholds live here, never in package-level globals, so tests can
// build independent gates with different limits.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string

	// Database
	DatabaseURL string

	// API auth: static bearer token shared with the scanner and operator tools.
	APIToken string

	// Safety thresholds
	MinFitScore   int           // reject candidates scoring below this
	MinConfidence int           // reject candidates the scorer is unsure about
	MaxPerHour    int           // applications allowed in any trailing hour
	MaxPerDay     int           // applications allowed in any trailing 24h
	CooldownDays  int           // duplicate cooldown over closed applications; 0 disables
	PipelineEvery time.Duration // interval between background pipeline runs

	// Events (submission collaborator)
	NATSURL string // empty disables event publishing

	// Email notifications
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	SMTPFrom      string
	OperatorEmail string // recipient for application and kill-switch alerts
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:         getEnv("ENV", "development"),
		ServerAddr:  getEnv("SERVER_ADDR", ":3000"),
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/autoapply?sslmode=disable"),
		APIToken:    getEnv("API_TOKEN", ""),

		MinFitScore:   getEnvInt("MIN_FIT_SCORE_AUTO", 80),
		MinConfidence: getEnvInt("MIN_CONFIDENCE_SCORE", 85),
		MaxPerHour:    getEnvInt("MAX_APPLICATIONS_PER_HOUR", 3),
		MaxPerDay:     getEnvInt("MAX_DAILY_APPLICATIONS", 10),
		CooldownDays:  getEnvInt("DUPLICATE_COOLDOWN_DAYS", 0),
		PipelineEvery: getEnvDuration("PIPELINE_INTERVAL", 6*time.Hour),

		NATSURL: getEnv("NATS_URL", ""),

		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		SMTPUser:      getEnv("SMTP_USER", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:      getEnv("SMTP_FROM", ""),
		OperatorEmail: getEnv("OPERATOR_EMAIL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsEmailEnabled returns true if SMTP is configured.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != "" && c.OperatorEmail != ""
}

// CooldownWindow converts the cooldown setting to a duration; zero means the
// cooldown layer is disabled.
func (c *Config) CooldownWindow() time.Duration {
	return time.Duration(c.CooldownDays) * 24 * time.Hour
}
