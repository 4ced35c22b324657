package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Storage backends
const (
	BackendLocal = "local"
	BackendAzure = "azure"
	BackendS3    = "s3"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port          string
	Debug         bool
	MaxUploadSize int64

	// Storage configuration
	StorageBackend string // "local", "azure" or "s3"
	StorageRoot    string

	// Azure Storage configuration
	StorageAccount   string
	StorageContainer string

	// S3 configuration
	S3Endpoint  string
	S3Bucket    string
	S3Region    string
	S3AccessKey string
	S3SecretKey string

	// Maintenance configuration
	JanitorSchedule string
	TempFileMaxAge  time.Duration

	// Report configuration
	ReportSchedule string // "", "daily" or "weekly"

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Debug:         getBoolEnv("DEBUG", false),
		MaxUploadSize: getInt64Env("MAX_UPLOAD_SIZE", 32<<20),

		StorageBackend: getEnv("STORAGE_BACKEND", BackendLocal),
		StorageRoot:    getEnv("STORAGE_ROOT", "uploads"),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "uploads"),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),

		JanitorSchedule: getEnv("JANITOR_SCHEDULE", "0 */15 * * * *"),
		TempFileMaxAge:  getDurationEnv("TEMP_FILE_MAX_AGE", time.Hour),

		ReportSchedule: getEnv("REPORT_SCHEDULE", ""),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case BackendLocal:
		if c.StorageRoot == "" {
			return fmt.Errorf("STORAGE_ROOT is required for the local backend")
		}
	case BackendAzure:
		if c.StorageAccount == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required for the azure backend")
		}
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be 'local', 'azure' or 's3'")
	}

	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}

	if c.TempFileMaxAge <= 0 {
		return fmt.Errorf("TEMP_FILE_MAX_AGE must be positive")
	}

	if c.ReportSchedule != "" && c.ReportSchedule != "daily" && c.ReportSchedule != "weekly" {
		return fmt.Errorf("REPORT_SCHEDULE must be empty, 'daily' or 'weekly'")
	}

	if c.ReportSchedule != "" && !c.NotificationsEnabled() {
		return fmt.Errorf("at least one notification method must be configured (TEAMS_WEBHOOK_URL or NOTIFICATION_EMAIL) when REPORT_SCHEDULE is set")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// NotificationsEnabled reports whether any notification channel is configured
func (c *Config) NotificationsEnabled() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
