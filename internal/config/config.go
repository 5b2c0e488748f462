package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendDrive  = "drive"
	BackendS3     = "s3"
)

var validBackends = []string{BackendFile, BackendSQLite, BackendDrive, BackendS3}

type Config struct {
	// HTTP Server
	Port               string
	CORSAllowedOrigins []string
	SelectionRateLimit int

	LogLevel string

	// Backend selection
	DataBackend string
	DataDir     string

	// Database
	SQLiteDBPath string

	// Google Drive
	GoogleDriveFolderID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// S3
	S3Bucket    string
	S3Prefix    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Document cache
	CacheSize            int
	CacheTTL             time.Duration
	CacheCleanupSchedule string

	// Worker
	MirrorInterval time.Duration
	MirrorSource   string
	MirrorPrune    bool

	// Reports
	Currency string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		SelectionRateLimit: getEnvInt("SELECTION_RATE_LIMIT", 30),
		LogLevel:           getEnv("LOG_LEVEL", "info"),

		DataBackend:  getEnv("DATA_BACKEND", BackendFile),
		DataDir:      getEnv("DATA_DIR", "./data/documents"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/patrimonio.db"),

		GoogleDriveFolderID:      getEnv("GOOGLE_DRIVE_FOLDER_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),

		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Prefix:    getEnv("S3_PREFIX", ""),
		S3Region:    getEnv("S3_REGION", ""),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretKey: getEnv("S3_SECRET_ACCESS_KEY", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "patrimonio"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "document_changes"),

		CacheSize:            getEnvInt("CACHE_SIZE", 256),
		CacheTTL:             getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheCleanupSchedule: getEnv("CACHE_CLEANUP_SCHEDULE", "@every 10m"),

		MirrorInterval: getEnvDuration("MIRROR_INTERVAL", 15*time.Minute),
		MirrorSource:   getEnv("MIRROR_SOURCE", BackendDrive),
		MirrorPrune:    getEnvBool("MIRROR_PRUNE", true),

		Currency: getEnv("CURRENCY", "EUR"),
	}
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SelectionRateLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid selection rate limit %d: must not be negative", c.SelectionRateLimit))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	errors = append(errors, c.validateBackend(c.DataBackend)...)

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must not be negative", c.CacheSize))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}
	if _, err := cron.ParseStandard(c.CacheCleanupSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid cache cleanup schedule '%s': %v", c.CacheCleanupSchedule, err))
	}

	if c.MirrorInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at least 1 second", c.MirrorInterval))
	} else if c.MirrorInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at most 24 hours", c.MirrorInterval))
	}

	if len(c.Currency) != 3 {
		errors = append(errors, fmt.Sprintf("invalid currency '%s': must be an ISO 4217 code", c.Currency))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateMirror checks the settings the mirror worker needs on top of
// Validate: a remote source and a SQLite target.
func (c *Config) ValidateMirror() error {
	var errors []string
	if c.MirrorSource != BackendDrive && c.MirrorSource != BackendS3 {
		errors = append(errors, fmt.Sprintf("invalid mirror source '%s': must be drive or s3", c.MirrorSource))
	}
	errors = append(errors, c.validateBackend(c.MirrorSource)...)
	errors = append(errors, c.validateBackend(BackendSQLite)...)
	if c.MirrorInterval < time.Second || c.MirrorInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be between 1 second and 24 hours", c.MirrorInterval))
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) validateBackend(backend string) []string {
	var errors []string
	switch backend {
	case BackendFile:
		if c.DataDir == "" {
			errors = append(errors, "DATA_DIR cannot be empty when using file backend")
		} else if info, err := os.Stat(c.DataDir); err != nil || !info.IsDir() {
			errors = append(errors, fmt.Sprintf("data directory does not exist: %s", c.DataDir))
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	case BackendDrive:
		if c.GoogleDriveFolderID == "" {
			errors = append(errors, "GOOGLE_DRIVE_FOLDER_ID is required when using drive backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for drive backend")
		} else if c.GoogleServiceAccountJSON == "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	case BackendS3:
		if c.S3Bucket == "" {
			errors = append(errors, "S3_BUCKET is required when using s3 backend")
		}
		if (c.S3AccessKey == "") != (c.S3SecretKey == "") {
			errors = append(errors, "S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
		}
		if c.S3Endpoint != "" {
			if u, err := url.Parse(c.S3Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
				errors = append(errors, fmt.Sprintf("invalid S3 endpoint '%s'", c.S3Endpoint))
			}
		}
	}
	return errors
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
