package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the FileVault API.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	MinIO    MinIOConfig
	Auth     AuthConfig
	Limits   LimitsConfig
	Metrics  MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	LinkTTL         time.Duration
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	BcryptCost  int
}

// LimitsConfig bounds upload, download and storage operations.
type LimitsConfig struct {
	MaxFileSize      int64
	MaxUploadCount   int
	MaxStorageSize   int64
	MaxDownloadCount int
	MaxFileNameSize  int
	AllowedTypes     []string
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// defaultAllowedTypes is the extension allowlist applied when
// FILEVAULT_ALLOWED_TYPES is not set.
var defaultAllowedTypes = []string{
	"zip", "tar", "rar", "gzip", "7z",
	"mp3", "mp4", "mpeg", "wav", "ogg", "opus",
	"jpeg", "png", "gif", "bmp", "tiff", "svg",
	"css", "html", "php", "c", "cpp", "h", "hpp", "js", "java", "py",
	"txt", "pdf", "log",
	"webm", "mpeg4", "3gpp", "mov", "avi", "wmv", "flv",
	"xls", "xlsx", "ppt", "pptx", "doc", "docx",
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("FILEVAULT_API_HOST", "0.0.0.0"),
			Port:         getInt("FILEVAULT_API_PORT", 8080),
			ReadTimeout:  getDuration("FILEVAULT_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("FILEVAULT_API_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:  getDuration("FILEVAULT_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "filevault_app"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "filevault"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
		},
		MinIO: MinIOConfig{
			Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getString("MINIO_ROOT_USER", "filevault"),
			SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
			Bucket:          getString("MINIO_BUCKET", "filevault"),
			UseSSL:          getBool("MINIO_USE_SSL", false),
			Region:          getString("MINIO_REGION", ""),
			LinkTTL:         getDuration("MINIO_LINK_TTL", 15*time.Minute),
		},
		Auth:   loadAuthConfig(),
		Limits: loadLimitsConfig(),
		Metrics: MetricsConfig{
			PrometheusPath: getString("FILEVAULT_METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.Limits.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadAuthConfig() AuthConfig {
	cost := getInt("FILEVAULT_AUTH_BCRYPT_COST", 12)
	if cost < 4 || cost > 31 {
		cost = 12
	}

	return AuthConfig{
		TokenSecret: getString("FILEVAULT_JWT_SECRET", "change-me-to-a-32-byte-secret"),
		TokenTTL:    getDuration("FILEVAULT_AUTH_TOKEN_TTL", 12*time.Hour),
		BcryptCost:  cost,
	}
}

func loadLimitsConfig() LimitsConfig {
	return LimitsConfig{
		MaxFileSize:      getInt64("FILEVAULT_MAX_FILE_SIZE", 100*1024*1024),
		MaxUploadCount:   getInt("FILEVAULT_MAX_UPLOAD_COUNT", 10),
		MaxStorageSize:   getInt64("FILEVAULT_MAX_STORAGE_SIZE", 1024*1024*1024),
		MaxDownloadCount: getInt("FILEVAULT_MAX_DOWNLOAD_COUNT", 10),
		MaxFileNameSize:  getInt("FILEVAULT_MAX_FILE_NAME_SIZE", 128),
		AllowedTypes:     getStringSlice("FILEVAULT_ALLOWED_TYPES", defaultAllowedTypes),
	}
}

func (l LimitsConfig) validate() error {
	if l.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", l.MaxFileSize)
	}
	if l.MaxStorageSize < l.MaxFileSize {
		return fmt.Errorf("max storage size %d is smaller than max file size %d", l.MaxStorageSize, l.MaxFileSize)
	}
	if l.MaxUploadCount <= 0 || l.MaxDownloadCount <= 0 {
		return fmt.Errorf("batch limits must be positive")
	}
	if l.MaxFileNameSize <= 0 {
		return fmt.Errorf("max file name size must be positive, got %d", l.MaxFileNameSize)
	}
	return nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getStringSlice(key string, fallback []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
