package config

import (
	"os"
	"strconv"
	"strings"

	"pdf-to-word/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort               string
	OutputDir                string
	MaxFileSize              int64
	LogLevel                 string
	LogFormat                string
	OCRLanguages             []string
	OCRFailurePolicy         domain.OCRFailurePolicy
	OCRMarker                string
	CollisionPolicy          domain.CollisionPolicy
	MaxConcurrentConversions int64
	AllowedOrigins           []string
	SupabaseURL              string
	SupabaseKey              string
	SupabaseBucket           string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return Load()
}

// Load reads the environment. Front ends that override values from flags
// use the concrete type.
func Load() *AppConfig {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:               getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		OutputDir:                getEnvOrDefault("OUTPUT_DIR", "./converted_docs"),
		MaxFileSize:              getEnvInt64OrDefault("MAX_FILE_SIZE", 50*1024*1024), // 50MB default
		LogLevel:                 getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:                getEnvOrDefault("LOG_FORMAT", "json"),
		OCRLanguages:             ParseLanguages(getEnvOrDefault("OCR_LANGUAGES", "vie+eng")),
		OCRFailurePolicy:         domain.ParseOCRFailurePolicy(os.Getenv("OCR_FAILURE_POLICY")),
		OCRMarker:                getEnvOrDefault("OCR_MARKER", ""),
		CollisionPolicy:          domain.ParseCollisionPolicy(os.Getenv("COLLISION_POLICY")),
		MaxConcurrentConversions: getEnvInt64OrDefault("MAX_CONCURRENT_CONVERSIONS", 1),
		AllowedOrigins:           splitList(getEnvOrDefault("ALLOWED_ORIGINS", "*")),
		SupabaseURL:              getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:              getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		SupabaseBucket:           getEnvOrDefault("SUPABASE_BUCKET", ""),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetOutputDir returns the directory converted documents are written to
func (c *AppConfig) GetOutputDir() string {
	return c.OutputDir
}

// GetMaxFileSize returns the maximum allowed file size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetLogFormat returns "json" or "console"
func (c *AppConfig) GetLogFormat() string {
	return c.LogFormat
}

// GetOCRLanguages returns the Tesseract language codes, in priority order.
func (c *AppConfig) GetOCRLanguages() []string {
	return append([]string(nil), c.OCRLanguages...)
}

func (c *AppConfig) GetOCRFailurePolicy() domain.OCRFailurePolicy {
	return c.OCRFailurePolicy
}

func (c *AppConfig) GetOCRMarker() string {
	return c.OCRMarker
}

func (c *AppConfig) GetCollisionPolicy() domain.CollisionPolicy {
	return c.CollisionPolicy
}

// GetMaxConcurrentConversions is never below 1.
func (c *AppConfig) GetMaxConcurrentConversions() int64 {
	if c.MaxConcurrentConversions < 1 {
		return 1
	}
	return c.MaxConcurrentConversions
}

func (c *AppConfig) GetAllowedOrigins() []string {
	return append([]string(nil), c.AllowedOrigins...)
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetSupabaseBucket returns the storage bucket for published documents
func (c *AppConfig) GetSupabaseBucket() string {
	return c.SupabaseBucket
}

// ParseLanguages splits a Tesseract language string such as "vie+eng".
// Commas are accepted too. Empty input yields the default vie+eng.
func ParseLanguages(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})
	if len(fields) == 0 {
		return []string{"vie", "eng"}
	}
	return fields
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
