package domain

import (
	"context"
	"io"
)

// Converter is the conversion use case consumed by the front ends.
type Converter interface {
	Convert(ctx context.Context, sourceName string, src io.Reader) ConversionResult
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetOutputDir() string
	GetMaxFileSize() int64
	GetLogLevel() string
	GetLogFormat() string
	GetOCRLanguages() []string
	GetOCRFailurePolicy() OCRFailurePolicy
	GetOCRMarker() string
	GetCollisionPolicy() CollisionPolicy
	GetMaxConcurrentConversions() int64
	GetAllowedOrigins() []string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetSupabaseBucket() string
}
