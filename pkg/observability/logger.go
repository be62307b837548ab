package observability

import (
	"context"
	"time"
)

type SanitizerFunc func(key string, value any) any

// ErrorNotifier forwards error-level entries to an out-of-band channel so a
// failed CI synthesis is noticed even when nobody reads the job log.
type ErrorNotifier interface {
	Notify(ctx context.Context, entry LogEntry) error
}

// LogEntry represents a structured log entry.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`

	Stack string `json:"stack,omitempty"`
	Phase string `json:"phase,omitempty"`
}

// StructuredLogger is the logging surface used across synthesis.
//
// Messages are plain strings, context travels as map fields. Implementations
// sanitize field values before they reach any sink.
type StructuredLogger interface {
	Debug(message string, fields ...map[string]any)
	Info(message string, fields ...map[string]any)
	Warn(message string, fields ...map[string]any)
	Error(message string, fields ...map[string]any)

	WithField(key string, value any) StructuredLogger
	WithFields(fields map[string]any) StructuredLogger

	// WithStack scopes the logger to a deployment unit.
	WithStack(stack string) StructuredLogger
	// WithPhase scopes the logger to a synthesis phase (config, zone, build, render, synth).
	WithPhase(phase string) StructuredLogger

	Flush(ctx context.Context) error
	Close() error
	IsHealthy() bool
	GetStats() LoggerStats
}

type LoggerStats struct {
	LastFlush     time.Time `json:"last_flush"`
	LastError     string    `json:"last_error,omitempty"`
	EntriesLogged int64     `json:"entries_logged"`
	FlushCount    int64     `json:"flush_count"`
	ErrorCount    int64     `json:"error_count"`
	NotifyCount   int64     `json:"notify_count"`
}

// LoggerConfig configures logger implementations.
type LoggerConfig struct {
	Format       string        `json:"format" yaml:"format"`
	Level        string        `json:"level" yaml:"level"`
	RetryDelay   time.Duration `json:"retry_delay" yaml:"retry_delay"`
	MaxRetries   int           `json:"max_retries" yaml:"max_retries"`
	EnableStack  bool          `json:"enable_stack" yaml:"enable_stack"`
	EnableCaller bool          `json:"enable_caller" yaml:"enable_caller"`
}
