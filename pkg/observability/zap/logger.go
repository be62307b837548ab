package zap

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	ubzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/theory-cloud/sitetheory/pkg/observability"
	"github.com/theory-cloud/sitetheory/pkg/sanitization"
)

const (
	levelDebug = "debug"
	levelInfo  = "info"
	levelWarn  = "warn"
	levelError = "error"
)

type Option func(*loggerOptions)

type loggerOptions struct {
	initErr error

	zapLogger *ubzap.Logger
	output    io.Writer
	sanitizer observability.SanitizerFunc
	notifier  observability.ErrorNotifier
	sleep     func(time.Duration)
}

func WithZapLogger(logger *ubzap.Logger) Option {
	return func(opts *loggerOptions) {
		opts.zapLogger = logger
	}
}

// WithOutput sets the sink for the default core. Synthesis logs go to stderr
// so that stdout stays reserved for command output.
func WithOutput(w io.Writer) Option {
	return func(opts *loggerOptions) {
		opts.output = w
	}
}

func WithSanitizer(fn observability.SanitizerFunc) Option {
	return func(opts *loggerOptions) {
		opts.sanitizer = fn
	}
}

func WithErrorNotifier(notifier observability.ErrorNotifier) Option {
	return func(opts *loggerOptions) {
		opts.notifier = notifier
	}
}

type zapCore struct {
	logger *ubzap.Logger

	sanitizer observability.SanitizerFunc
	notifier  observability.ErrorNotifier
	sleep     func(time.Duration)

	retryDelay time.Duration
	maxRetries int

	closeOnce sync.Once
	closed    atomic.Bool

	entriesLogged  atomic.Int64
	flushCount     atomic.Int64
	errorCount     atomic.Int64
	notifyCount    atomic.Int64
	lastFlushNanos atomic.Int64
	lastError      atomic.Value
}

type Logger struct {
	core *zapCore
	log  *ubzap.Logger

	fields map[string]any

	stack string
	phase string
}

var _ observability.StructuredLogger = (*Logger)(nil)

func NewZapLogger(config observability.LoggerConfig, options ...Option) (observability.StructuredLogger, error) {
	cfg := normalizeLoggerConfig(config)

	opts := &loggerOptions{
		sanitizer: sanitization.SanitizeFieldValue,
		output:    os.Stderr,
		sleep:     time.Sleep,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(opts)
	}
	if opts.initErr != nil {
		return nil, opts.initErr
	}

	base := opts.zapLogger
	if base == nil {
		level, err := parseZapLevel(cfg.Level)
		if err != nil {
			return nil, err
		}

		enc := zapEncoderConfig(cfg.EnableCaller)
		var encoder zapcore.Encoder
		switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
		case "console":
			encoder = zapcore.NewConsoleEncoder(enc)
		case "json":
			encoder = zapcore.NewJSONEncoder(enc)
		default:
			return nil, errors.New("observability/zap: unsupported log format")
		}

		core := zapcore.NewCore(encoder, zapcore.AddSync(opts.output), level)
		base = ubzap.New(core)
		if cfg.EnableCaller {
			base = base.WithOptions(ubzap.AddCaller())
		}
		if cfg.EnableStack {
			base = base.WithOptions(ubzap.AddStacktrace(zapcore.ErrorLevel))
		}
	}

	zcore := &zapCore{
		logger:     base,
		sanitizer:  opts.sanitizer,
		notifier:   opts.notifier,
		sleep:      opts.sleep,
		retryDelay: cfg.RetryDelay,
		maxRetries: cfg.MaxRetries,
	}
	zcore.lastError.Store("")

	return &Logger{
		core:   zcore,
		log:    base,
		fields: map[string]any{},
	}, nil
}

func normalizeLoggerConfig(config observability.LoggerConfig) observability.LoggerConfig {
	cfg := config

	if strings.TrimSpace(cfg.Format) == "" {
		if os.Getenv("CI") != "" {
			cfg.Format = "json"
		} else {
			cfg.Format = "console"
		}
	}
	if strings.TrimSpace(cfg.Level) == "" {
		cfg.Level = levelInfo
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return cfg
}

func parseZapLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case levelDebug:
		return zapcore.DebugLevel, nil
	case levelInfo, "":
		return zapcore.InfoLevel, nil
	case levelWarn, "warning":
		return zapcore.WarnLevel, nil
	case levelError:
		return zapcore.ErrorLevel, nil
	default:
		return 0, errors.New("observability/zap: unsupported log level")
	}
}

func zapEncoderConfig(enableCaller bool) zapcore.EncoderConfig {
	enc := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	if enableCaller {
		enc.CallerKey = "caller"
		enc.EncodeCaller = zapcore.ShortCallerEncoder
	}
	return enc
}

func (l *Logger) Debug(message string, fields ...map[string]any) {
	l.logEntry(levelDebug, message, fields...)
}
func (l *Logger) Info(message string, fields ...map[string]any) {
	l.logEntry(levelInfo, message, fields...)
}
func (l *Logger) Warn(message string, fields ...map[string]any) {
	l.logEntry(levelWarn, message, fields...)
}
func (l *Logger) Error(message string, fields ...map[string]any) {
	l.logEntry(levelError, message, fields...)
}

func (l *Logger) WithField(key string, value any) observability.StructuredLogger {
	return l.WithFields(map[string]any{key: value})
}

func (l *Logger) WithFields(fields map[string]any) observability.StructuredLogger {
	next := l.clone()
	for k, v := range fields {
		next.fields[k] = v
	}
	next.log = next.log.With(anyFields(fields, l.core.sanitizer)...)
	return next
}

func (l *Logger) WithStack(stack string) observability.StructuredLogger {
	next := l.clone()
	next.stack = stack
	next.log = next.log.With(ubzap.String("stack", sanitization.SanitizeLogString(stack)))
	return next
}

func (l *Logger) WithPhase(phase string) observability.StructuredLogger {
	next := l.clone()
	next.phase = phase
	next.log = next.log.With(ubzap.String("phase", sanitization.SanitizeLogString(phase)))
	return next
}

func (l *Logger) Flush(ctx context.Context) error {
	if l == nil || l.core == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.core.flushCount.Add(1)
	err := l.core.logger.Sync()
	if err != nil && !isIgnorableSyncError(err) {
		l.core.recordError(err)
	} else {
		err = nil
	}
	l.core.lastFlushNanos.Store(time.Now().UnixNano())
	return err
}

func (l *Logger) Close() error {
	if l == nil || l.core == nil {
		return nil
	}
	return l.core.close()
}

func (l *Logger) IsHealthy() bool {
	if l == nil || l.core == nil {
		return false
	}
	if l.core.closed.Load() {
		return false
	}
	return l.core.lastErrorString() == ""
}

func (l *Logger) GetStats() observability.LoggerStats {
	if l == nil || l.core == nil {
		return observability.LoggerStats{}
	}
	return observability.LoggerStats{
		LastFlush:     time.Unix(0, l.core.lastFlushNanos.Load()),
		LastError:     l.core.lastErrorString(),
		EntriesLogged: l.core.entriesLogged.Load(),
		FlushCount:    l.core.flushCount.Load(),
		ErrorCount:    l.core.errorCount.Load(),
		NotifyCount:   l.core.notifyCount.Load(),
	}
}

func (l *Logger) clone() *Logger {
	if l == nil {
		return &Logger{}
	}
	nextFields := make(map[string]any, len(l.fields))
	for k, v := range l.fields {
		nextFields[k] = v
	}
	return &Logger{
		core:   l.core,
		log:    l.log,
		fields: nextFields,
		stack:  l.stack,
		phase:  l.phase,
	}
}

func (l *Logger) logEntry(level string, message string, fields ...map[string]any) {
	if !l.canLog() {
		return
	}

	message = sanitization.SanitizeLogString(message)
	callFields := mergeFieldSets(fields...)

	l.write(level, message, anyFields(callFields, l.core.sanitizer))
	l.core.entriesLogged.Add(1)

	if level == levelError && l.core.notifier != nil {
		l.core.notify(l.notificationEntry(level, message, callFields))
	}
}

func anyFields(fields map[string]any, sanitizerFn observability.SanitizerFunc) []ubzap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]ubzap.Field, 0, len(fields))
	for k, v := range sanitizeFields(fields, sanitizerFn) {
		out = append(out, ubzap.Any(k, v))
	}
	return out
}

func (l *Logger) canLog() bool {
	if l == nil || l.core == nil || l.log == nil {
		return false
	}
	return !l.core.closed.Load()
}

func mergeFieldSets(fieldSets ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, set := range fieldSets {
		for k, v := range set {
			out[k] = v
		}
	}
	return out
}

func sanitizeFields(fields map[string]any, sanitizerFn observability.SanitizerFunc) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if sanitizerFn != nil {
			out[k] = sanitizerFn(k, v)
		} else {
			out[k] = sanitization.SanitizeFieldValue(k, v)
		}
	}
	return out
}

func (l *Logger) write(level string, message string, fields []ubzap.Field) {
	switch level {
	case levelDebug:
		l.log.Debug(message, fields...)
	case levelWarn:
		l.log.Warn(message, fields...)
	case levelError:
		l.log.Error(message, fields...)
	default:
		l.log.Info(message, fields...)
	}
}

func (l *Logger) notificationEntry(level string, message string, callFields map[string]any) observability.LogEntry {
	merged := mergeFieldSets(l.fields, callFields)
	return observability.LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Fields:    sanitizeFields(merged, l.core.sanitizer),
		Stack:     l.stack,
		Phase:     l.phase,
	}
}

// notify delivers synchronously; synthesis is single-threaded and about to
// exit, so there is no background queue to drain.
func (c *zapCore) notify(entry observability.LogEntry) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.notifier.Notify(context.Background(), entry); err != nil {
			lastErr = err
			if attempt < c.maxRetries-1 {
				c.sleep(c.retryDelay)
			}
			continue
		}
		c.notifyCount.Add(1)
		return
	}
	if lastErr != nil {
		c.recordError(lastErr)
	}
}

func (c *zapCore) recordError(err error) {
	c.errorCount.Add(1)
	c.lastError.Store(err.Error())
}

func (c *zapCore) close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.logger.Sync()
		if err != nil && isIgnorableSyncError(err) {
			err = nil
		}
		if err != nil {
			c.recordError(err)
		}
	})
	return err
}

func (c *zapCore) lastErrorString() string {
	if c == nil {
		return ""
	}
	lastError, ok := c.lastError.Load().(string)
	if !ok {
		return ""
	}
	return lastError
}

// Syncing a terminal or pipe on stderr fails with EINVAL/ENOTTY on Linux
// and macOS; that is not a lost log line.
func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl")
}
