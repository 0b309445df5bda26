// File: logger.go
// Title: Core Logger Implementation
// Description: The Logger type. With* methods return independent copies that
//              share the output writer and its lock, so loggers derived for
//              components never interleave partial lines.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging
// - 2026-10-12 v0.2.0: Shared output lock, severity-aware LogError, no async worker

package log

import (
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	zerror "github.com/msto63/zuse/foundation/core/error"
)

// Logger represents a structured logger with contextual information
type Logger struct {
	level     *atomic.Int32
	formatter Formatter
	output    io.Writer
	writeMu   *sync.Mutex
	name      string

	contextFields Fields
	requestID     string

	enableCaller     bool
	callerSkipFrames int

	exit func(int)
}

// Config represents logger configuration
type Config struct {
	Level            Level
	Format           Format
	Output           io.Writer
	Name             string
	EnableCaller     bool
	CallerSkipFrames int
}

// New creates a new logger writing JSON to stdout at the default level
func New() *Logger {
	return NewWithConfig(Config{Level: DefaultLevel(), Format: FormatJSON})
}

// NewWithConfig creates a new logger with the specified configuration
func NewWithConfig(config Config) *Logger {
	output := config.Output
	if output == nil {
		output = os.Stdout
	}
	level := &atomic.Int32{}
	level.Store(int32(config.Level))

	return &Logger{
		level:            level,
		formatter:        GetFormatter(config.Format),
		output:           output,
		writeMu:          &sync.Mutex{},
		name:             config.Name,
		contextFields:    make(Fields),
		enableCaller:     config.EnableCaller,
		callerSkipFrames: config.CallerSkipFrames,
		exit:             os.Exit,
	}
}

func (l *Logger) clone() *Logger {
	c := *l
	c.contextFields = make(Fields, len(l.contextFields))
	for k, v := range l.contextFields {
		c.contextFields[k] = v
	}
	return &c
}

// WithLevel returns a copy with its own minimum level
func (l *Logger) WithLevel(level Level) *Logger {
	c := l.clone()
	c.level = &atomic.Int32{}
	c.level.Store(int32(level))
	return c
}

// WithFormat returns a copy using format
func (l *Logger) WithFormat(format Format) *Logger {
	c := l.clone()
	c.formatter = GetFormatter(format)
	return c
}

// WithFormatter returns a copy using a custom formatter
func (l *Logger) WithFormatter(formatter Formatter) *Logger {
	c := l.clone()
	c.formatter = formatter
	return c
}

// WithOutput returns a copy writing to output
func (l *Logger) WithOutput(output io.Writer) *Logger {
	c := l.clone()
	c.output = output
	c.writeMu = &sync.Mutex{}
	return c
}

// WithName returns a copy with the logger name set
func (l *Logger) WithName(name string) *Logger {
	c := l.clone()
	c.name = name
	return c
}

// WithField returns a copy with a persistent field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	c := l.clone()
	c.contextFields[key] = value
	return c
}

// WithFields returns a copy with persistent fields
func (l *Logger) WithFields(fields Fields) *Logger {
	c := l.clone()
	for k, v := range fields {
		c.contextFields[k] = v
	}
	return c
}

// WithRequestID returns a copy tagging every entry with requestID
func (l *Logger) WithRequestID(requestID string) *Logger {
	c := l.clone()
	c.requestID = requestID
	return c
}

// WithCaller returns a copy that records the calling source location
func (l *Logger) WithCaller(skip int) *Logger {
	c := l.clone()
	c.enableCaller = true
	c.callerSkipFrames = skip
	return c
}

// Trace logs at trace level
func (l *Logger) Trace(message string, fields ...Fields) {
	l.log(LevelTrace, message, nil, fields...)
}

// Debug logs at debug level
func (l *Logger) Debug(message string, fields ...Fields) {
	l.log(LevelDebug, message, nil, fields...)
}

// Info logs at info level
func (l *Logger) Info(message string, fields ...Fields) {
	l.log(LevelInfo, message, nil, fields...)
}

// Warn logs at warn level
func (l *Logger) Warn(message string, fields ...Fields) {
	l.log(LevelWarn, message, nil, fields...)
}

// Error logs at error level
func (l *Logger) Error(message string, fields ...Fields) {
	l.log(LevelError, message, nil, fields...)
}

// Fatal logs at fatal level and exits the process
func (l *Logger) Fatal(message string, fields ...Fields) {
	l.log(LevelFatal, message, nil, fields...)
	l.exit(1)
}

// Audit logs an entry that bypasses the level filter
func (l *Logger) Audit(message string, fields ...Fields) {
	l.log(LevelAudit, message, nil, fields...)
}

// ErrorWithErr logs message at error level with err attached
func (l *Logger) ErrorWithErr(message string, err error, fields ...Fields) {
	l.log(LevelError, message, err, fields...)
}

// WarnWithErr logs message at warn level with err attached
func (l *Logger) WarnWithErr(message string, err error, fields ...Fields) {
	l.log(LevelWarn, message, err, fields...)
}

// LogError logs err at a level derived from its severity
func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}
	level := LevelError
	switch zerror.GetSeverity(err) {
	case zerror.SeverityLow:
		level = LevelWarn
	case zerror.SeverityCritical:
		level = LevelFatal
	}
	message := err.Error()
	if e, ok := zerror.As(err); ok {
		message = e.Message()
	}
	// Fatal here only marks the entry; the process keeps running.
	l.log(level, message, err)
}

// StartTimer starts a timer that logs the operation duration on Stop
func (l *Logger) StartTimer(operation string) *Timer {
	return NewTimer(l, operation)
}

// IsLevelEnabled reports whether entries at level are written
func (l *Logger) IsLevelEnabled(level Level) bool {
	return level.ShouldLog(l.GetLevel())
}

// GetLevel returns the current minimum level
func (l *Logger) GetLevel() Level {
	return Level(l.level.Load())
}

// SetLevel changes the minimum level for this logger and all copies sharing it
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

func (l *Logger) log(level Level, message string, err error, fields ...Fields) {
	if !level.ShouldLog(l.GetLevel()) {
		return
	}

	entry := NewEntry(level, message)
	entry.Logger = l.name
	entry.RequestID = l.requestID
	entry.Error = err
	for k, v := range l.contextFields {
		entry.Fields[k] = v
	}
	for _, f := range fields {
		for k, v := range f {
			entry.Fields[k] = v
		}
	}
	if err != nil {
		for k, v := range Err(err) {
			entry.Fields[k] = v
		}
	}
	if l.enableCaller {
		if pc, file, line, ok := runtime.Caller(2 + l.callerSkipFrames); ok {
			entry.CallerFile = file
			entry.CallerLine = line
			if fn := runtime.FuncForPC(pc); fn != nil {
				entry.CallerFunction = fn.Name()
			}
		}
	}

	data, ferr := l.formatter.Format(entry)
	if ferr != nil {
		return
	}
	l.writeMu.Lock()
	_, _ = l.output.Write(data)
	l.writeMu.Unlock()
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New()
)

// GetDefault returns the process-wide default logger
func GetDefault() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide default logger
func SetDefault(logger *Logger) {
	if logger == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}

// Info logs on the default logger
func Info(message string, fields ...Fields) {
	GetDefault().log(LevelInfo, message, nil, fields...)
}

// Warn logs on the default logger
func Warn(message string, fields ...Fields) {
	GetDefault().log(LevelWarn, message, nil, fields...)
}

// Error logs on the default logger
func Error(message string, fields ...Fields) {
	GetDefault().log(LevelError, message, nil, fields...)
}
