// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     logging
// Description: Key/value logger used by the internal packages
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package logging

import (
	zlog "github.com/msto63/zuse/foundation/core/log"
)

// Level represents log severity (for compatibility)
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) foundation() zlog.Level {
	switch l {
	case LevelDebug:
		return zlog.LevelDebug
	case LevelWarn:
		return zlog.LevelWarn
	case LevelError:
		return zlog.LevelError
	default:
		return zlog.LevelInfo
	}
}

// Logger wraps the foundation logger with key/value logging methods
type Logger struct {
	*zlog.Logger
	name string
}

// New creates a logger for the named component using the process defaults
func New(name string) *Logger {
	return Wrap(Default().WithField("component", name), name)
}

// Wrap turns a foundation logger into a key/value Logger
func Wrap(l *zlog.Logger, name string) *Logger {
	return &Logger{Logger: l, name: name}
}

// Name returns the component name
func (l *Logger) Name() string {
	return l.name
}

// WithLevel returns a new logger with the specified level
func (l *Logger) WithLevel(level Level) *Logger {
	return &Logger{
		Logger: l.Logger.WithLevel(level.foundation()),
		name:   l.name,
	}
}

// With returns a child logger carrying the key/value pairs on every entry
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		Logger: l.Logger.WithFields(toFields(keysAndValues...)),
		name:   l.name,
	}
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, toFields(keysAndValues...))
}

// Info logs an info message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, toFields(keysAndValues...))
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, toFields(keysAndValues...))
}

// Error logs an error message with key-value pairs. A value stored under
// the key "error" that implements error is expanded into code and severity.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	fields := toFields(keysAndValues...)
	if err, ok := fields["error"].(error); ok {
		delete(fields, "error")
		l.Logger.ErrorWithErr(msg, err, fields)
		return
	}
	l.Logger.Error(msg, fields)
}

// toFields converts key-value pairs to zlog.Fields
func toFields(keysAndValues ...interface{}) zlog.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(zlog.Fields)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
