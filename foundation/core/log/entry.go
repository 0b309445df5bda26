// File: entry.go
// Title: Log Entries and Fields
// Description: The Entry written by formatters and the Fields helpers used
//              at call sites.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2026-10-12 v0.2.0: Error fields carry code and severity

package log

import (
	"time"

	zerror "github.com/msto63/zuse/foundation/core/error"
)

// Fields holds structured key/value pairs
type Fields map[string]interface{}

// Entry is a single log record
type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Logger    string
	RequestID string
	Fields    Fields
	Error     error

	CallerFunction string
	CallerFile     string
	CallerLine     int
}

// Field creates a single-field Fields
func Field(key string, value interface{}) Fields {
	return Fields{key: value}
}

// Err creates Fields for an error, including code and severity when err is
// a structured error
func Err(err error) Fields {
	if err == nil {
		return Fields{}
	}
	f := Fields{"error": err.Error()}
	if e, ok := zerror.As(err); ok {
		f["error_code"] = e.Code().String()
		f["error_severity"] = e.Severity().String()
	}
	return f
}

// Duration creates Fields for a duration in milliseconds
func Duration(key string, d time.Duration) Fields {
	return Fields{key: float64(d.Microseconds()) / 1000.0}
}

// Merge returns a new Fields with the entries of f and other
func (f Fields) Merge(other Fields) Fields {
	out := make(Fields, len(f)+len(other))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// NewEntry creates an entry stamped with the current time
func NewEntry(level Level, message string) *Entry {
	return &Entry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Fields:    make(Fields),
	}
}
