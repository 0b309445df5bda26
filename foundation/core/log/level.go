// File: level.go
// Title: Log Levels
// Description: Log level definitions, parsing and console colors.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2026-10-12 v0.2.0: Trimmed to the levels used by zuse

package log

import (
	"fmt"
	"strings"
)

// Level represents a log severity level
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	// LevelAudit is always written regardless of the configured minimum
	LevelAudit
)

var levelNames = map[Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
	LevelAudit: "AUDIT",
}

// String returns the upper case name of the level
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// Color returns the ANSI color sequence used by the console formatter
func (l Level) Color() string {
	switch l {
	case LevelTrace, LevelDebug:
		return "\033[90m"
	case LevelInfo:
		return "\033[36m"
	case LevelWarn:
		return "\033[33m"
	case LevelError, LevelFatal:
		return "\033[31m"
	case LevelAudit:
		return "\033[35m"
	default:
		return ""
	}
}

// ShouldLog reports whether an entry of this level passes minLevel
func (l Level) ShouldLog(minLevel Level) bool {
	if l == LevelAudit {
		return true
	}
	return l >= minLevel
}

// ParseLevel parses a level name case-insensitively
func ParseLevel(level string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO", "":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	case "AUDIT":
		return LevelAudit, nil
	}
	return LevelInfo, &ParseError{Input: level}
}

// ParseError is returned for unknown level names
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unknown log level %q", e.Input)
}

// DefaultLevel returns the level used by New
func DefaultLevel() Level {
	return LevelInfo
}
