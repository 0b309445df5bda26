// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     logging
// Description: Factory functions for creating configured loggers
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	zlog "github.com/msto63/zuse/foundation/core/log"
)

var (
	defaultMu     sync.RWMutex
	defaultLogger *zlog.Logger
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service name
	ServiceName string

	// Log level (trace, debug, info, warn, error)
	Level string

	// Output format: "json", "text" or "console" (default: text)
	Format string

	// File additionally receives every entry when set
	File string

	// Output replaces stderr as the primary destination
	Output io.Writer

	// Additional outputs
	AdditionalOutputs []io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	return LoggerConfig{
		ServiceName: serviceName,
		Level:       "info",
		Format:      "text",
	}
}

// NewLogger creates a foundation logger from cfg. The returned closer
// releases the log file and is never nil.
func NewLogger(cfg LoggerConfig) (*zlog.Logger, func() error, error) {
	level, err := zlog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	format, err := zlog.ParseFormat(cfg.Format)
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer = os.Stderr
	if cfg.Output != nil {
		output = cfg.Output
	}
	writers := []io.Writer{output}
	closer := func() error { return nil }

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, f)
		closer = f.Close
	}
	writers = append(writers, cfg.AdditionalOutputs...)
	if len(writers) > 1 {
		output = io.MultiWriter(writers...)
	}

	logger := zlog.NewWithConfig(zlog.Config{
		Level:  level,
		Format: format,
		Output: output,
		Name:   cfg.ServiceName,
	})
	return logger, closer, nil
}

// NewSimpleLogger creates a text logger on stderr at info level
func NewSimpleLogger(serviceName string) *zlog.Logger {
	logger, _, err := NewLogger(DefaultLoggerConfig(serviceName))
	if err != nil {
		return zlog.New().WithName(serviceName)
	}
	return logger
}

// SetDefault installs logger as the base for New and as the foundation default
func SetDefault(logger *zlog.Logger) {
	if logger == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
	zlog.SetDefault(logger)
}

// Default returns the logger installed by SetDefault, creating a simple one
// on first use
func Default() *zlog.Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewSimpleLogger("zuse")
	}
	return defaultLogger
}

// Discard returns a logger that writes nothing, for tests and embedding
func Discard(name string) *Logger {
	return Wrap(zlog.NewWithConfig(zlog.Config{Level: zlog.LevelFatal, Output: io.Discard, Name: name}), name)
}
