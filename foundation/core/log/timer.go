// File: timer.go
// Title: Operation Timers
// Description: Measures and logs the duration of an operation with optional
//              checkpoints.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2026-10-12 v0.2.0: Stop is idempotent

package log

import (
	"sync"
	"time"
)

// Timer measures an operation and logs its duration when stopped
type Timer struct {
	logger    *Logger
	operation string
	level     Level
	fields    Fields
	start     time.Time
	last      time.Time

	mu      sync.Mutex
	stopped bool
}

// NewTimer starts a timer for operation
func NewTimer(logger *Logger, operation string) *Timer {
	now := time.Now()
	return &Timer{
		logger:    logger,
		operation: operation,
		level:     LevelDebug,
		fields:    make(Fields),
		start:     now,
		last:      now,
	}
}

// WithLevel sets the level used when the timer is stopped
func (t *Timer) WithLevel(level Level) *Timer {
	t.level = level
	return t
}

// WithField adds a field to the final entry
func (t *Timer) WithField(key string, value interface{}) *Timer {
	t.mu.Lock()
	t.fields[key] = value
	t.mu.Unlock()
	return t
}

// Elapsed returns the time since the timer started
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// StartTime returns when the timer started
func (t *Timer) StartTime() time.Time {
	return t.start
}

// Checkpoint logs the time since the previous checkpoint
func (t *Timer) Checkpoint(name string) {
	t.mu.Lock()
	now := time.Now()
	split := now.Sub(t.last)
	t.last = now
	t.mu.Unlock()

	t.logger.log(LevelTrace, t.operation+" checkpoint", nil, Fields{
		"operation":  t.operation,
		"checkpoint": name,
	}, Duration("split_ms", split))
}

// Stop logs the duration and returns it. Later calls only return the elapsed time.
func (t *Timer) Stop() time.Duration {
	return t.finish(nil)
}

// StopWithError logs the duration at error level when err is non-nil
func (t *Timer) StopWithError(err error) time.Duration {
	return t.finish(err)
}

func (t *Timer) finish(err error) time.Duration {
	elapsed := t.Elapsed()

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return elapsed
	}
	t.stopped = true
	fields := t.fields.Merge(Fields{"operation": t.operation, "success": err == nil})
	t.mu.Unlock()

	level := t.level
	if err != nil {
		level = LevelError
	}
	t.logger.log(level, t.operation+" completed", err, fields, Duration("duration_ms", elapsed))
	return elapsed
}
