// Package log provides structured logging for zuse.
//
// Package: log
// Title: zuse Structured Logging
// Description: Leveled structured logger with persistent context fields,
//              JSON, text and console output, and timers for measuring
//              command execution. Integrates with the foundation error type
//              so codes and severities end up in the log entry.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging and error integration
// - 2026-10-12 v0.2.0: Removed async writer and logfmt, shared write lock across clones
//
// Usage:
//   import zlog "github.com/msto63/zuse/foundation/core/log"
//
//   logger := zlog.New().
//     WithFormat(zlog.FormatConsole).
//     WithField("component", "interpreter")
//
//   logger.Info("command registered", zlog.Fields{"command": "ECHO"})
//   logger.ErrorWithErr("command failed", err)
//
//   timer := logger.StartTimer("run_script")
//   defer timer.Stop()
package log
