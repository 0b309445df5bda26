// Package filex provides the few file helpers the interpreter needs.
//
// Package: filex
// Title: File Utilities
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-19
//
// ReadLines backs the script runner and loader, EnsureDir and RemoveStale
// prepare unix socket paths for the pipe bridge, and EnsureParentDir
// prepares the journal database location. Errors carry codes from
// foundation/core/error.
//
//	lines, err := filex.ReadLines(filex.Resolve(scriptDir, "init.zs"))
package filex
