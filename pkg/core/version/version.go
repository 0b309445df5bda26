// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     version
// Description: Central version management
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package version

import "fmt"

// Version constants
const (
	// Interpreter version
	Interpreter = "0.3.0"

	// PipeProtocol is the version of the pipe request/response contract
	PipeProtocol = "1.0.0"

	// Journal is the schema version of the command journal
	Journal = "1.0.0"
)

// Set at build time via -ldflags
var (
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String returns the human readable version line
func String() string {
	return fmt.Sprintf("zuse %s (pipe %s, journal %s, commit %s, built %s)",
		Interpreter, PipeProtocol, Journal, Commit, BuildDate)
}

// ComponentVersion returns the version for a component name
func ComponentVersion(name string) string {
	switch name {
	case "pipe":
		return PipeProtocol
	case "journal":
		return Journal
	default:
		return Interpreter
	}
}
