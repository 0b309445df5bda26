// File: severity.go
// Title: Error Severity Levels
// Description: Defines severity levels for errors. Critical errors mark
//              interpreter faults that must stop a running script.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with severity levels
// - 2026-10-12 v0.2.0: Stack faults are critical

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates a recoverable error such as a bad argument
	SeverityLow Severity = iota

	// SeverityMedium is the default for errors without a more specific code
	SeverityMedium

	// SeverityHigh indicates a failing subsystem like storage or a pipe
	SeverityHigh

	// SeverityCritical indicates corrupted interpreter state
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ShouldAlert returns true if this severity level should trigger alerts
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}

// GetSeverityFromCode determines the severity level for a code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeParameterImbalance, CodeBaseFrameRemoval:
		return SeverityCritical

	case CodeDatabaseError, CodePipeUnavailable, CodeInternal, CodeIOError:
		return SeverityHigh

	case CodeCommandNotFound, CodeModuleNotFound, CodeInvalidArgumentCount, CodeInvalidReference,
		CodeVariableNotFound, CodeEvaluationFailed, CodeSyntax, CodeInvalidInput, CodeNotFound,
		CodeJobNotFound, CodeTaskNotFound, CodeInvalidConfig:
		return SeverityLow

	default:
		return SeverityMedium
	}
}
