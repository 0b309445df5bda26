// File: codes.go
// Title: Error Code Definitions
// Description: Defines the error codes reported by the interpreter, the job pool
//              and the pipe bridge, plus the generic codes shared by the
//              configuration and storage layers.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-12
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-12 v0.2.0: Interpreter, job and pipe codes

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeTimeout      Code = "TIMEOUT"

	// Interpreter
	CodeCommandNotFound      Code = "COMMAND_NOT_FOUND"
	CodeModuleNotFound       Code = "MODULE_NOT_FOUND"
	CodeInvalidArgumentCount Code = "INVALID_ARGUMENT_COUNT"
	CodeInvalidReference     Code = "INVALID_REFERENCE"
	CodeVariableNotFound     Code = "VARIABLE_NOT_FOUND"
	CodeParameterImbalance   Code = "PARAMETER_IMBALANCE"
	CodeBaseFrameRemoval     Code = "BASE_FRAME_REMOVAL"
	CodeUnbalancedBlock      Code = "UNBALANCED_BLOCK"
	CodeEvaluationFailed     Code = "EVALUATION_FAILED"
	CodeSyntax               Code = "SYNTAX"

	// Jobs and async tasks
	CodeJobNotFound  Code = "JOB_NOT_FOUND"
	CodeJobAborted   Code = "JOB_ABORTED"
	CodePoolClosed   Code = "POOL_CLOSED"
	CodeTaskNotFound Code = "TASK_NOT_FOUND"

	// Pipes
	CodePipeUnavailable Code = "PIPE_UNAVAILABLE"
	CodePipeExists      Code = "PIPE_EXISTS"
	CodeRemoteError     Code = "REMOTE_ERROR"

	// Storage and configuration
	CodeDatabaseError Code = "DATABASE_ERROR"
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeInvalidConfig Code = "INVALID_CONFIG"
	CodeIOError       Code = "IO_ERROR"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound, CodeInvalidInput, CodeTimeout,
		CodeCommandNotFound, CodeModuleNotFound, CodeInvalidArgumentCount, CodeInvalidReference,
		CodeVariableNotFound, CodeParameterImbalance, CodeBaseFrameRemoval, CodeUnbalancedBlock,
		CodeEvaluationFailed, CodeSyntax,
		CodeJobNotFound, CodeJobAborted, CodePoolClosed, CodeTaskNotFound,
		CodePipeUnavailable, CodePipeExists, CodeRemoteError,
		CodeDatabaseError, CodeConfigError, CodeInvalidConfig, CodeIOError:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeCommandNotFound, CodeModuleNotFound, CodeInvalidArgumentCount, CodeInvalidReference,
		CodeVariableNotFound, CodeParameterImbalance, CodeBaseFrameRemoval, CodeUnbalancedBlock,
		CodeEvaluationFailed, CodeSyntax:
		return "interpreter"
	case CodeJobNotFound, CodeJobAborted, CodePoolClosed, CodeTaskNotFound:
		return "jobs"
	case CodePipeUnavailable, CodePipeExists, CodeRemoteError:
		return "pipe"
	case CodeDatabaseError, CodeIOError:
		return "storage"
	case CodeConfigError, CodeInvalidConfig:
		return "configuration"
	default:
		return "generic"
	}
}
