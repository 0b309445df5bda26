// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package: script
// Description: Script runner and script loader. The runner feeds script
//              lines to the interpreter and collects failures; the loader
//              installs script files as callable commands.
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package script

import (
	"errors"
	"fmt"
	"time"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/foundation/utils/filex"
	"github.com/msto63/zuse/internal/interpreter"
	"github.com/msto63/zuse/internal/stack"
	"github.com/msto63/zuse/pkg/core/logging"
)

// Options configures the runner and loader
type Options struct {
	// Rethrow aborts a run at the first failing line
	Rethrow bool
	// Dir resolves relative script paths. Empty means the working directory.
	Dir    string
	Logger *logging.Logger
}

// LineError is a failure of one script line
type LineError struct {
	Source string
	Line   int
	Text   string
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Report summarizes one script run
type Report struct {
	Source   string
	Lines    int
	Last     string
	Errors   []*LineError
	Aborted  bool
	Duration time.Duration
}

// Err joins the collected line errors, or returns nil
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for k, e := range r.Errors {
		errs[k] = e
	}
	return errors.Join(errs...)
}

// Runner executes scripts line by line on a caller-supplied thread
type Runner struct {
	interp  *interpreter.Interpreter
	rethrow bool
	dir     string
	logger  *logging.Logger
}

// NewRunner creates a runner for interp
func NewRunner(interp *interpreter.Interpreter, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = interp.Logger()
	}
	return &Runner{
		interp:  interp,
		rethrow: opts.Rethrow,
		dir:     opts.Dir,
		logger:  logger.With("component", "script"),
	}
}

// RunFile reads path and runs its lines
func (r *Runner) RunFile(t stack.CommandThread, path string) (*Report, error) {
	path = filex.Resolve(r.dir, path)
	lines, err := filex.ReadLines(path)
	if err != nil {
		r.logger.Error("Failed to read script", "script", path, "error", err)
		return &Report{Source: path}, err
	}
	return r.RunLines(t, path, lines)
}

// RunLines feeds each line to Process. Failures are logged with their
// source and line and collected. A run stops at the first failure when
// Rethrow is set, and always at a critical one. A script that ends inside
// an open block is reported and its frames are dropped.
func (r *Runner) RunLines(t stack.CommandThread, source string, lines []string) (*Report, error) {
	timer := r.logger.StartTimer("run_script").WithField("script", source)
	report := &Report{Source: source}
	base := t.Depth() - 1

	for n, line := range lines {
		report.Lines = n + 1
		result, err := r.interp.Process(t, line)
		if err == nil {
			if result != "" {
				report.Last = result
			}
			continue
		}

		r.logger.Error("Script line failed", "script", source, "line", n+1, "error", err)
		report.Errors = append(report.Errors, &LineError{Source: source, Line: n + 1, Text: line, Err: err})
		if r.rethrow || zerror.IsCritical(err) {
			report.Aborted = true
			t.Unwind(base)
			break
		}
	}

	if !report.Aborted && t.Depth()-1 > base {
		err := zerror.New("script ended inside an open block").
			WithCode(zerror.CodeUnbalancedBlock).
			WithDetail("script", source).
			WithDetail("open_blocks", t.Depth()-1-base)
		r.logger.Error("Unbalanced script", "script", source, "error", err)
		report.Errors = append(report.Errors, &LineError{Source: source, Line: len(lines), Err: err})
		t.Unwind(base)
	}

	err := report.Err()
	report.Duration = timer.StopWithError(err)
	return report, err
}
