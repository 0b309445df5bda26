// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     async
// Description: Background command invocations with retrieve-once results
// Author:      Mike Stoffels
// Created:     2026-10-13
// License:     MIT
// ============================================================================

package async

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	zerror "github.com/msto63/zuse/foundation/core/error"
)

// Func is the work a task runs
type Func func() (string, error)

// CompletionFunc is called on the task goroutine once fn has returned
type CompletionFunc func(t *Task, result string, err error)

type outcome struct {
	result string
	err    error
}

// Task is a single background invocation. The outcome is handed over
// through a one-slot channel that is drained exactly once; every waiter
// after the first reads the cached copy.
type Task struct {
	id      atomic.Int64
	command string
	args    []string

	started   time.Time
	completed atomic.Int64

	done chan struct{}
	out  chan outcome

	once      sync.Once
	retrieved atomic.Bool
	cached    outcome
}

// Start runs fn on a new goroutine. onDone may be nil.
func Start(command string, args []string, fn Func, onDone CompletionFunc) *Task {
	t := newTask(command, args)
	t.start(fn, onDone)
	return t
}

func newTask(command string, args []string) *Task {
	t := &Task{
		command: command,
		args:    append([]string(nil), args...),
		started: time.Now(),
		done:    make(chan struct{}),
		out:     make(chan outcome, 1),
	}
	t.id.Store(-1)
	return t
}

func (t *Task) start(fn Func, onDone CompletionFunc) {
	go t.run(fn, onDone)
}

// Go runs fn on a new goroutine for a task created by List.Reserve. It
// must be called once.
func (t *Task) Go(fn Func, onDone CompletionFunc) {
	t.start(fn, onDone)
}

func (t *Task) run(fn Func, onDone CompletionFunc) {
	result, err := invoke(t.command, fn)
	t.completed.Store(time.Now().UnixNano())
	t.out <- outcome{result: result, err: err}
	close(t.done)

	if onDone != nil {
		onDone(t, result, err)
	}
}

// invoke calls fn and turns a panic into an error
func invoke(command string, fn Func) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = zerror.Newf("command %s panicked: %v", command, r).
				WithCode(zerror.CodeInternal).
				WithDetail("command", command).
				WithDetail("stack", string(debug.Stack()))
		}
	}()
	return fn()
}

// ID returns the id assigned by a List, or -1
func (t *Task) ID() int { return int(t.id.Load()) }

// Command returns the command name the task runs
func (t *Task) Command() string { return t.command }

// Args returns a copy of the command arguments
func (t *Task) Args() []string { return append([]string(nil), t.args...) }

// Started returns the start time
func (t *Task) Started() time.Time { return t.started }

// Duration returns the run time of a completed task, or the time elapsed
// so far
func (t *Task) Duration() time.Duration {
	if ns := t.completed.Load(); ns != 0 {
		return time.Unix(0, ns).Sub(t.started)
	}
	return time.Since(t.started)
}

// Poll reports whether the task has completed. It never blocks.
func (t *Task) Poll() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed on completion
func (t *Task) Done() <-chan struct{} { return t.done }

// Await blocks until completion and returns the outcome
func (t *Task) Await() (string, error) {
	t.once.Do(func() {
		t.cached = <-t.out
		t.retrieved.Store(true)
	})
	return t.cached.result, t.cached.err
}

// Claim blocks until completion like Await and additionally reports whether
// this call was the one that took the outcome from the task
func (t *Task) Claim() (result string, err error, first bool) {
	t.once.Do(func() {
		t.cached = <-t.out
		t.retrieved.Store(true)
		first = true
	})
	return t.cached.result, t.cached.err, first
}

// Result returns the outcome if the task has completed, without blocking
func (t *Task) Result() (string, error, bool) {
	if !t.Poll() {
		return "", nil, false
	}
	result, err := t.Await()
	return result, err, true
}

// Retrieved reports whether the outcome has been taken
func (t *Task) Retrieved() bool { return t.retrieved.Load() }

func (t *Task) String() string {
	state := "running"
	if t.Poll() {
		state = "completed"
	}
	return fmt.Sprintf("task %d (%s, %s)", t.ID(), t.command, state)
}
