// ============================================================================
// zuse - Embeddable Command Interpreter
// ============================================================================
//
// Package:     pool
// Description: Parallel job pool with FIFO queue and lifecycle hooks
// Author:      Mike Stoffels
// Created:     2026-10-13
// License:     MIT
// ============================================================================

package pool

import (
	"sync"
	"time"
)

// State is the lifecycle state of a job
type State int

const (
	StateCreated State = iota
	StateSent
	StateExecuting
	StateResultsReady
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSent:
		return "sent"
	case StateExecuting:
		return "executing"
	case StateResultsReady:
		return "results_ready"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Finished reports whether s is a terminal state
func (s State) Finished() bool {
	return s == StateResultsReady || s == StateAborted
}

// Work is what a job executes
type Work func() (string, error)

// Job is one unit of parallel work
type Job struct {
	ID      uint64
	Owner   string
	Command string
	Args    []string

	work Work

	mu        sync.RWMutex
	state     State
	result    string
	err       error
	created   time.Time
	started   time.Time
	completed time.Time
	done      chan struct{}
}

// Info is a point-in-time copy of a job
type Info struct {
	ID        uint64
	Owner     string
	Command   string
	Args      []string
	State     State
	Result    string
	Err       error
	Created   time.Time
	Started   time.Time
	Completed time.Time
}

// NewJob creates a job in state Created
func NewJob(id uint64, owner, command string, args []string, work Work) *Job {
	return &Job{
		ID:      id,
		Owner:   owner,
		Command: command,
		Args:    append([]string(nil), args...),
		work:    work,
		state:   StateCreated,
		created: time.Now(),
		done:    make(chan struct{}),
	}
}

// State returns the current state
func (j *Job) State() State {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.state
}

// Done returns a channel closed when the job reaches a terminal state
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job has finished and returns its outcome
func (j *Job) Wait() (string, error) {
	<-j.done
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.result, j.err
}

// Snapshot returns a copy of the job's fields
func (j *Job) Snapshot() Info {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return Info{
		ID:        j.ID,
		Owner:     j.Owner,
		Command:   j.Command,
		Args:      append([]string(nil), j.Args...),
		State:     j.state,
		Result:    j.result,
		Err:       j.err,
		Created:   j.created,
		Started:   j.started,
		Completed: j.completed,
	}
}

func (j *Job) setState(s State) {
	j.mu.Lock()
	j.state = s
	if s == StateExecuting {
		j.started = time.Now()
	}
	j.mu.Unlock()
}

func (j *Job) finish(s State, result string, err error) {
	j.mu.Lock()
	j.state = s
	j.result = result
	j.err = err
	j.completed = time.Now()
	j.mu.Unlock()
	close(j.done)
}
