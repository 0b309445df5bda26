package interpreter

import (
	"time"
)

// Mode tells how a command was started
type Mode string

const (
	ModeSync     Mode = "sync"
	ModeAsync    Mode = "async"
	ModeParallel Mode = "parallel"
)

// Record describes one finished command invocation
type Record struct {
	ThreadID string
	JobID    uint64
	Mode     Mode
	Command  string
	Args     []string
	Result   string
	Err      error
	Started  time.Time
	Duration time.Duration
}

// Journal receives a Record for every command the interpreter runs.
// Implementations must be safe for concurrent use.
type Journal interface {
	Record(rec Record) error
}

func (i *Interpreter) record(rec Record) {
	if i.journal == nil {
		return
	}
	if err := i.journal.Record(rec); err != nil {
		i.logger.Warn("Failed to write journal record", "command", rec.Command, "error", err)
	}
}
