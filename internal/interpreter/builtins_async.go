package interpreter

import (
	"fmt"
	"strconv"
	"strings"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/internal/pool"
	"github.com/msto63/zuse/internal/registry"
	"github.com/msto63/zuse/internal/stack"
)

func (i *Interpreter) initAsync(r *registry.Registry) error {
	r.AddCommand("Async", i.cmdAsync)
	r.AddCommand("AsyncDone", i.cmdAsyncDone)
	r.AddCommand("AsyncWait", i.cmdAsyncWait)
	r.AddCommand("AsyncWaitAll", i.cmdAsyncWaitAll)
	return nil
}

func (i *Interpreter) initParallel(r *registry.Registry) error {
	r.AddCommand("Parallel", i.cmdParallel)
	r.AddCommand("JobWait", i.cmdJobWait)
	r.AddCommand("JobState", i.cmdJobState)
	r.AddCommand("JobWaitAll", i.cmdJobWaitAll)
	r.AddCommand("PoolStatus", i.cmdPoolStatus)
	r.AddCommand("SetPriority", i.cmdSetPriority)
	return nil
}

// Async command args... starts command in the background and returns its id.
// The arguments were substituted when Async itself ran.
func (i *Interpreter) cmdAsync(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, -1); err != nil {
		return "", err
	}
	handler, err := i.registry.Resolve(args[0])
	if err != nil {
		return "", err
	}
	return strconv.Itoa(i.startAsync(t, args[0], args[1:], handler)), nil
}

func (i *Interpreter) cmdAsyncDone(_ stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, 1); err != nil {
		return "", err
	}
	id, err := parseInt(name, args[0])
	if err != nil {
		return "", err
	}
	done, err := i.AsyncIsCompleted(id)
	return boolString(done), err
}

func (i *Interpreter) cmdAsyncWait(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, 1); err != nil {
		return "", err
	}
	id, err := parseInt(name, args[0])
	if err != nil {
		return "", err
	}
	if err := i.waitOwnTask(t, id); err != nil {
		return "", err
	}
	return i.AsyncWait(id)
}

// AsyncWaitAll inside an async command skips the tasks it runs under
func (i *Interpreter) cmdAsyncWaitAll(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 0, 0); err != nil {
		return "", err
	}
	return formatOutcomes(i.asyncWaitAll(t)), nil
}

// Parallel count command args... submits count jobs and returns their ids
func (i *Interpreter) cmdParallel(t stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 2, -1); err != nil {
		return "", err
	}
	n, err := parseInt(name, args[0])
	if err != nil {
		return "", err
	}
	if n < 1 {
		return "", zerror.Newf("%s: repeat count must be positive, got %d", name, n).
			WithCode(zerror.CodeInvalidInput)
	}
	handler, err := i.registry.Resolve(args[1])
	if err != nil {
		return "", err
	}
	ids, err := i.submit(t, n, args[1], args[2:], handler)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(ids))
	for k, id := range ids {
		parts[k] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, " "), nil
}

func parseJobID(name, s string) (uint64, error) {
	n, err := parseInt(name, s)
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}

func (i *Interpreter) cmdJobWait(_ stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, 1); err != nil {
		return "", err
	}
	id, err := parseJobID(name, args[0])
	if err != nil {
		return "", err
	}
	return i.JobWait(id)
}

func (i *Interpreter) cmdJobState(_ stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, 1); err != nil {
		return "", err
	}
	id, err := parseJobID(name, args[0])
	if err != nil {
		return "", err
	}
	state, err := i.JobState(id)
	if err != nil {
		return "", err
	}
	return state.String(), nil
}

func (i *Interpreter) cmdJobWaitAll(_ stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 0, 0); err != nil {
		return "", err
	}
	return formatOutcomes(i.JobWaitAll()), nil
}

func (i *Interpreter) cmdPoolStatus(_ stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 0, 0); err != nil {
		return "", err
	}
	s := i.PoolStatus()
	return fmt.Sprintf("workers=%d idle=%d queued=%d completed=%d aborted=%d priority=%s",
		s.Workers, s.Idle, s.Queued, s.Completed, s.Aborted, s.Priority), nil
}

func (i *Interpreter) cmdSetPriority(_ stack.CommandThread, name string, args []string) (string, error) {
	if err := checkArgs(name, args, 1, 1); err != nil {
		return "", err
	}
	p, err := pool.ParsePriority(args[0])
	if err != nil {
		return "", err
	}
	return p.String(), i.SetPriority(p)
}

// formatOutcomes renders one "id: result" or "id: ERROR message" line per
// outcome
func formatOutcomes(outcomes []Outcome) string {
	lines := make([]string, len(outcomes))
	for k, o := range outcomes {
		if o.Err != nil {
			lines[k] = fmt.Sprintf("%d: ERROR %s", o.ID, o.Err)
		} else {
			lines[k] = fmt.Sprintf("%d: %s", o.ID, o.Result)
		}
	}
	return strings.Join(lines, "\n")
}
