package interpreter

import (
	"slices"
	"time"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/internal/async"
	"github.com/msto63/zuse/internal/registry"
	"github.com/msto63/zuse/internal/stack"
)

// Outcome is the result of one async task or job
type Outcome struct {
	ID     uint64
	Result string
	Err    error
}

// RunAsync resolves and substitutes like Run, then invokes the command on
// a forked thread in the background. The returned id is never reused.
func (i *Interpreter) RunAsync(t stack.CommandThread, name string, args []string) (int, error) {
	name, args, handler, err := i.resolve(t, name, args)
	if err != nil {
		return -1, err
	}
	return i.startAsync(t, name, args, handler), nil
}

func (i *Interpreter) startAsync(t stack.CommandThread, name string, args []string, handler registry.Handler) int {
	forked := t.Fork()
	task := i.tasks.Reserve(name, args)
	id := task.ID()

	// The fork runs under its own task and every task its parent runs under
	owners := append(append([]int(nil), i.asyncOwners(t)...), id)
	i.lineage.Store(forked.ID(), owners)

	task.Go(func() (string, error) {
		return invoke(handler, forked, name, args)
	}, func(task *async.Task, result string, err error) {
		i.lineage.Delete(forked.ID())
		i.record(Record{
			ThreadID: forked.ID(),
			JobID:    uint64(task.ID()),
			Mode:     ModeAsync,
			Command:  name,
			Args:     args,
			Result:   result,
			Err:      err,
			Started:  task.Started(),
			Duration: time.Since(task.Started()),
		})
	})

	i.logger.Debug("Async command started", "id", id, "command", name)
	return id
}

// asyncOwners returns the ids of the async tasks t runs under. It is empty
// for threads that are not async forks.
func (i *Interpreter) asyncOwners(t stack.CommandThread) []int {
	if t == nil {
		return nil
	}
	if v, ok := i.lineage.Load(t.ID()); ok {
		return v.([]int)
	}
	return nil
}

// AsyncIsCompleted reports whether the task has finished. It never blocks.
func (i *Interpreter) AsyncIsCompleted(id int) (bool, error) {
	task, err := i.tasks.Get(id)
	if err != nil {
		return false, err
	}
	return task.Poll(), nil
}

// AsyncWait blocks until the task has finished and returns its outcome.
// The outcome is taken from the task once; a failure is logged by that
// first retrieval and every call returns the same result.
func (i *Interpreter) AsyncWait(id int) (string, error) {
	task, err := i.tasks.Get(id)
	if err != nil {
		return "", err
	}
	result, err, first := task.Claim()
	if first && err != nil {
		i.logger.Error("Async command failed", "id", id, "command", task.Command(), "error", err)
	}
	return result, err
}

// AsyncWaitAll waits for every task in ascending id order
func (i *Interpreter) AsyncWaitAll() []Outcome {
	return i.asyncWaitAll(nil)
}

// asyncWaitAll waits like AsyncWaitAll but leaves out the tasks t runs
// under, which cannot complete while t waits for them
func (i *Interpreter) asyncWaitAll(t stack.CommandThread) []Outcome {
	owners := i.asyncOwners(t)
	n := i.tasks.Len()
	out := make([]Outcome, 0, n)
	for id := 0; id < n; id++ {
		if slices.Contains(owners, id) {
			continue
		}
		result, err := i.AsyncWait(id)
		out = append(out, Outcome{ID: uint64(id), Result: result, Err: err})
	}
	return out
}

// waitOwnTask rejects waiting for a task from inside that task
func (i *Interpreter) waitOwnTask(t stack.CommandThread, id int) error {
	if !slices.Contains(i.asyncOwners(t), id) {
		return nil
	}
	return zerror.Newf("async task %d cannot wait for itself", id).
		WithCode(zerror.CodeInvalidInput).
		WithDetail("id", id)
}

// AsyncCount returns the number of async tasks ever started
func (i *Interpreter) AsyncCount() int { return i.tasks.Len() }
