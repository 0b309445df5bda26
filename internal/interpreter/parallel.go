package interpreter

import (
	"sort"
	"time"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/internal/pool"
	"github.com/msto63/zuse/internal/registry"
	"github.com/msto63/zuse/internal/stack"
)

// RunParallel runs one command as a pool job and returns the job id
func (i *Interpreter) RunParallel(t stack.CommandThread, name string, args []string) (uint64, error) {
	ids, err := i.RunParallelRepeat(t, 1, name, args)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// RunParallelRepeat submits n jobs of the same command. Each job runs on its
// own fork of t. Ids are strictly increasing in submission order.
func (i *Interpreter) RunParallelRepeat(t stack.CommandThread, n int, name string, args []string) ([]uint64, error) {
	if n < 1 {
		return nil, zerror.Newf("repeat count must be positive, got %d", n).
			WithCode(zerror.CodeInvalidInput).
			WithDetail("count", n)
	}
	name, args, handler, err := i.resolve(t, name, args)
	if err != nil {
		return nil, err
	}
	return i.submit(t, n, name, args, handler)
}

func (i *Interpreter) submit(t stack.CommandThread, n int, name string, args []string, handler registry.Handler) ([]uint64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	jobs := make([]*pool.Job, n)
	ids := make([]uint64, n)
	for k := range jobs {
		forked := t.Fork()
		jobs[k] = pool.NewJob(i.ids.Next(), t.ID(), name, args, func() (string, error) {
			return invoke(handler, forked, name, args)
		})
		ids[k] = jobs[k].ID
	}
	if err := i.pool.Submit(jobs...); err != nil {
		return nil, err
	}
	for _, j := range jobs {
		i.jobs[j.ID] = j
		i.jobOrder = append(i.jobOrder, j.ID)
	}
	return ids, nil
}

func (i *Interpreter) job(id uint64) (*pool.Job, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	j, ok := i.jobs[id]
	if !ok {
		return nil, zerror.Newf("job %d not found", id).
			WithCode(zerror.CodeJobNotFound).
			WithDetail("job_id", id)
	}
	return j, nil
}

// JobWait blocks until the job has finished and returns its outcome
func (i *Interpreter) JobWait(id uint64) (string, error) {
	j, err := i.job(id)
	if err != nil {
		return "", err
	}
	return j.Wait()
}

// JobState returns the lifecycle state of a job
func (i *Interpreter) JobState(id uint64) (pool.State, error) {
	j, err := i.job(id)
	if err != nil {
		return pool.StateCreated, err
	}
	return j.State(), nil
}

// JobWaitAll waits for every submitted job and returns the outcomes in id
// order
func (i *Interpreter) JobWaitAll() []Outcome {
	i.mu.Lock()
	ids := append([]uint64(nil), i.jobOrder...)
	i.mu.Unlock()
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	out := make([]Outcome, 0, len(ids))
	for _, id := range ids {
		result, err := i.JobWait(id)
		out = append(out, Outcome{ID: id, Result: result, Err: err})
	}
	return out
}

// PoolStatus reports the pool without waiting for running jobs
func (i *Interpreter) PoolStatus() pool.Status {
	return i.pool.Status()
}

// SetPriority changes the worker priority
func (i *Interpreter) SetPriority(p pool.Priority) error {
	return i.pool.SetPriority(p)
}

func (i *Interpreter) jobHooks() pool.Hooks {
	finish := func(j *pool.Job, result string, err error) {
		info := j.Snapshot()
		i.record(Record{
			ThreadID: j.Owner,
			JobID:    j.ID,
			Mode:     ModeParallel,
			Command:  j.Command,
			Args:     info.Args,
			Result:   result,
			Err:      err,
			Started:  info.Started,
			Duration: time.Since(info.Started),
		})
	}
	return pool.Hooks{
		OnStart: func(j *pool.Job) {
			i.logger.Debug("Job started", "job_id", j.ID, "command", j.Command)
		},
		OnComplete: func(j *pool.Job, result string) {
			finish(j, result, nil)
		},
		OnAbort: func(j *pool.Job, err error) {
			finish(j, "", err)
		},
	}
}
