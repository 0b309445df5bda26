package pool

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/pkg/core/logging"
)

// Hooks are called on the worker goroutine executing a job. A nil hook is
// skipped.
type Hooks struct {
	OnStart    func(j *Job)
	OnComplete func(j *Job, result string)
	OnAbort    func(j *Job, err error)
}

// Options configures a Pool
type Options struct {
	// MaxWorkers caps the number of workers; <= 0 means unbounded
	MaxWorkers   int
	Priority     Priority
	PriorityFunc PriorityFunc
	Hooks        Hooks
	Logger       *logging.Logger
}

// Pool runs jobs on a growing set of worker goroutines. Jobs are consumed
// in submission order and complete in any order.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*Job
	jobs    []*Job
	workers int
	idle    int
	closed  bool

	maxWorkers   int
	priority     Priority
	priorityFunc PriorityFunc
	hooks        Hooks

	completed atomic.Int64
	aborted   atomic.Int64

	wg     sync.WaitGroup
	logger *logging.Logger
}

// JobStatus is the state of one job as seen by Status
type JobStatus struct {
	ID      uint64
	Command string
	State   State
}

// Status describes the pool without waiting for running jobs
type Status struct {
	Workers    int
	Idle       int
	Queued     int
	MaxWorkers int
	Priority   Priority
	Completed  int64
	Aborted    int64
	Jobs       []JobStatus
}

// New creates an idle pool. Workers are started by Submit.
func New(opts Options) *Pool {
	logger := opts.Logger
	if logger == nil {
		logger = logging.New("pool")
	}
	p := &Pool{
		maxWorkers:   opts.MaxWorkers,
		priority:     opts.Priority,
		priorityFunc: opts.PriorityFunc,
		hooks:        opts.Hooks,
		logger:       logger,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Submit enqueues jobs in order. When fewer workers are idle than jobs
// arrive, new workers are started first, within the worker cap.
func (p *Pool) Submit(jobs ...*Job) error {
	if len(jobs) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return zerror.New("job pool is closed").WithCode(zerror.CodePoolClosed)
	}

	if missing := len(jobs) - p.idle; missing > 0 {
		if p.maxWorkers > 0 && p.workers+missing > p.maxWorkers {
			missing = p.maxWorkers - p.workers
		}
		for i := 0; i < missing; i++ {
			p.workers++
			p.wg.Add(1)
			go p.worker()
		}
		if missing > 0 {
			p.logger.Debug("Workers started", "started", missing, "workers", p.workers)
		}
	}

	for _, j := range jobs {
		j.setState(StateSent)
		p.queue = append(p.queue, j)
		p.jobs = append(p.jobs, j)
	}
	p.cond.Broadcast()
	return nil
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.idle++
			p.cond.Wait()
			p.idle--
		}
		if len(p.queue) == 0 {
			p.workers--
			p.mu.Unlock()
			return
		}
		j := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.execute(j)
	}
}

func (p *Pool) execute(j *Job) {
	log := p.logger.With("job_id", j.ID, "command", j.Command)

	j.setState(StateExecuting)
	p.callHook(log, "start", func() {
		if p.hooks.OnStart != nil {
			p.hooks.OnStart(j)
		}
	})

	result, err := safeRun(j)
	if err == nil {
		p.callHook(log, "complete", func() {
			if p.hooks.OnComplete != nil {
				p.hooks.OnComplete(j, result)
			}
		})
		p.completed.Add(1)
		j.finish(StateResultsReady, result, nil)
		return
	}

	abortErr := zerror.Wrap(err, fmt.Sprintf("job %d aborted", j.ID)).
		WithCode(zerror.CodeJobAborted).
		WithDetail("job_id", j.ID).
		WithDetail("command", j.Command)
	log.Error("Job aborted", "error", abortErr)

	if hookErr := p.callHook(log, "abort", func() {
		if p.hooks.OnAbort != nil {
			p.hooks.OnAbort(j, abortErr)
		}
	}); hookErr != nil {
		abortErr = abortErr.WithDetail("abort_hook_error", hookErr.Error())
	}
	p.aborted.Add(1)
	j.finish(StateAborted, "", abortErr)
}

// callHook runs fn and turns a panic into a logged error. Hook failures
// stay inside the job that triggered them.
func (p *Pool) callHook(log *logging.Logger, name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = zerror.Newf("%s hook panicked: %v", name, r).WithCode(zerror.CodeInternal)
			log.Error("Job hook failed", "hook", name, "error", err)
		}
	}()
	fn()
	return nil
}

func safeRun(j *Job) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = zerror.Newf("job %d panicked: %v", j.ID, r).
				WithCode(zerror.CodeInternal).
				WithDetail("stack", string(debug.Stack()))
		}
	}()
	if j.work == nil {
		return "", zerror.Newf("job %d has no work", j.ID).WithCode(zerror.CodeInternal)
	}
	return j.work()
}

// Job returns the submitted job with id
func (p *Pool) Job(id uint64) (*Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, j := range p.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, zerror.Newf("job %d not found", id).
		WithCode(zerror.CodeJobNotFound).
		WithDetail("job_id", id)
}

// Jobs returns all submitted jobs in submission order
func (p *Pool) Jobs() []*Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Job(nil), p.jobs...)
}

// Prune forgets finished jobs and returns how many were dropped
func (p *Pool) Prune() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.jobs[:0]
	for _, j := range p.jobs {
		if !j.State().Finished() {
			kept = append(kept, j)
		}
	}
	n := len(p.jobs) - len(kept)
	for i := len(kept); i < len(p.jobs); i++ {
		p.jobs[i] = nil
	}
	p.jobs = kept
	return n
}

// Status reports pool size, idle workers and per-job states. Job states are
// read through each job's own lock, so running jobs are never waited for.
func (p *Pool) Status() Status {
	p.mu.Lock()
	s := Status{
		Workers:    p.workers,
		Idle:       p.idle,
		Queued:     len(p.queue),
		MaxWorkers: p.maxWorkers,
		Priority:   p.priority,
	}
	jobs := append([]*Job(nil), p.jobs...)
	p.mu.Unlock()

	s.Completed = p.completed.Load()
	s.Aborted = p.aborted.Load()
	s.Jobs = make([]JobStatus, len(jobs))
	for i, j := range jobs {
		s.Jobs[i] = JobStatus{ID: j.ID, Command: j.Command, State: j.State()}
	}
	return s
}

// SetPriority records p and forwards it to the PriorityFunc, if any
func (p *Pool) SetPriority(prio Priority) error {
	p.mu.Lock()
	p.priority = prio
	fn := p.priorityFunc
	p.mu.Unlock()

	if fn != nil {
		if err := fn(prio); err != nil {
			return zerror.Wrap(err, "failed to apply priority").WithDetail("priority", prio.String())
		}
	}
	p.logger.Debug("Priority changed", "priority", prio.String())
	return nil
}

// Priority returns the current priority
func (p *Pool) Priority() Priority {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.priority
}

// Close stops accepting jobs, lets the workers drain the queue and waits
// for them to exit. Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
}
