package pool

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	zerror "github.com/msto63/zuse/foundation/core/error"
	"github.com/msto63/zuse/pkg/core/logging"
)

func newTestPool(opts Options) *Pool {
	if opts.Logger == nil {
		opts.Logger = logging.Discard("pool")
	}
	return New(opts)
}

func echoJob(seq IDSource, value string) *Job {
	return NewJob(seq.Next(), "test", "Echo", []string{value}, func() (string, error) {
		return value, nil
	})
}

func TestSequenceStrictlyIncreasing(t *testing.T) {
	seq := NewSequence(1)
	var mu sync.Mutex
	var ids []uint64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := seq.Next()
				mu.Lock()
				ids = append(ids, id)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		if id != uint64(i+1) {
			t.Fatalf("ids[%d] = %d, want %d", i, id, i+1)
		}
	}
	if seq.Last() != 1000 {
		t.Errorf("Last() = %d", seq.Last())
	}
}

func TestSubmitRepeat(t *testing.T) {
	p := newTestPool(Options{})
	defer p.Close()
	seq := NewSequence(1)

	jobs := make([]*Job, 5)
	for i := range jobs {
		jobs[i] = echoJob(seq, "x")
	}
	if err := p.Submit(jobs...); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	seen := make(map[uint64]bool)
	for _, j := range jobs {
		got, err := j.Wait()
		if err != nil || got != "x" {
			t.Errorf("job %d = %q, %v", j.ID, got, err)
		}
		if j.State() != StateResultsReady {
			t.Errorf("job %d state = %v", j.ID, j.State())
		}
		if seen[j.ID] {
			t.Errorf("duplicate id %d", j.ID)
		}
		seen[j.ID] = true
	}
}

func TestWorkerCap(t *testing.T) {
	tests := []struct {
		name       string
		maxWorkers int
		jobs       int
		want       int
	}{
		{"capped", 2, 6, 2},
		{"unbounded", 0, 4, 4},
		{"cap above demand", 10, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPool(Options{MaxWorkers: tt.maxWorkers})
			seq := NewSequence(1)
			release := make(chan struct{})
			var running, peak atomic.Int32

			jobs := make([]*Job, tt.jobs)
			for i := range jobs {
				jobs[i] = NewJob(seq.Next(), "test", "Block", nil, func() (string, error) {
					n := running.Add(1)
					for {
						old := peak.Load()
						if n <= old || peak.CompareAndSwap(old, n) {
							break
						}
					}
					<-release
					running.Add(-1)
					return "", nil
				})
			}
			p.Submit(jobs...)
			if got := p.Status().Workers; got != tt.want {
				t.Errorf("Workers = %d, want %d", got, tt.want)
			}
			close(release)
			for _, j := range jobs {
				j.Wait()
			}
			p.Close()
			if int(peak.Load()) > tt.want {
				t.Errorf("peak concurrency %d exceeds %d", peak.Load(), tt.want)
			}
		})
	}
}

func TestFIFOConsumption(t *testing.T) {
	p := newTestPool(Options{MaxWorkers: 1})
	seq := NewSequence(1)
	var mu sync.Mutex
	var order []string

	var jobs []*Job
	for i := 0; i < 5; i++ {
		v := fmt.Sprint(i)
		jobs = append(jobs, NewJob(seq.Next(), "test", "Record", nil, func() (string, error) {
			mu.Lock()
			order = append(order, v)
			mu.Unlock()
			return v, nil
		}))
	}
	p.Submit(jobs...)
	p.Close()

	if got := fmt.Sprint(order); got != "[0 1 2 3 4]" {
		t.Errorf("execution order = %s", got)
	}
}

func TestAbortIsolated(t *testing.T) {
	var started, completed, aborted atomic.Int32
	p := newTestPool(Options{Hooks: Hooks{
		OnStart:    func(*Job) { started.Add(1) },
		OnComplete: func(*Job, string) { completed.Add(1) },
		OnAbort:    func(*Job, error) { aborted.Add(1) },
	}})
	seq := NewSequence(1)

	bad := NewJob(seq.Next(), "test", "Fail", nil, func() (string, error) {
		return "", errors.New("broken")
	})
	panicky := NewJob(seq.Next(), "test", "Panic", nil, func() (string, error) {
		panic("oops")
	})
	good := echoJob(seq, "ok")
	p.Submit(bad, panicky, good)
	p.Close()

	for _, j := range []*Job{bad, panicky} {
		_, err := j.Wait()
		if !zerror.HasCode(err, zerror.CodeJobAborted) {
			t.Errorf("job %d error = %v, want JOB_ABORTED", j.ID, err)
		}
		if j.State() != StateAborted {
			t.Errorf("job %d state = %v", j.ID, j.State())
		}
	}
	if got, err := good.Wait(); err != nil || got != "ok" {
		t.Errorf("good job = %q, %v", got, err)
	}

	if started.Load() != 3 || completed.Load() != 1 || aborted.Load() != 2 {
		t.Errorf("hooks: start %d, complete %d, abort %d", started.Load(), completed.Load(), aborted.Load())
	}
	s := p.Status()
	if s.Completed != 1 || s.Aborted != 2 {
		t.Errorf("Status counters = %d/%d", s.Completed, s.Aborted)
	}
}

func TestAbortHookPanicStaysInJob(t *testing.T) {
	p := newTestPool(Options{Hooks: Hooks{
		OnAbort: func(*Job, error) { panic("hook exploded") },
	}})
	seq := NewSequence(1)
	j := NewJob(seq.Next(), "test", "Fail", nil, func() (string, error) {
		return "", errors.New("broken")
	})
	after := echoJob(seq, "still running")

	p.Submit(j)
	_, err := j.Wait()
	e, ok := zerror.As(err)
	if !ok || e.Code() != zerror.CodeJobAborted {
		t.Fatalf("error = %v", err)
	}
	if _, ok := e.Detail("abort_hook_error"); !ok {
		t.Error("abort hook failure should be recorded on the job error")
	}

	if err := p.Submit(after); err != nil {
		t.Fatalf("pool unusable after hook panic: %v", err)
	}
	if got, _ := after.Wait(); got != "still running" {
		t.Errorf("after = %q", got)
	}
	p.Close()
}

func TestStatusDoesNotBlock(t *testing.T) {
	p := newTestPool(Options{})
	seq := NewSequence(1)
	release := make(chan struct{})
	slow := NewJob(seq.Next(), "test", "Slow", nil, func() (string, error) {
		<-release
		return "", nil
	})
	p.Submit(slow)

	deadline := time.Now().Add(2 * time.Second)
	for slow.State() != StateExecuting && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	done := make(chan Status, 1)
	go func() { done <- p.Status() }()
	select {
	case s := <-done:
		if len(s.Jobs) != 1 || s.Jobs[0].State != StateExecuting {
			t.Errorf("Status().Jobs = %+v", s.Jobs)
		}
		if s.Workers != 1 {
			t.Errorf("Workers = %d", s.Workers)
		}
	case <-time.After(time.Second):
		t.Fatal("Status() blocked on a running job")
	}

	close(release)
	p.Close()
	if n := p.Prune(); n != 1 {
		t.Errorf("Prune() = %d", n)
	}
}

func TestSubmitAfterClose(t *testing.T) {
	p := newTestPool(Options{})
	p.Close()
	p.Close()
	err := p.Submit(echoJob(NewSequence(1), "x"))
	if !zerror.HasCode(err, zerror.CodePoolClosed) {
		t.Errorf("Submit() error = %v, want POOL_CLOSED", err)
	}
}

func TestJobLookup(t *testing.T) {
	p := newTestPool(Options{})
	defer p.Close()
	j := echoJob(NewSequence(7), "x")
	p.Submit(j)

	got, err := p.Job(7)
	if err != nil || got != j {
		t.Errorf("Job(7) = %v, %v", got, err)
	}
	if _, err := p.Job(8); !zerror.HasCode(err, zerror.CodeJobNotFound) {
		t.Errorf("Job(8) error = %v", err)
	}
	j.Wait()
	info := j.Snapshot()
	if info.Result != "x" || info.Completed.Before(info.Started) || info.Owner != "test" {
		t.Errorf("Snapshot() = %+v", info)
	}
}

func TestSetPriority(t *testing.T) {
	var applied Priority
	p := newTestPool(Options{PriorityFunc: func(prio Priority) error {
		applied = prio
		return nil
	}})
	if err := p.SetPriority(PriorityHigh); err != nil {
		t.Fatalf("SetPriority() error = %v", err)
	}
	if applied != PriorityHigh || p.Priority() != PriorityHigh {
		t.Errorf("priority not applied: %v / %v", applied, p.Priority())
	}

	failing := newTestPool(Options{PriorityFunc: func(Priority) error { return errors.New("denied") }})
	if err := failing.SetPriority(PriorityLow); err == nil {
		t.Error("SetPriority() should report the PriorityFunc error")
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"", PriorityNormal, false},
		{"LOW", PriorityLow, false},
		{" high ", PriorityHigh, false},
		{"urgent", PriorityNormal, true},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePriority(%q) = %v, %v", tt.in, got, err)
		}
	}
}
