package async

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	zerror "github.com/msto63/zuse/foundation/core/error"
)

func TestTaskAwait(t *testing.T) {
	release := make(chan struct{})
	task := Start("Echo", []string{"x"}, func() (string, error) {
		<-release
		return "x", nil
	}, nil)

	if task.Poll() {
		t.Fatal("Poll() = true before the work finished")
	}
	if _, _, ok := task.Result(); ok {
		t.Fatal("Result() reported completion early")
	}

	close(release)
	got, err := task.Await()
	if err != nil || got != "x" {
		t.Fatalf("Await() = %q, %v", got, err)
	}
	if !task.Poll() || !task.Retrieved() {
		t.Error("task should be completed and retrieved")
	}
	if got, _, ok := task.Result(); !ok || got != "x" {
		t.Errorf("Result() = %q, %v", got, ok)
	}
}

func TestTaskClaimOnce(t *testing.T) {
	var runs atomic.Int32
	task := Start("Work", nil, func() (string, error) {
		runs.Add(1)
		return "", errors.New("failed")
	}, nil)

	var firsts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err, first := task.Claim()
			if err == nil {
				t.Error("every waiter must see the error")
			}
			if first {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()

	if firsts.Load() != 1 {
		t.Errorf("%d waiters claimed the outcome, want 1", firsts.Load())
	}
	if runs.Load() != 1 {
		t.Errorf("work ran %d times", runs.Load())
	}
}

func TestTaskPanicBecomesError(t *testing.T) {
	task := Start("Boom", nil, func() (string, error) {
		panic("kaboom")
	}, nil)

	_, err := task.Await()
	if !zerror.HasCode(err, zerror.CodeInternal) {
		t.Errorf("Await() error = %v, want INTERNAL", err)
	}
}

func TestTaskCompletionCallback(t *testing.T) {
	called := make(chan string, 1)
	task := Start("Echo", nil, func() (string, error) {
		return "done", nil
	}, func(_ *Task, result string, _ error) {
		called <- result
	})

	select {
	case got := <-called:
		if got != "done" {
			t.Errorf("callback result = %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("completion callback not called")
	}

	// The callback does not consume the outcome.
	if got, _ := task.Await(); got != "done" {
		t.Errorf("Await() = %q", got)
	}
	if task.Duration() < 0 {
		t.Error("Duration() must not be negative")
	}
}

func TestListIDs(t *testing.T) {
	l := NewList()
	var wg sync.WaitGroup
	ids := make(chan int, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- l.Add(Start("Echo", nil, func() (string, error) { return "", nil }, nil))
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("id %d assigned twice", id)
		}
		seen[id] = true
	}
	for i := 0; i < 20; i++ {
		task, err := l.Get(i)
		if err != nil || task.ID() != i {
			t.Errorf("Get(%d) = %v, %v", i, task, err)
		}
	}
	if _, err := l.Get(20); !zerror.HasCode(err, zerror.CodeTaskNotFound) {
		t.Errorf("Get(20) error = %v", err)
	}
}

func TestListPending(t *testing.T) {
	l := NewList()
	block := make(chan struct{})
	done := Start("Quick", nil, func() (string, error) { return "", nil }, nil)
	l.Add(done)
	l.Add(Start("Slow", nil, func() (string, error) { <-block; return "", nil }, nil))
	done.Await()

	pending := l.Pending()
	if len(pending) != 1 || pending[0] != 1 {
		t.Errorf("Pending() = %v", pending)
	}
	close(block)
}
