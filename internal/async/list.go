package async

import (
	"sync"

	zerror "github.com/msto63/zuse/foundation/core/error"
)

// List is an append-only table of tasks. The id of a task is its index,
// assigned under the list lock, so ids are dense, strictly increasing and
// never reused.
type List struct {
	mu    sync.RWMutex
	tasks []*Task
}

// NewList creates an empty list
func NewList() *List {
	return &List{}
}

// Add appends t and returns its id
func (l *List) Add(t *Task) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := len(l.tasks)
	t.id.Store(int64(id))
	l.tasks = append(l.tasks, t)
	return id
}

// Start creates a task, assigns its id and only then runs fn, so onDone
// always sees the final id
func (l *List) Start(command string, args []string, fn Func, onDone CompletionFunc) *Task {
	t := newTask(command, args)
	l.Add(t)
	t.start(fn, onDone)
	return t
}

// Reserve adds a task without starting it, so the caller knows the id
// before fn runs. Start it with Task.Go.
func (l *List) Reserve(command string, args []string) *Task {
	t := newTask(command, args)
	l.Add(t)
	return t
}

// Get returns the task with id
func (l *List) Get(id int) (*Task, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if id < 0 || id >= len(l.tasks) {
		return nil, zerror.Newf("async task %d not found", id).
			WithCode(zerror.CodeTaskNotFound).
			WithDetail("id", id)
	}
	return l.tasks[id], nil
}

// Len returns the number of tasks ever added
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tasks)
}

// Pending returns the ids of tasks that have not completed
func (l *List) Pending() []int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var ids []int
	for _, t := range l.tasks {
		if !t.Poll() {
			ids = append(ids, t.ID())
		}
	}
	return ids
}
