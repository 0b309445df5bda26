package stack

import (
	"sort"
	"strings"
	"sync"
)

// Store maps variable names to variables. The global store is shared by all
// threads of one interpreter, so every access is locked.
type Store struct {
	mu            sync.RWMutex
	vars          map[string]*Variable
	caseSensitive bool
}

// NewStore creates an empty store
func NewStore(caseSensitive bool) *Store {
	return &Store{
		vars:          make(map[string]*Variable),
		caseSensitive: caseSensitive,
	}
}

func (s *Store) key(name string) string {
	if s.caseSensitive {
		return name
	}
	return strings.ToUpper(name)
}

// Get returns the variable called name
func (s *Store) Get(name string) (*Variable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[s.key(name)]
	return v, ok
}

// Put stores v, invalidating a different variable of the same name
func (s *Store) Put(v *Variable) {
	s.mu.Lock()
	k := s.key(v.name)
	old, ok := s.vars[k]
	s.vars[k] = v
	s.mu.Unlock()

	if ok && old != v {
		old.Invalidate()
	}
}

// Remove deletes and invalidates the variable called name
func (s *Store) Remove(name string) (*Variable, bool) {
	s.mu.Lock()
	k := s.key(name)
	v, ok := s.vars[k]
	delete(s.vars, k)
	s.mu.Unlock()

	if ok {
		v.Invalidate()
	}
	return v, ok
}

// Names returns the variable names in sorted order
func (s *Store) Names() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.vars))
	for _, v := range s.vars {
		names = append(names, v.name)
	}
	s.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of variables
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vars)
}

// InvalidateAll empties the store and invalidates every variable in it
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	vars := s.vars
	s.vars = make(map[string]*Variable)
	s.mu.Unlock()

	for _, v := range vars {
		v.Invalidate()
	}
}

func (s *Store) each(fn func(v *Variable)) {
	s.mu.RLock()
	vars := make([]*Variable, 0, len(s.vars))
	for _, v := range s.vars {
		vars = append(vars, v)
	}
	s.mu.RUnlock()

	for _, v := range vars {
		fn(v)
	}
}
