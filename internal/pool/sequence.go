package pool

import "sync"

// IDSource hands out job ids
type IDSource interface {
	Next() uint64
}

// Sequence is a strictly increasing id counter guarded by its own lock
type Sequence struct {
	mu   sync.Mutex
	last uint64
}

// NewSequence creates a sequence whose first id is start
func NewSequence(start uint64) *Sequence {
	if start == 0 {
		start = 1
	}
	return &Sequence{last: start - 1}
}

// Next returns the next id
func (s *Sequence) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last
}

// Last returns the most recently issued id, or start-1
func (s *Sequence) Last() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
