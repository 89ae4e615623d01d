package client

import "sync"

// Sequencer hands out increasing sequence numbers and remembers the newest
// one whose response has been applied. Responses carrying an older number
// are stale and must not overwrite newer state.
type Sequencer struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
}

// Next reserves the sequence number for a new request.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Apply runs fn and marks seq applied if no newer response has been
// applied yet. It reports whether fn ran.
func (s *Sequencer) Apply(seq uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	fn()
	return true
}

// ApplyLatest is Apply restricted to the most recently issued number:
// a response already superseded by a newer request is dropped too.
func (s *Sequencer) ApplyLatest(seq uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.issued || seq <= s.applied {
		return false
	}
	s.applied = seq
	fn()
	return true
}

// Latest reports whether seq is the most recently issued number.
func (s *Sequencer) Latest(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq == s.issued
}
