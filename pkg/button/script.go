package button

import (
	"context"
	"sync"
	"time"
)

// Script is a simulated button that replays a fixed sequence: each
// WaitForPress consumes one entry, true meaning pressed and false meaning
// the wait timed out. When the sequence is exhausted it either repeats the
// last entry or returns ErrClosed.
type Script struct {
	mu     sync.Mutex
	seq    []bool
	pos    int
	repeat bool
	waits  int
	resets int
}

// NewScript creates a script that closes when exhausted.
func NewScript(seq ...bool) *Script {
	return &Script{seq: append([]bool(nil), seq...)}
}

// Always returns a script that reports a press on every wait.
func Always() *Script {
	return &Script{seq: []bool{true}, repeat: true}
}

// IsPressed implements Button.
func (s *Script) IsPressed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos < len(s.seq) {
		return s.seq[s.pos]
	}
	return s.repeat && len(s.seq) > 0 && s.seq[len(s.seq)-1]
}

// WaitForPress implements Button. It never sleeps.
func (s *Script) WaitForPress(ctx context.Context, _ time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits++
	if s.pos < len(s.seq) {
		v := s.seq[s.pos]
		s.pos++
		return v, nil
	}
	if s.repeat && len(s.seq) > 0 {
		return s.seq[len(s.seq)-1], nil
	}
	return false, ErrClosed
}

// Reset implements Button.
func (s *Script) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
}

// Waits returns how many times WaitForPress was called.
func (s *Script) Waits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waits
}

// Resets returns how many times Reset was called.
func (s *Script) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}
