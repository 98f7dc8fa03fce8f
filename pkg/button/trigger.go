package button

import (
	"context"
	"sync/atomic"
	"time"
)

// Trigger is a software button with a capacity-one mailbox. Press never
// blocks; a press while one is already pending is coalesced.
type Trigger struct {
	ch        chan struct{}
	done      chan struct{}
	closed    atomic.Bool
	presses   atomic.Uint64
	coalesced atomic.Uint64
}

// NewTrigger creates a trigger.
func NewTrigger() *Trigger {
	return &Trigger{
		ch:   make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Press latches a press. It returns false if a press was already pending.
func (t *Trigger) Press() bool {
	t.presses.Add(1)
	select {
	case t.ch <- struct{}{}:
		return true
	default:
		t.coalesced.Add(1)
		return false
	}
}

// IsPressed implements Button.
func (t *Trigger) IsPressed() bool {
	return len(t.ch) > 0
}

// WaitForPress implements Button.
func (t *Trigger) WaitForPress(ctx context.Context, timeout time.Duration) (bool, error) {
	// A latched press wins over a concurrent close.
	select {
	case <-t.ch:
		return true, nil
	default:
	}

	timer, stop := timeoutChan(timeout)
	defer stop()

	select {
	case <-t.ch:
		return true, nil
	case <-t.done:
		return false, ErrClosed
	case <-timer:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Reset implements Button.
func (t *Trigger) Reset() {
	select {
	case <-t.ch:
	default:
	}
}

// Close makes WaitForPress return ErrClosed once no press is pending.
func (t *Trigger) Close() {
	if t.closed.CompareAndSwap(false, true) {
		close(t.done)
	}
}

// Stats returns the total presses seen and how many were coalesced.
func (t *Trigger) Stats() (presses, coalesced uint64) {
	return t.presses.Load(), t.coalesced.Load()
}
