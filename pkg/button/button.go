// Package button provides the capture trigger consumed by the main loop.
//
// Every variant latches at most one pending press: presses arriving while a
// step is running are coalesced into one, never queued. Callers that want
// such presses dropped call Reset after each step.
package button

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by WaitForPress once the button can no longer
// produce presses (input closed, script exhausted).
var ErrClosed = errors.New("button: closed")

// Button is the capture trigger.
type Button interface {
	// IsPressed reports whether a press is pending or the button is held.
	IsPressed() bool

	// WaitForPress blocks until a press, the timeout (<= 0 waits until ctx is
	// done) or cancellation. It returns (false, nil) on timeout and the
	// context error on cancellation.
	WaitForPress(ctx context.Context, timeout time.Duration) (bool, error)

	// Reset discards any pending press.
	Reset()
}

// timeoutChan returns a channel that fires after d, or nil (never) if d <= 0.
func timeoutChan(d time.Duration) (<-chan time.Time, func()) {
	if d <= 0 {
		return nil, func() {}
	}
	t := time.NewTimer(d)
	return t.C, func() { t.Stop() }
}
