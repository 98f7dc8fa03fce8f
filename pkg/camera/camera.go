package camera

import (
	"context"
	"errors"
	"fmt"

	"github.com/teslashibe/go-spectro/pkg/frame"
)

var (
	// ErrNotInitialized is returned by CaptureFrame before Initialize.
	ErrNotInitialized = errors.New("camera not initialized")

	// ErrNoFrame is returned when the device produced no usable frame.
	ErrNoFrame = errors.New("no frame")
)

// Camera is a single-frame source. Implementations own their device
// handle; Close releases it and is safe to call more than once.
type Camera interface {
	Initialize(ctx context.Context) error
	CaptureFrame(ctx context.Context) (*frame.Image, error)
	Close() error
}

// Error wraps a failure of a camera operation.
type Error struct {
	Op  string // "open", "capture", "reopen", "close"
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("camera %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns err as an *Error unless it already is one.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Op: op, Err: err}
}
