package camera

import (
	"context"

	"github.com/teslashibe/go-spectro/internal/calls"
	"github.com/teslashibe/go-spectro/pkg/frame"
)

// Mock implements Camera for testing.
type Mock struct {
	// InitializeFunc is called when Initialize is invoked.
	InitializeFunc func(ctx context.Context) error

	// CaptureFunc is called when CaptureFrame is invoked.
	CaptureFunc func(ctx context.Context) (*frame.Image, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	calls.Log
}

// NewMock creates a mock that returns a copy of img on every capture.
func NewMock(img *frame.Image) *Mock {
	return &Mock{
		CaptureFunc: func(ctx context.Context) (*frame.Image, error) {
			return img.Clone(), nil
		},
	}
}

// Initialize calls InitializeFunc and records the call.
func (m *Mock) Initialize(ctx context.Context) error {
	m.Record("Initialize")
	if m.InitializeFunc != nil {
		return m.InitializeFunc(ctx)
	}
	return nil
}

// CaptureFrame calls CaptureFunc and records the call.
func (m *Mock) CaptureFrame(ctx context.Context) (*frame.Image, error) {
	m.Record("CaptureFrame")
	if m.CaptureFunc != nil {
		return m.CaptureFunc(ctx)
	}
	return nil, &Error{Op: "capture", Err: ErrNoFrame}
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.Record("Close")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// FailingThen returns a capture func failing n times before delegating.
func FailingThen(n int, err error, next func(ctx context.Context) (*frame.Image, error)) func(ctx context.Context) (*frame.Image, error) {
	failures := 0
	return func(ctx context.Context) (*frame.Image, error) {
		if failures < n {
			failures++
			return nil, &Error{Op: "capture", Err: err}
		}
		return next(ctx)
	}
}
