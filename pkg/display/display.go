// Package display defines the result surface: a spectrum plot plus a status
// line. Variants here are hardware independent; the OpenCV window and PNG
// renderer live in cvdisplay.
package display

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-spectro/pkg/spectrum"
)

// Status lines shown by the main loop.
const (
	StatusReady        = "ready"
	StatusOK           = "ok"
	StatusDisplayError = "display error"
)

// Display renders results. Implementations need not be safe for concurrent
// use; the main loop is the only caller.
type Display interface {
	Clear() error
	PlotSpectrum(p *spectrum.Prediction, title string) error
	ShowStatus(msg string) error
	Close() error
}

// Error wraps a failure of a display operation.
type Error struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("display %s: %v", e.Op, e.Err)
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
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Op: op, Err: err}
}
