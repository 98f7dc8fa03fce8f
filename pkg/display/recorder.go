package display

import (
	"sync"

	"github.com/teslashibe/go-spectro/internal/calls"
	"github.com/teslashibe/go-spectro/pkg/spectrum"
)

// Recorder implements Display for testing. It records every call and can be
// told to fail individual operations.
type Recorder struct {
	// ClearFunc, PlotFunc and StatusFunc override the default no-op result.
	ClearFunc  func() error
	PlotFunc   func(p *spectrum.Prediction, title string) error
	StatusFunc func(msg string) error

	calls.Log

	mu       sync.Mutex
	plots    []*spectrum.Prediction
	statuses []string
}

// NewRecorder creates a recorder that accepts every call.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Clear records the call.
func (r *Recorder) Clear() error {
	r.Record("Clear")
	if r.ClearFunc != nil {
		return r.ClearFunc()
	}
	return nil
}

// PlotSpectrum records the call with a copy of p.
func (r *Recorder) PlotSpectrum(p *spectrum.Prediction, title string) error {
	r.Record("PlotSpectrum", title)
	r.mu.Lock()
	r.plots = append(r.plots, p.Clone())
	r.mu.Unlock()
	if r.PlotFunc != nil {
		return r.PlotFunc(p, title)
	}
	return nil
}

// ShowStatus records the call.
func (r *Recorder) ShowStatus(msg string) error {
	r.Record("ShowStatus", msg)
	r.mu.Lock()
	r.statuses = append(r.statuses, msg)
	r.mu.Unlock()
	if r.StatusFunc != nil {
		return r.StatusFunc(msg)
	}
	return nil
}

// Close records the call.
func (r *Recorder) Close() error {
	r.Record("Close")
	return nil
}

// Plots returns the predictions passed to PlotSpectrum.
func (r *Recorder) Plots() []*spectrum.Prediction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*spectrum.Prediction(nil), r.plots...)
}

// Statuses returns the messages passed to ShowStatus.
func (r *Recorder) Statuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statuses...)
}
