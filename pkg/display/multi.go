package display

import (
	"errors"

	"github.com/teslashibe/go-spectro/pkg/spectrum"
)

// Multi fans every call out to all displays. Each display is called even if
// an earlier one failed; the errors are joined.
type Multi []Display

// Clear implements Display.
func (m Multi) Clear() error {
	return m.each(func(d Display) error { return d.Clear() })
}

// PlotSpectrum implements Display.
func (m Multi) PlotSpectrum(p *spectrum.Prediction, title string) error {
	return m.each(func(d Display) error { return d.PlotSpectrum(p, title) })
}

// ShowStatus implements Display.
func (m Multi) ShowStatus(msg string) error {
	return m.each(func(d Display) error { return d.ShowStatus(msg) })
}

// Close implements Display.
func (m Multi) Close() error {
	return m.each(func(d Display) error { return d.Close() })
}

func (m Multi) each(fn func(Display) error) error {
	var errs []error
	for _, d := range m {
		if err := fn(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
