package display

import (
	"log/slog"

	"github.com/teslashibe/go-spectro/pkg/spectrum"
)

// Console logs results instead of drawing them, for headless runs.
type Console struct {
	logger *slog.Logger
}

// NewConsole creates a console display.
func NewConsole(logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{logger: logger.With("component", "display")}
}

// Clear implements Display.
func (c *Console) Clear() error { return nil }

// PlotSpectrum implements Display by logging a summary of p.
func (c *Console) PlotSpectrum(p *spectrum.Prediction, title string) error {
	wl, peak := p.Peak()
	lo, hi := p.Range()
	c.logger.Info("spectrum",
		"title", title,
		"samples", p.Len(),
		"from_nm", p.Wavelengths[0],
		"to_nm", p.Wavelengths[p.Len()-1],
		"peak_nm", wl,
		"peak", peak,
		"min", lo,
		"max", hi,
	)
	return nil
}

// ShowStatus implements Display.
func (c *Console) ShowStatus(msg string) error {
	c.logger.Info("status", "message", msg)
	return nil
}

// Close implements Display.
func (c *Console) Close() error { return nil }
