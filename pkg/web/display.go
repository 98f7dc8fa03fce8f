package web

import (
	"github.com/teslashibe/go-spectro/pkg/display"
	"github.com/teslashibe/go-spectro/pkg/hub"
	"github.com/teslashibe/go-spectro/pkg/spectrum"
)

// Display mirrors the device screen on the dashboard.
type Display struct {
	s *Server
}

var _ display.Display = (*Display)(nil)

// Display returns a display.Display bound to the server.
func (s *Server) Display() *Display {
	return &Display{s: s}
}

// Clear forgets the last spectrum.
func (d *Display) Clear() error {
	d.s.mu.Lock()
	d.s.spectrum = nil
	d.s.title = ""
	d.s.mu.Unlock()
	d.s.publish(hub.TopicSpectrum, nil)
	return nil
}

// PlotSpectrum stores a copy of p and pushes it to subscribers.
func (d *Display) PlotSpectrum(p *spectrum.Prediction, title string) error {
	if err := spectrum.Validate(p); err != nil {
		return display.Wrap("plot", err)
	}
	p = p.Clone()
	d.s.mu.Lock()
	d.s.spectrum = p
	d.s.title = title
	d.s.mu.Unlock()
	d.s.publish(hub.TopicSpectrum, newSpectrumView(p, title))
	return nil
}

// ShowStatus sets the status line.
func (d *Display) ShowStatus(msg string) error {
	d.s.mu.Lock()
	d.s.message = msg
	d.s.mu.Unlock()
	d.s.publish(hub.TopicStatus, d.s.Snapshot())
	return nil
}

// Close is a no-op; the server outlives the display.
func (d *Display) Close() error {
	return nil
}

func newSpectrumView(p *spectrum.Prediction, title string) SpectrumView {
	wl, in := p.Peak()
	return SpectrumView{
		Title:          title,
		Wavelengths:    append([]float64(nil), p.Wavelengths...),
		Intensities:    append([]float64(nil), p.Intensities...),
		PeakWavelength: wl,
		PeakIntensity:  in,
	}
}
