// Package cvdisplay draws spectrum plots with OpenCV, into a desktop window
// on the device screen and/or as PNG files.
package cvdisplay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-spectro/pkg/display"
	"github.com/teslashibe/go-spectro/pkg/spectrum"
)

// Config holds display configuration.
type Config struct {
	Width     int    // canvas width in pixels
	Height    int    // canvas height in pixels
	Window    string // window title; empty disables the window
	ResultDir string // PNG output directory; empty disables files
}

// DefaultConfig returns a canvas sized for a 800x480 panel.
func DefaultConfig() Config {
	return Config{
		Width:     800,
		Height:    480,
		Window:    "spectro",
		ResultDir: "result",
	}
}

var (
	colorBackground = gocv.NewScalar(255, 255, 255, 0)
	colorAxis       = color.RGBA{R: 60, G: 60, B: 60}
	colorGrid       = color.RGBA{R: 220, G: 220, B: 220}
	colorTrace      = color.RGBA{R: 20, G: 90, B: 200}
	colorText       = color.RGBA{R: 0, G: 0, B: 0}
	colorStatusErr  = color.RGBA{R: 200, G: 30, B: 30}
)

const (
	marginLeft   = 60
	marginRight  = 20
	marginTop    = 40
	marginBottom = 70
	font         = gocv.FontHersheySimplex
)

// Display is a display.Display rendering with gocv.
type Display struct {
	cfg    Config
	logger *slog.Logger
	window *gocv.Window

	canvas gocv.Mat
	drawn  bool
	plot   *spectrum.Prediction
	title  string
	status string
}

// New creates the display and opens the window if configured.
func New(cfg Config, logger *slog.Logger) (*Display, error) {
	if cfg.Width < 200 || cfg.Height < 150 {
		return nil, fmt.Errorf("cvdisplay: canvas %dx%d too small", cfg.Width, cfg.Height)
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &Display{cfg: cfg, logger: logger.With("component", "display", "kind", "opencv")}
	if cfg.Window != "" {
		d.window = gocv.NewWindow(cfg.Window)
	}
	if err := d.render(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// Clear implements display.Display.
func (d *Display) Clear() error {
	d.plot, d.title, d.status = nil, "", ""
	return display.Wrap("clear", d.render())
}

// PlotSpectrum implements display.Display. With a result directory the
// plot is also written to <ResultDir>/<title>_spectrum.png.
func (d *Display) PlotSpectrum(p *spectrum.Prediction, title string) error {
	d.plot, d.title = p.Clone(), title
	if err := d.render(); err != nil {
		return display.Wrap("plot", err)
	}
	if d.cfg.ResultDir == "" {
		return nil
	}
	path, err := d.save(title)
	if err != nil {
		return display.Wrap("plot", err)
	}
	d.logger.Debug("plot saved", "path", path)
	return nil
}

// ShowStatus implements display.Display.
func (d *Display) ShowStatus(msg string) error {
	d.status = msg
	return display.Wrap("status", d.render())
}

// Close implements display.Display.
func (d *Display) Close() error {
	var errs []error
	if d.window != nil {
		errs = append(errs, d.window.Close())
		d.window = nil
	}
	if d.drawn {
		errs = append(errs, d.canvas.Close())
		d.drawn = false
	}
	return errors.Join(errs...)
}

// ResultPath returns where PlotSpectrum saves the plot titled title.
func (d *Display) ResultPath(title string) string {
	return filepath.Join(d.cfg.ResultDir, fileBase(title)+"_spectrum.png")
}

func (d *Display) save(title string) (string, error) {
	if err := os.MkdirAll(d.cfg.ResultDir, 0o755); err != nil {
		return "", err
	}
	path := d.ResultPath(title)
	if !gocv.IMWrite(path, d.canvas) {
		return "", fmt.Errorf("write %s failed", path)
	}
	return path, nil
}

// render redraws the canvas from state and refreshes the window.
func (d *Display) render() error {
	canvas := gocv.NewMatWithSizeFromScalar(colorBackground, d.cfg.Height, d.cfg.Width, gocv.MatTypeCV8UC3)
	if canvas.Empty() {
		return errors.New("canvas allocation failed")
	}
	if d.drawn {
		d.canvas.Close()
	}
	d.canvas, d.drawn = canvas, true

	area := image.Rect(marginLeft, marginTop, d.cfg.Width-marginRight, d.cfg.Height-marginBottom)
	d.drawAxes(area)
	if d.plot != nil {
		d.drawTrace(area)
	}
	if d.title != "" {
		gocv.PutText(&d.canvas, d.title, image.Pt(marginLeft, marginTop-12), font, 0.6, colorText, 1)
	}
	if d.status != "" {
		c := colorText
		if d.status != display.StatusOK && d.status != display.StatusReady {
			c = colorStatusErr
		}
		gocv.PutText(&d.canvas, d.status, image.Pt(marginLeft, d.cfg.Height-15), font, 0.7, c, 2)
	}

	if d.window != nil {
		d.window.IMShow(d.canvas)
		d.window.WaitKey(1)
	}
	return nil
}

func (d *Display) drawAxes(area image.Rectangle) {
	lo, hi := spectrumBounds(d.plot)
	for i, wl := range display.Ticks(lo, hi, 7) {
		x := area.Min.X + i*(area.Dx()-1)/6
		gocv.Line(&d.canvas, image.Pt(x, area.Min.Y), image.Pt(x, area.Max.Y), colorGrid, 1)
		gocv.PutText(&d.canvas, fmt.Sprintf("%.0f", wl), image.Pt(x-15, area.Max.Y+20), font, 0.45, colorAxis, 1)
	}
	gocv.PutText(&d.canvas, "wavelength (nm)", image.Pt(area.Min.X+area.Dx()/2-60, area.Max.Y+40), font, 0.5, colorAxis, 1)
	gocv.Rectangle(&d.canvas, area, colorAxis, 1)
}

func (d *Display) drawTrace(area image.Rectangle) {
	pts := display.Project(d.plot, area)
	for i := 1; i < len(pts); i++ {
		gocv.Line(&d.canvas, pts[i-1], pts[i], colorTrace, 2)
	}
}

func spectrumBounds(p *spectrum.Prediction) (lo, hi float64) {
	if p == nil || p.Len() == 0 {
		return 400, 1000
	}
	return p.Wavelengths[0], p.Wavelengths[p.Len()-1]
}

// fileBase turns a plot title into a safe file name stem.
func fileBase(title string) string {
	if title == "" {
		return "spectrum"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, title)
}
