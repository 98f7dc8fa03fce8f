// Package device builds the collaborators named by the configuration and owns
// their handles until Close.
package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/teslashibe/go-spectro/internal/config"
	"github.com/teslashibe/go-spectro/pkg/button"
	"github.com/teslashibe/go-spectro/pkg/camera"
	"github.com/teslashibe/go-spectro/pkg/camera/cvcam"
	"github.com/teslashibe/go-spectro/pkg/display"
	"github.com/teslashibe/go-spectro/pkg/display/cvdisplay"
	"github.com/teslashibe/go-spectro/pkg/features"
	"github.com/teslashibe/go-spectro/pkg/model"
	"github.com/teslashibe/go-spectro/pkg/model/onnx"
	"github.com/teslashibe/go-spectro/pkg/model/remote"
	"github.com/teslashibe/go-spectro/pkg/roi"
)

// Device holds every collaborator of the capture loop.
type Device struct {
	ROIs      roi.Set
	Extractor *features.Extractor
	Button    button.Button
	Camera    camera.Camera
	Archiver  camera.Archiver
	Model     model.Model
	Display   display.Display

	logger    *slog.Logger
	closers   []namedCloser
	closeOnce sync.Once
	closeErr  error
}

type namedCloser struct {
	name  string
	close func() error
}

type options struct {
	logger  *slog.Logger
	stdin   io.Reader
	trigger *button.Trigger
	web     display.Display
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger handed to every collaborator.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStdin overrides the reader used by the stdin button.
func WithStdin(r io.Reader) Option {
	return func(o *options) { o.stdin = r }
}

// WithWeb supplies the dashboard's trigger and display for the web drivers.
func WithWeb(trigger *button.Trigger, d display.Display) Option {
	return func(o *options) {
		o.trigger = trigger
		o.web = d
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: slog.Default(), stdin: os.Stdin}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open builds everything. The model is loaded and the camera initialized; a
// model load failure is returned as *model.LoadError. On error every handle
// opened so far is closed.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (_ *Device, err error) {
	o := newOptions(opts)
	d := &Device{logger: o.logger.With("component", "device")}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()

	if d.ROIs, d.Extractor, err = LoadROIs(cfg); err != nil {
		return nil, err
	}
	if d.Model, err = OpenModel(ctx, cfg, d.ROIs.Len(), o.logger); err != nil {
		return nil, err
	}
	d.track("model", d.Model)

	if d.Camera, err = OpenCamera(ctx, cfg, o.logger); err != nil {
		return nil, err
	}
	d.track("camera", d.Camera)
	if cfg.Camera.ArchiveDir != "" {
		d.Archiver = camera.NewDirArchiver(cfg.Camera.ArchiveDir)
	}

	if d.Display, err = OpenDisplay(cfg, o.web, o.logger); err != nil {
		return nil, err
	}
	d.track("display", d.Display)

	if d.Button, err = openButton(cfg, o); err != nil {
		return nil, err
	}
	d.track("button", d.Button)

	d.logger.Info("device ready",
		"rois", d.ROIs.Len(),
		"button", cfg.Button.Driver,
		"camera", cfg.Camera.Driver,
		"model", cfg.Model.Driver,
		"displays", cfg.Display.Drivers,
	)
	return d, nil
}

// Close releases every handle in reverse order of opening. It is safe to
// call more than once; only the first call does anything.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		var errs []error
		for i := len(d.closers) - 1; i >= 0; i-- {
			c := d.closers[i]
			if err := c.close(); err != nil {
				d.logger.Warn("close failed", "handle", c.name, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			}
		}
		d.closeErr = errors.Join(errs...)
	})
	return d.closeErr
}

// track registers v for Close if it has a Close method.
func (d *Device) track(name string, v any) {
	switch c := v.(type) {
	case interface{ Close() error }:
		d.closers = append(d.closers, namedCloser{name: name, close: c.Close})
	case interface{ Close() }:
		d.closers = append(d.closers, namedCloser{name: name, close: func() error { c.Close(); return nil }})
	}
}

// LoadROIs reads the ROI set and, if configured, the background reference.
func LoadROIs(cfg *config.Config) (roi.Set, *features.Extractor, error) {
	set, err := roi.Load(cfg.ROI.File)
	if err != nil {
		return roi.Set{}, nil, err
	}
	if cfg.ROI.Background == "" {
		return set, features.NewExtractor(), nil
	}
	bg, err := roi.LoadBackground(cfg.ROI.Background)
	if err != nil {
		return roi.Set{}, nil, err
	}
	n, err := features.NewNormalizer(bg)
	if err != nil {
		return roi.Set{}, nil, &roi.ConfigError{Source: cfg.ROI.Background, Reason: "invalid background", Err: err}
	}
	return set, features.NewExtractor(features.WithNormalizer(n)), nil
}

// OpenCamera builds and initializes the configured camera.
func OpenCamera(ctx context.Context, cfg *config.Config, logger *slog.Logger) (camera.Camera, error) {
	logger = orDefault(logger)
	var c camera.Camera
	switch cfg.Camera.Driver {
	case camera.DriverGoCV:
		c = cvcam.New(cfg.Camera, logger)
	case camera.DriverFile:
		c = camera.NewFile(cfg.Camera.Path)
	case camera.DriverSynthetic:
		c = camera.NewSynthetic(cfg.Camera)
	default:
		return nil, fmt.Errorf("device: unknown camera driver %q", cfg.Camera.Driver)
	}
	if err := c.Initialize(ctx); err != nil {
		c.Close()
		return nil, camera.Wrap("initialize", err)
	}
	return c, nil
}

// OpenModel builds and loads the configured model. inputs sizes the
// simulated model.
func OpenModel(ctx context.Context, cfg *config.Config, inputs int, logger *slog.Logger) (model.Model, error) {
	logger = orDefault(logger)
	mc := cfg.Model
	var m model.Model
	switch mc.Driver {
	case config.ModelONNX:
		m = onnx.New(onnx.Config{Dir: mc.Dir, ModelFile: mc.File, Backend: mc.Backend, Target: mc.Target}, logger)
	case config.ModelLinear:
		path := mc.File
		if path == "" {
			path = filepath.Join(mc.Dir, model.ParamFile)
		}
		m = model.NewLinear(path)
	case config.ModelSimulated:
		m = model.NewLinearFromParams(model.SimulatedParams(inputs, mc.Bands))
	case config.ModelRemote:
		m = remote.New(remote.Config{BaseURL: mc.URL, Timeout: mc.Timeout})
	default:
		return nil, fmt.Errorf("device: unknown model driver %q", mc.Driver)
	}
	if err := checkModel(ctx, m, inputs, logger); err != nil {
		if c, ok := m.(interface{ Close() error }); ok {
			c.Close()
		}
		var le *model.LoadError
		if !errors.As(err, &le) {
			err = &model.LoadError{Path: mc.Dir, Err: err}
		}
		return nil, err
	}
	return m, nil
}

// checkModel loads m and rejects a model whose input size differs from the
// ROI count.
func checkModel(ctx context.Context, m model.Model, inputs int, logger *slog.Logger) error {
	if err := m.Load(ctx); err != nil {
		return err
	}
	desc, ok := m.(model.Describer)
	if !ok {
		return nil
	}
	info := desc.Info()
	if info.InputDim > 0 && info.InputDim != inputs {
		return &model.LoadError{
			Path: info.Source,
			Err:  fmt.Errorf("%w: model expects %d features, ROI set has %d", model.ErrDimension, info.InputDim, inputs),
		}
	}
	logger.Info("model loaded", "kind", info.Kind, "source", info.Source, "inputs", info.InputDim, "outputs", info.OutputDim)
	return nil
}

// OpenDisplay builds the configured displays. web is used for the web driver.
func OpenDisplay(cfg *config.Config, web display.Display, logger *slog.Logger) (display.Display, error) {
	logger = orDefault(logger)
	dc := cfg.Display
	var out display.Multi

	window := slices.Contains(dc.Drivers, config.DisplayWindow)
	png := slices.Contains(dc.Drivers, config.DisplayPNG)
	if window || png {
		cv := cvdisplay.Config{Width: dc.Width, Height: dc.Height}
		if window {
			cv.Window = dc.Window
		}
		if png {
			cv.ResultDir = dc.ResultDir
		}
		d, err := cvdisplay.New(cv, logger)
		if err != nil {
			return nil, display.Wrap("open", err)
		}
		out = append(out, d)
	}
	if slices.Contains(dc.Drivers, config.DisplayConsole) {
		out = append(out, display.NewConsole(logger))
	}
	if slices.Contains(dc.Drivers, config.DisplayWeb) {
		if web == nil {
			out.Close()
			return nil, errors.New("device: web display requested without a dashboard")
		}
		out = append(out, web)
	}

	switch len(out) {
	case 0:
		return nil, errors.New("device: no display configured")
	case 1:
		return out[0], nil
	}
	return out, nil
}

func openButton(cfg *config.Config, o *options) (button.Button, error) {
	bc := cfg.Button
	switch bc.Driver {
	case config.ButtonGPIO:
		return button.OpenGPIO(button.GPIOConfig{
			Pin:          bc.Pin,
			Debounce:     bc.Debounce,
			PollInterval: bc.PollInterval,
		}, o.logger)
	case config.ButtonStdin:
		return button.NewLines(o.stdin), nil
	case config.ButtonWeb:
		if o.trigger == nil {
			return nil, errors.New("device: web button requested without a dashboard")
		}
		return o.trigger, nil
	}
	return nil, fmt.Errorf("device: unknown button driver %q", bc.Driver)
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
