// Package onnx runs an exported spectrum reconstruction network with the
// OpenCV DNN module.
package onnx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-spectro/pkg/features"
	"github.com/teslashibe/go-spectro/pkg/model"
	"github.com/teslashibe/go-spectro/pkg/spectrum"
)

// Config holds model asset locations.
type Config struct {
	Dir       string // directory with model.onnx, input_mean.npy, input_std.npy
	ModelFile string // overrides Dir/model.onnx
	Backend   string // "default", "opencv", "cuda"
	Target    string // "cpu", "cuda", "opencl"
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Dir:     "models",
		Backend: "default",
		Target:  "cpu",
	}
}

func (c Config) modelPath() string {
	if c.ModelFile != "" {
		return c.ModelFile
	}
	return filepath.Join(c.Dir, model.ONNXFile)
}

// Model is a model.Model backed by gocv.Net.
type Model struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	net    gocv.Net
	std    model.Standardization
	loaded bool
	outDim int
}

// New creates an unloaded model.
func New(cfg Config, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{cfg: cfg, logger: logger.With("component", "model", "kind", "onnx")}
}

// Load reads the standardisation arrays and the network.
func (m *Model) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		return nil
	}

	path := m.cfg.modelPath()
	if _, err := os.Stat(path); err != nil {
		return &model.LoadError{Path: path, Err: err}
	}
	std, err := model.LoadStandardization(m.cfg.Dir)
	if err != nil {
		return &model.LoadError{Path: m.cfg.Dir, Err: err}
	}

	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return &model.LoadError{Path: path, Err: errors.New("network is empty")}
	}
	if err := net.SetPreferableBackend(backend(m.cfg.Backend)); err != nil {
		net.Close()
		return &model.LoadError{Path: path, Err: err}
	}
	if err := net.SetPreferableTarget(target(m.cfg.Target)); err != nil {
		net.Close()
		return &model.LoadError{Path: path, Err: err}
	}

	m.net = net
	m.std = std
	m.loaded = true
	m.logger.Info("model loaded", "path", path, "input_dim", std.Dim())
	return nil
}

// Predict implements model.Model.
func (m *Model) Predict(ctx context.Context, v features.Vector) (*spectrum.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return nil, model.ErrNotLoaded
	}
	x, err := m.std.Apply(v)
	if err != nil {
		return nil, err
	}

	blob := gocv.NewMatWithSize(1, len(x), gocv.MatTypeCV32F)
	defer blob.Close()
	for i, val := range x {
		blob.SetFloatAt(0, i, float32(val))
	}

	m.net.SetInput(blob, "")
	out := m.net.Forward("")
	defer out.Close()
	if out.Empty() {
		return nil, &model.InferenceError{Err: errors.New("empty network output")}
	}

	raw, err := out.DataPtrFloat32()
	if err != nil {
		return nil, &model.InferenceError{Err: fmt.Errorf("read output: %w", err)}
	}
	intensities := make([]float64, len(raw))
	for i, f := range raw {
		intensities[i] = float64(f)
	}
	m.outDim = len(intensities)

	return &spectrum.Prediction{
		Wavelengths: spectrum.Linspace(model.WavelengthStart, model.WavelengthStop, len(intensities)),
		Intensities: intensities,
	}, nil
}

// Info implements model.Describer. OutputDim is known after the first
// prediction.
func (m *Model) Info() model.Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.Info{
		Kind:       "onnx",
		Source:     m.cfg.modelPath(),
		InputDim:   m.std.Dim(),
		OutputDim:  m.outDim,
		Normalized: m.std.Dim() > 0,
	}
}

// Close releases the network.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return nil
	}
	m.loaded = false
	return m.net.Close()
}

func backend(name string) gocv.NetBackendType {
	switch name {
	case "opencv":
		return gocv.NetBackendOpenCV
	case "cuda":
		return gocv.NetBackendCUDA
	}
	return gocv.NetBackendDefault
}

func target(name string) gocv.NetTargetType {
	switch name {
	case "cuda":
		return gocv.NetTargetCUDA
	case "opencl":
		return gocv.NetTargetOpenCL
	}
	return gocv.NetTargetCPU
}
