package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-spectro/pkg/features"
	"github.com/teslashibe/go-spectro/pkg/spectrum"
)

// LinearParams is a dense linear reconstruction: after standardisation,
// intensity[j] = bias[j] + sum_i weights[j][i] * x[i].
type LinearParams struct {
	Weights     [][]float64 `yaml:"weights"`
	Bias        []float64   `yaml:"bias,omitempty"`
	Wavelengths []float64   `yaml:"wavelengths,omitempty"`

	Standardization `yaml:",inline"`
}

// Check validates shapes.
func (p *LinearParams) Check() error {
	if len(p.Weights) == 0 || len(p.Weights[0]) == 0 {
		return errors.New("weights are empty")
	}
	in := len(p.Weights[0])
	for j, row := range p.Weights {
		if len(row) != in {
			return fmt.Errorf("weights row %d has %d columns, want %d", j, len(row), in)
		}
	}
	out := len(p.Weights)
	if len(p.Bias) != 0 && len(p.Bias) != out {
		return fmt.Errorf("bias has %d values, want %d", len(p.Bias), out)
	}
	if len(p.Wavelengths) != 0 && len(p.Wavelengths) != out {
		return fmt.Errorf("wavelengths has %d values, want %d", len(p.Wavelengths), out)
	}
	if err := p.Standardization.Check(); err != nil {
		return err
	}
	if d := p.Standardization.Dim(); d != 0 && d != in {
		return fmt.Errorf("standardization has %d values, want %d", d, in)
	}
	return nil
}

// SimulatedParams builds a deterministic model in which each input drives a
// Gaussian band centred on its share of the 400-1000nm grid. It lets the
// device run end to end without trained weights.
func SimulatedParams(inputs, outputs int) LinearParams {
	centres := spectrum.Linspace(WavelengthStart, WavelengthStop, inputs)
	grid := spectrum.Linspace(WavelengthStart, WavelengthStop, outputs)
	sigma := (WavelengthStop - WavelengthStart) / float64(inputs)

	weights := make([][]float64, outputs)
	for j, wl := range grid {
		row := make([]float64, inputs)
		for i, c := range centres {
			d := (wl - c) / sigma
			row[i] = math.Exp(-0.5*d*d) / 255
		}
		weights[j] = row
	}
	return LinearParams{Weights: weights, Wavelengths: grid}
}

// Linear is a Model evaluating LinearParams, read from a YAML file or given
// directly.
type Linear struct {
	path string

	mu     sync.RWMutex
	params *LinearParams
	loaded bool
}

// NewLinear creates a model loading its parameters from a YAML file.
func NewLinear(path string) *Linear {
	return &Linear{path: path}
}

// NewLinearFromParams creates a model from in-memory parameters. Load still
// has to be called.
func NewLinearFromParams(p LinearParams) *Linear {
	return &Linear{params: &p}
}

// Load implements Model.
func (m *Linear) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.params
	if m.path != "" {
		data, err := os.ReadFile(m.path)
		if err != nil {
			return &LoadError{Path: m.path, Err: err}
		}
		var fromFile LinearParams
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return &LoadError{Path: m.path, Err: err}
		}
		p = &fromFile
	}
	if p == nil {
		return &LoadError{Err: errors.New("no parameters")}
	}
	if err := p.Check(); err != nil {
		return &LoadError{Path: m.path, Err: err}
	}
	if len(p.Wavelengths) == 0 {
		p.Wavelengths = spectrum.Linspace(WavelengthStart, WavelengthStop, len(p.Weights))
	}
	m.params = p
	m.loaded = true
	return nil
}

// Predict implements Model.
func (m *Linear) Predict(ctx context.Context, v features.Vector) (*spectrum.Prediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.loaded {
		return nil, ErrNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return nil, &InferenceError{Err: err}
	}

	p := m.params
	in := len(p.Weights[0])
	if len(v) != in {
		return nil, DimensionError(in, len(v))
	}
	x, err := p.Standardization.Apply(v)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(p.Weights))
	for j, row := range p.Weights {
		sum := 0.0
		if len(p.Bias) > 0 {
			sum = p.Bias[j]
		}
		for i, w := range row {
			sum += w * x[i]
		}
		out[j] = sum
	}
	wl := make([]float64, len(p.Wavelengths))
	copy(wl, p.Wavelengths)
	return &spectrum.Prediction{Wavelengths: wl, Intensities: out}, nil
}

// Info implements Describer.
func (m *Linear) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info := Info{Kind: "linear", Source: m.path}
	if m.params != nil && len(m.params.Weights) > 0 {
		info.InputDim = len(m.params.Weights[0])
		info.OutputDim = len(m.params.Weights)
		info.Normalized = m.params.Standardization.Dim() > 0
	}
	return info
}
