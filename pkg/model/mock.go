package model

import (
	"context"

	"github.com/teslashibe/go-spectro/internal/calls"
	"github.com/teslashibe/go-spectro/pkg/features"
	"github.com/teslashibe/go-spectro/pkg/spectrum"
)

// Mock implements Model for testing.
type Mock struct {
	// LoadFunc is called when Load is invoked.
	LoadFunc func(ctx context.Context) error

	// PredictFunc is called when Predict is invoked.
	PredictFunc func(ctx context.Context, v features.Vector) (*spectrum.Prediction, error)

	calls.Log
}

// NewMock creates a mock whose prediction echoes the features as
// intensities over an evenly spaced wavelength grid.
func NewMock() *Mock {
	return &Mock{
		PredictFunc: func(ctx context.Context, v features.Vector) (*spectrum.Prediction, error) {
			return Echo(v), nil
		},
	}
}

// Load calls LoadFunc and records the call.
func (m *Mock) Load(ctx context.Context) error {
	m.Record("Load")
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return nil
}

// Predict calls PredictFunc and records the call with a copy of v.
func (m *Mock) Predict(ctx context.Context, v features.Vector) (*spectrum.Prediction, error) {
	m.Record("Predict", v.Clone())
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, v)
	}
	return nil, ErrNotLoaded
}

// Echo returns v as intensities over linspace(400, 1000, len(v)).
func Echo(v features.Vector) *spectrum.Prediction {
	in := make([]float64, len(v))
	copy(in, v)
	return &spectrum.Prediction{
		Wavelengths: spectrum.Linspace(WavelengthStart, WavelengthStop, len(v)),
		Intensities: in,
	}
}
