// Package model defines the spectrum reconstruction model consumed by the
// prediction step, the shared input standardisation and the simulated
// variants.
package model

import (
	"context"

	"github.com/teslashibe/go-spectro/pkg/features"
	"github.com/teslashibe/go-spectro/pkg/spectrum"
)

// Default asset names inside a model directory.
const (
	MeanFile  = "input_mean.npy"
	StdFile   = "input_std.npy"
	ONNXFile  = "model.onnx"
	ParamFile = "linear.yaml"
)

// Default wavelength grid in nanometres.
const (
	WavelengthStart = 400.0
	WavelengthStop  = 1000.0
)

// Model maps a feature vector to a spectrum.
type Model interface {
	// Load prepares the model. It fails with *LoadError.
	Load(ctx context.Context) error

	// Predict runs inference. It fails with ErrNotLoaded before a
	// successful Load and with *InferenceError otherwise.
	Predict(ctx context.Context, v features.Vector) (*spectrum.Prediction, error)
}

// Info describes a loaded model for diagnostics.
type Info struct {
	Kind       string `json:"kind"`
	Source     string `json:"source"`
	InputDim   int    `json:"input_dim"`
	OutputDim  int    `json:"output_dim"`
	Normalized bool   `json:"normalized"`
}

// Describer is implemented by models that can report Info after Load.
type Describer interface {
	Info() Info
}
