package model

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kshedden/gonpy"
)

// stdEpsilon keeps near-constant inputs from dividing by zero.
const stdEpsilon = 1e-6

// Standardization maps x to (x - mean) / (std + 1e-6) per component.
type Standardization struct {
	Mean []float64 `yaml:"mean"`
	Std  []float64 `yaml:"std"`
}

// Dim returns the input dimension, or 0 for the identity.
func (s Standardization) Dim() int { return len(s.Mean) }

// Check verifies that mean and std agree in length.
func (s Standardization) Check() error {
	if len(s.Mean) != len(s.Std) {
		return fmt.Errorf("mean has %d values, std has %d", len(s.Mean), len(s.Std))
	}
	return nil
}

// Apply returns the standardised copy of v. The zero Standardization is the
// identity.
func (s Standardization) Apply(v []float64) ([]float64, error) {
	out := make([]float64, len(v))
	if s.Dim() == 0 {
		copy(out, v)
		return out, nil
	}
	if len(v) != s.Dim() {
		return nil, DimensionError(s.Dim(), len(v))
	}
	for i, x := range v {
		out[i] = (x - s.Mean[i]) / (s.Std[i] + stdEpsilon)
	}
	return out, nil
}

// LoadStandardization reads MeanFile and StdFile from dir.
func LoadStandardization(dir string) (Standardization, error) {
	mean, err := ReadNPY(filepath.Join(dir, MeanFile))
	if err != nil {
		return Standardization{}, err
	}
	std, err := ReadNPY(filepath.Join(dir, StdFile))
	if err != nil {
		return Standardization{}, err
	}
	s := Standardization{Mean: mean, Std: std}
	if err := s.Check(); err != nil {
		return Standardization{}, err
	}
	return s, nil
}

// ReadNPY reads a one-dimensional float32 or float64 .npy array.
func ReadNPY(path string) ([]float64, error) {
	r, err := gonpy.NewFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(r.Shape) > 1 {
		n := 1
		for _, d := range r.Shape {
			n *= d
		}
		if n != r.Shape[len(r.Shape)-1] {
			return nil, fmt.Errorf("read %s: expected a vector, got shape %v", filepath.Base(path), r.Shape)
		}
	}

	switch strings.TrimLeft(r.Dtype, "<>|=") {
	case "f8":
		return r.GetFloat64()
	case "f4":
		v, err := r.GetFloat32()
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	}
	return nil, fmt.Errorf("read %s: unsupported dtype %q", filepath.Base(path), r.Dtype)
}
