package features

import (
	"fmt"
	"math"

	"github.com/teslashibe/go-spectro/pkg/roi"
)

// Normalizer divides every feature by a calibrated background level so the
// model sees values relative to the reference illumination.
type Normalizer struct {
	background float64
}

// NewNormalizer builds a normalizer from a background reference.
func NewNormalizer(bg roi.Background) (*Normalizer, error) {
	if bg.Value <= 0 || math.IsNaN(bg.Value) || math.IsInf(bg.Value, 0) {
		return nil, fmt.Errorf("features: background value must be positive and finite, got %v", bg.Value)
	}
	return &Normalizer{background: bg.Value}, nil
}

// Background returns the divisor.
func (n *Normalizer) Background() float64 {
	return n.background
}

// Apply returns a normalized copy of v. A nil normalizer returns a copy.
func (n *Normalizer) Apply(v Vector) Vector {
	out := v.Clone()
	if n == nil {
		return out
	}
	for i := range out {
		out[i] /= n.background
	}
	return out
}
