// Package spectrum defines the model output rendered on the display and the
// checks that keep malformed predictions away from it.
package spectrum

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Prediction is a sampled spectrum.
type Prediction struct {
	Wavelengths []float64 `json:"wavelengths"`
	Intensities []float64 `json:"intensities"`
}

// Len returns the number of samples.
func (p *Prediction) Len() int {
	return len(p.Wavelengths)
}

// Clone returns a deep copy.
func (p *Prediction) Clone() *Prediction {
	if p == nil {
		return nil
	}
	w := make([]float64, len(p.Wavelengths))
	copy(w, p.Wavelengths)
	i := make([]float64, len(p.Intensities))
	copy(i, p.Intensities)
	return &Prediction{Wavelengths: w, Intensities: i}
}

// Peak returns the wavelength and value of the highest intensity sample.
func (p *Prediction) Peak() (wavelength, intensity float64) {
	if p.Len() == 0 {
		return 0, 0
	}
	best := 0
	for i, v := range p.Intensities {
		if v > p.Intensities[best] {
			best = i
		}
	}
	return p.Wavelengths[best], p.Intensities[best]
}

// Range returns min and max intensity.
func (p *Prediction) Range() (lo, hi float64) {
	if len(p.Intensities) == 0 {
		return 0, 0
	}
	lo, hi = p.Intensities[0], p.Intensities[0]
	for _, v := range p.Intensities[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// OutputError reports a prediction that violates the output contract.
type OutputError struct {
	Reason string
	Index  int
}

// Error implements the error interface.
func (e *OutputError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("model output: %s (index %d)", e.Reason, e.Index)
	}
	return "model output: " + e.Reason
}

// Validate checks: non-nil, equal non-zero lengths, finite values and
// strictly increasing wavelengths.
func Validate(p *Prediction) error {
	if p == nil {
		return &OutputError{Reason: "nil prediction", Index: -1}
	}
	if len(p.Wavelengths) == 0 || len(p.Intensities) == 0 {
		return &OutputError{Reason: "empty prediction", Index: -1}
	}
	if len(p.Wavelengths) != len(p.Intensities) {
		return &OutputError{
			Reason: fmt.Sprintf("length mismatch: %d wavelengths, %d intensities", len(p.Wavelengths), len(p.Intensities)),
			Index:  -1,
		}
	}
	for i, w := range p.Wavelengths {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return &OutputError{Reason: "non-finite wavelength", Index: i}
		}
		if i > 0 && w <= p.Wavelengths[i-1] {
			return &OutputError{Reason: "wavelengths not strictly increasing", Index: i}
		}
	}
	for i, v := range p.Intensities {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &OutputError{Reason: "non-finite intensity", Index: i}
		}
	}
	return nil
}

// Fingerprint returns a stable 64-bit hash of the prediction as hex, used to
// compare outputs across telemetry records.
func Fingerprint(p *Prediction) string {
	if p == nil {
		return ""
	}
	h := xxhash.New()
	var buf [8]byte
	for _, series := range [][]float64{p.Wavelengths, p.Intensities} {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(series)))
		h.Write(buf[:])
		for _, v := range series {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Linspace returns n evenly spaced values from start to stop inclusive.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	out[n-1] = stop
	return out
}
