// Package features reduces a captured frame to one mean luminance value per
// region of interest.
//
// Luminance rule: single-channel images use the stored value. Three and four
// channel images are read as B, G, R[, A] and reduced per pixel with the
// ITU-R BT.601 weights 0.299 R + 0.587 G + 0.114 B, with no intermediate
// rounding. Alpha is ignored. The rule is fixed for all calls.
package features

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-spectro/pkg/frame"
	"github.com/teslashibe/go-spectro/pkg/roi"
)

// BT.601 luma weights.
const (
	WeightR = 0.299
	WeightG = 0.587
	WeightB = 0.114
)

// Vector holds one mean per ROI, in ROI set order.
type Vector []float64

// Clone returns a copy of the vector.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// FeatureError reports that a vector could not be computed.
type FeatureError struct {
	ROI string
	Err error
}

// Error implements the error interface.
func (e *FeatureError) Error() string {
	if e.ROI != "" {
		return fmt.Sprintf("features [%s]: %v", e.ROI, e.Err)
	}
	return fmt.Sprintf("features: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *FeatureError) Unwrap() error {
	return e.Err
}

// ErrEmptySet is returned when there are no regions to average.
var ErrEmptySet = errors.New("empty ROI set")

// Compute returns the mean luminance of every region in set, in order.
// Regions outside the image are an error, never clamped or skipped.
func Compute(img *frame.Image, set roi.Set) (Vector, error) {
	if err := img.Check(); err != nil {
		return nil, &FeatureError{Err: err}
	}
	if set.Len() == 0 {
		return nil, &FeatureError{Err: ErrEmptySet}
	}
	if err := roi.Validate(set, img.Width, img.Height); err != nil {
		var cfgErr *roi.ConfigError
		name := ""
		if errors.As(err, &cfgErr) {
			name = cfgErr.ROI
		}
		return nil, &FeatureError{ROI: name, Err: err}
	}

	out := make(Vector, set.Len())
	for i := 0; i < set.Len(); i++ {
		out[i] = Mean(img, set.At(i))
	}
	return out, nil
}

// Mean returns the mean luminance over d. The caller guarantees d lies
// within img.
func Mean(img *frame.Image, d roi.Definition) float64 {
	var total float64
	for y := d.Y; y < d.Y+d.H; y++ {
		// Per-row partial sums keep the running total well conditioned on
		// large regions.
		var row float64
		off := img.Offset(d.X, y)
		for x := 0; x < d.W; x++ {
			row += luminance(img.Pix[off:off+img.Channels], img.Channels)
			off += img.Channels
		}
		total += row
	}
	return total / float64(d.Area())
}

func luminance(px []byte, channels int) float64 {
	if channels == 1 {
		return float64(px[0])
	}
	return WeightB*float64(px[0]) + WeightG*float64(px[1]) + WeightR*float64(px[2])
}
