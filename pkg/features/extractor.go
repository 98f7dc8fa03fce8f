package features

import (
	"github.com/teslashibe/go-spectro/pkg/frame"
	"github.com/teslashibe/go-spectro/pkg/roi"
)

// Extractor bundles Compute with an optional background normalization step.
type Extractor struct {
	normalizer *Normalizer
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithNormalizer enables background normalization.
func WithNormalizer(n *Normalizer) Option {
	return func(e *Extractor) { e.normalizer = n }
}

// NewExtractor creates an extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract computes the raw ROI means and returns them normalized.
// raw is returned alongside for telemetry.
func (e *Extractor) Extract(img *frame.Image, set roi.Set) (normalized, raw Vector, err error) {
	raw, err = Compute(img, set)
	if err != nil {
		return nil, nil, err
	}
	if e == nil || e.normalizer == nil {
		return raw, raw, nil
	}
	return e.normalizer.Apply(raw), raw, nil
}
