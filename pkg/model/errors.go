package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNotLoaded is returned by Predict before a successful Load.
	ErrNotLoaded = errors.New("model: not loaded")

	// ErrDimension is returned when the feature vector length does not
	// match the model input.
	ErrDimension = errors.New("model: input dimension mismatch")
)

// LoadError reports a model that could not be loaded.
type LoadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("model load: %v", e.Err)
	}
	return fmt.Sprintf("model load %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// InferenceError reports a failed prediction.
type InferenceError struct {
	Err error
}

// Error implements the error interface.
func (e *InferenceError) Error() string {
	return fmt.Sprintf("model inference: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *InferenceError) Unwrap() error {
	return e.Err
}

// DimensionError returns an InferenceError wrapping ErrDimension.
func DimensionError(want, got int) error {
	return &InferenceError{Err: fmt.Errorf("%w: expected %d, got %d", ErrDimension, want, got)}
}
