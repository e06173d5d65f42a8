package wde

import "errors"

var (
	// ErrDimensionMismatch indicates the sample matrix does not match the
	// basis dimensionality.
	ErrDimensionMismatch = errors.New("wde: sample dimensionality does not match basis")
	// ErrInsufficientSamples indicates a neighbor query needs more samples
	// than are available (k must be at most n-2).
	ErrInsufficientSamples = errors.New("wde: not enough samples for neighbor query")
	// ErrInvalidConfig indicates an invalid or unknown configuration value.
	ErrInvalidConfig = errors.New("wde: invalid configuration")
	// ErrDegenerateNorm indicates the coefficient set produced a
	// non-positive normalization constant; the fit cannot be normalized.
	ErrDegenerateNorm = errors.New("wde: normalization constant is not positive")
)
