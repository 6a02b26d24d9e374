package kmeans

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when a Config fails validation or the
	// input cannot satisfy it.
	ErrInvalidConfig = errors.New("kmeans: invalid configuration")

	// ErrUnsupportedAlgorithm is returned when the build lacks the backend
	// requested by Config.Algorithm.
	ErrUnsupportedAlgorithm = errors.New("kmeans: algorithm not supported by this build")

	// ErrDevice is returned when the compute device cannot be acquired or a
	// dispatch or buffer mapping fails.
	ErrDevice = errors.New("kmeans: compute device failure")

	// ErrClosed is returned by Run on an engine that has been closed.
	ErrClosed = errors.New("kmeans: engine closed")
)

// TooFewColorsError reports that the input has fewer distinct colors than k.
//
// It matches ErrInvalidConfig via errors.Is.
type TooFewColorsError struct {
	Distinct int
	K        int
}

func (e *TooFewColorsError) Error() string {
	return fmt.Sprintf("kmeans: number of distinct colors is less than k (%d): %d", e.K, e.Distinct)
}

func (e *TooFewColorsError) Unwrap() error { return ErrInvalidConfig }
