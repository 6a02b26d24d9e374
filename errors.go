package colorcrunch

import (
	"errors"

	"colorcrunch/internal/kmeans"
)

var (
	// ErrInvalidInput is returned when a pixel buffer does not match the
	// configured channel layout.
	ErrInvalidInput = errors.New("colorcrunch: invalid input")

	// ErrInvalidConfig is returned for out-of-range settings and when the
	// input has fewer distinct colors than k.
	ErrInvalidConfig = kmeans.ErrInvalidConfig

	// ErrUnsupportedAlgorithm is returned when the build lacks the requested backend.
	ErrUnsupportedAlgorithm = kmeans.ErrUnsupportedAlgorithm

	// ErrDevice is returned for compute device failures.
	ErrDevice = kmeans.ErrDevice

	// ErrClosed is returned after Close.
	ErrClosed = kmeans.ErrClosed
)

// TooFewColorsError reports how many distinct colors the input had.
type TooFewColorsError = kmeans.TooFewColorsError
