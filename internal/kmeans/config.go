package kmeans

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultK             = 3
	DefaultMaxIterations = 100
	DefaultTolerance     = 1e-2

	// MaxK bounds the number of clusters a single run may request.
	MaxK = 1 << 16
)

// Algorithm selects the clustering backend.
type Algorithm int

const (
	// Lloyd is the baseline full-scan refinement.
	Lloyd Algorithm = iota
	// Hamerly prunes distance computations with per-point and per-cluster bounds.
	Hamerly
	// ParallelAggregates assigns and aggregates on the device; the host reads k aggregates.
	ParallelAggregates
	// ParallelAssignments assigns on the device; the host reads n assignments and aggregates.
	ParallelAssignments
	// ParallelCentroids assigns, aggregates and resolves centroids on the device.
	ParallelCentroids
)

func (a Algorithm) String() string {
	switch a {
	case Lloyd:
		return "lloyd"
	case Hamerly:
		return "hamerly"
	case ParallelAggregates:
		return "parallel-aggregates"
	case ParallelAssignments:
		return "parallel-assignments"
	case ParallelCentroids:
		return "parallel-centroids"
	default:
		return fmt.Sprintf("Unknown(%d)", int(a))
	}
}

// Parallel reports whether a runs on the compute device.
func (a Algorithm) Parallel() bool {
	return a == ParallelAggregates || a == ParallelAssignments || a == ParallelCentroids
}

// ParseAlgorithm maps a name to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lloyd", "baseline":
		return Lloyd, nil
	case "hamerly", "accelerated":
		return Hamerly, nil
	case "parallel-aggregates", "parallel-a":
		return ParallelAggregates, nil
	case "parallel-assignments", "parallel-b":
		return ParallelAssignments, nil
	case "parallel-centroids", "parallel-c":
		return ParallelCentroids, nil
	}
	return 0, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, s)
}

// Initializer selects how starting centroids are seeded.
type Initializer int

const (
	// KMeansPlusPlus draws each centroid with probability proportional to its
	// squared distance from the centroids chosen so far.
	KMeansPlusPlus Initializer = iota
	// Random picks k distinct data points uniformly.
	Random
)

func (i Initializer) String() string {
	switch i {
	case KMeansPlusPlus:
		return "kmeans++"
	case Random:
		return "random"
	default:
		return fmt.Sprintf("Unknown(%d)", int(i))
	}
}

// ParseInitializer maps a name to an Initializer.
func ParseInitializer(s string) (Initializer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kmeans++", "kmeanspp", "probabilistic-weighted":
		return KMeansPlusPlus, nil
	case "random", "uniform-random":
		return Random, nil
	}
	return 0, fmt.Errorf("%w: unknown initializer %q", ErrInvalidConfig, s)
}

// Config is the immutable description of a clustering run.
type Config struct {
	K             int
	MaxIterations int
	// Tolerance is compared against squared centroid displacement as Tolerance².
	Tolerance   float64
	Algorithm   Algorithm
	Initializer Initializer
	// Seed makes initialization reproducible. Nil draws from the runtime entropy source.
	Seed *uint64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		K:             DefaultK,
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
		Algorithm:     Lloyd,
		Initializer:   KMeansPlusPlus,
	}
}

// Seed returns a pointer to v for use in Config.Seed.
func Seed(v uint64) *uint64 { return &v }

// Validate checks the config before any work is done.
func (c Config) Validate() error {
	switch {
	case c.K <= 0:
		return fmt.Errorf("%w: k must be positive, got %d", ErrInvalidConfig, c.K)
	case c.K > MaxK:
		return fmt.Errorf("%w: k must not exceed %d, got %d", ErrInvalidConfig, MaxK, c.K)
	case c.MaxIterations <= 0:
		return fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidConfig, c.MaxIterations)
	case math.IsNaN(c.Tolerance) || c.Tolerance <= 0:
		return fmt.Errorf("%w: tolerance must be positive, got %g", ErrInvalidConfig, c.Tolerance)
	}
	if c.Algorithm < Lloyd || c.Algorithm > ParallelCentroids {
		return fmt.Errorf("%w: unknown algorithm %s", ErrInvalidConfig, c.Algorithm)
	}
	if c.Initializer != KMeansPlusPlus && c.Initializer != Random {
		return fmt.Errorf("%w: unknown initializer %s", ErrInvalidConfig, c.Initializer)
	}
	return nil
}
