package colorcrunch

import (
	"context"

	"colorcrunch/internal/kmeans"
)

type (
	// Vector is a color with one coordinate per channel. Unused channels are zero.
	Vector = kmeans.Vector
	// Config selects and tunes an engine.
	Config = kmeans.Config
	// Result holds the assignments and centroids of a run.
	Result = kmeans.Result
	// Engine runs k-means clusterings.
	Engine = kmeans.Engine
	// Algorithm selects the engine backend.
	Algorithm = kmeans.Algorithm
	// Initializer selects how starting centroids are chosen.
	Initializer = kmeans.Initializer
)

// Algorithms and initializers.
const (
	Lloyd               = kmeans.Lloyd
	Hamerly             = kmeans.Hamerly
	ParallelAggregates  = kmeans.ParallelAggregates
	ParallelAssignments = kmeans.ParallelAssignments
	ParallelCentroids   = kmeans.ParallelCentroids

	KMeansPlusPlus = kmeans.KMeansPlusPlus
	Random         = kmeans.Random
)

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config { return kmeans.DefaultConfig() }

// ParseAlgorithm parses an algorithm name such as "hamerly" or "parallel-a".
func ParseAlgorithm(s string) (Algorithm, error) { return kmeans.ParseAlgorithm(s) }

// ParseInitializer parses an initializer name such as "kmeans++" or "random".
func ParseInitializer(s string) (Initializer, error) { return kmeans.ParseInitializer(s) }

// NewEngine validates cfg and returns the engine for cfg.Algorithm. A nil
// logger discards output.
func NewEngine(ctx context.Context, cfg Config, logger *Logger) (Engine, error) {
	var opts []kmeans.Option
	if logger != nil {
		opts = append(opts, kmeans.WithLogger(logger.Logger))
	}
	return kmeans.NewContext(ctx, cfg, opts...)
}
