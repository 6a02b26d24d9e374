package kmeans

import (
	"context"
	"log/slog"
	"sync"

	"colorcrunch/internal/compute"
)

// Result is the outcome of a run. Assignments index into Centroids.
type Result struct {
	Assignments []int
	Centroids   []Vector
	Iterations  int
	Converged   bool
}

// Engine runs one clustering at a time. Concurrent calls are serialized.
type Engine interface {
	// Run blocks until the clustering finishes. Channel values must be finite
	// and max|channel| * len(data) must stay below 2^39, or Run fails with
	// ErrInvalidConfig.
	Run(data []Vector) (Result, error)
	// RunContext is Run with a context. Parallel engines suspend on ctx while
	// waiting for device readbacks and return ctx.Err() if it ends first.
	RunContext(ctx context.Context, data []Vector) (Result, error)
	// Close releases device resources. The engine must not be used afterwards.
	Close() error
}

type options struct {
	logger *slog.Logger
	limits compute.Limits
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the logger for the engine. Nil discards output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDeviceLimits sets the compute device limits used by parallel algorithms.
func WithDeviceLimits(l compute.Limits) Option {
	return func(o *options) {
		o.limits = l
	}
}

// New validates cfg and returns the engine selected by cfg.Algorithm.
func New(cfg Config, opts ...Option) (Engine, error) {
	return NewContext(context.Background(), cfg, opts...)
}

// NewContext is New with a context used while acquiring the compute device.
func NewContext(ctx context.Context, cfg Config, opts ...Option) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	if cfg.Algorithm.Parallel() {
		return newParallelEngine(ctx, cfg, o)
	}
	return &cpuEngine{cfg: cfg, logger: o.logger}, nil
}

// cpuEngine runs Lloyd or Hamerly synchronously on the calling goroutine.
type cpuEngine struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

func (e *cpuEngine) Run(data []Vector) (Result, error) {
	return e.RunContext(context.Background(), data)
}

func (e *cpuEngine) RunContext(ctx context.Context, data []Vector) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Result{}, ErrClosed
	}

	centroids, err := seed(e.cfg, data)
	if err != nil {
		logRunError(ctx, e.logger, e.cfg, len(data), err)
		return Result{}, err
	}
	if len(data) == 0 {
		return emptyResult(), nil
	}

	var res Result
	if e.cfg.Algorithm == Hamerly {
		var pruned int
		res, pruned = hamerly(data, centroids, e.cfg)
		e.logger.DebugContext(ctx, "hamerly bounds", "pruned", pruned, "points", len(data), "iterations", res.Iterations)
	} else {
		res = lloyd(data, centroids, e.cfg)
	}
	logRun(ctx, e.logger, e.cfg, len(data), res)
	return res, nil
}

func (e *cpuEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// seed checks the input range and the distinct-color precondition and returns
// the starting centroids. Empty data is not an error and yields no centroids.
func seed(cfg Config, data []Vector) ([]Vector, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if err := checkRange(data); err != nil {
		return nil, err
	}
	if distinct := DistinctColors(data); distinct < cfg.K {
		return nil, &TooFewColorsError{Distinct: distinct, K: cfg.K}
	}
	return initCentroids(data, cfg.K, cfg.Initializer, cfg.Seed), nil
}

func emptyResult() Result {
	return Result{Assignments: []int{}, Centroids: []Vector{}}
}

func logRun(ctx context.Context, l *slog.Logger, cfg Config, n int, res Result) {
	l.DebugContext(ctx, "kmeans run completed",
		"algorithm", cfg.Algorithm.String(),
		"initializer", cfg.Initializer.String(),
		"k", cfg.K,
		"points", n,
		"iterations", res.Iterations,
		"converged", res.Converged,
	)
}

func logRunError(ctx context.Context, l *slog.Logger, cfg Config, n int, err error) {
	l.ErrorContext(ctx, "kmeans run failed",
		"algorithm", cfg.Algorithm.String(),
		"k", cfg.K,
		"points", n,
		"error", err,
	)
}
