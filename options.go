package colorcrunch

import "colorcrunch/internal/kmeans"

type options struct {
	cfg      kmeans.Config
	channels int
	stride   int
	workers  int
	logger   *Logger
}

func defaultOptions() options {
	return options{
		cfg:      kmeans.DefaultConfig(),
		channels: 3,
		stride:   1,
		logger:   NoopLogger(),
	}
}

// Option configures a Quantizer. Later options override earlier ones.
type Option func(*options)

// WithMaxColors sets the palette size k.
func WithMaxColors(n int) Option {
	return func(o *options) {
		o.cfg.K = n
	}
}

// WithChannels sets the number of interleaved channels per pixel, 3 (RGB) or
// 4 (RGBA). The fourth channel is never clustered and is copied through.
func WithChannels(n int) Option {
	return func(o *options) {
		o.channels = n
	}
}

// WithSampleRate clusters every n-th pixel only. Remapping still visits every pixel.
func WithSampleRate(n int) Option {
	return func(o *options) {
		o.stride = n
	}
}

// WithTolerance sets the convergence threshold on centroid movement.
func WithTolerance(tol float64) Option {
	return func(o *options) {
		o.cfg.Tolerance = tol
	}
}

// WithMaxIterations caps the number of iterations.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.cfg.MaxIterations = n
	}
}

// WithAlgorithm selects the engine backend.
func WithAlgorithm(a Algorithm) Option {
	return func(o *options) {
		o.cfg.Algorithm = a
	}
}

// WithInitializer selects the centroid initializer.
func WithInitializer(i Initializer) Option {
	return func(o *options) {
		o.cfg.Initializer = i
	}
}

// WithSeed makes initialization reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.cfg.Seed = kmeans.Seed(seed)
	}
}

// WithLogger sets the logger. Nil disables logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithWorkers sets the number of goroutines used to remap pixels.
// Zero or less uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}
