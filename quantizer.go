package colorcrunch

import (
	"context"
	"fmt"

	"colorcrunch/internal/imageproc"
	"colorcrunch/internal/kmeans"
)

// PaletteEntry is one palette color with its share of the sampled pixels.
type PaletteEntry = imageproc.PaletteEntry

// Palette is ordered by proportion, largest first.
type Palette []PaletteEntry

// Quantizer reduces interleaved pixel buffers to at most MaxColors colors.
// It is safe for concurrent use; clusterings run one at a time.
type Quantizer struct {
	opts   options
	logger *Logger
	engine kmeans.Engine
}

// New creates a Quantizer. The engine for the configured algorithm is created
// up front, so unsupported algorithms and invalid settings fail here.
func New(opts ...Option) (*Quantizer, error) {
	return NewContext(context.Background(), opts...)
}

// NewContext is New with a context used while acquiring the compute device.
func NewContext(ctx context.Context, opts ...Option) (*Quantizer, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	if o.channels != 3 && o.channels != 4 {
		return nil, fmt.Errorf("%w: channels must be 3 or 4, got %d", ErrInvalidConfig, o.channels)
	}
	if o.stride < 1 {
		return nil, fmt.Errorf("%w: sample rate must be at least 1, got %d", ErrInvalidConfig, o.stride)
	}

	engine, err := kmeans.NewContext(ctx, o.cfg, kmeans.WithLogger(o.logger.Logger))
	if err != nil {
		return nil, err
	}
	return &Quantizer{
		opts:   o,
		logger: o.logger.WithAlgorithm(o.cfg.Algorithm),
		engine: engine,
	}, nil
}

// MaxColors returns the palette size.
func (q *Quantizer) MaxColors() int { return q.opts.cfg.K }

// Channels returns the number of channels per pixel.
func (q *Quantizer) Channels() int { return q.opts.channels }

// Close releases the engine.
func (q *Quantizer) Close() error { return q.engine.Close() }

// QuantizeImage returns a copy of pixels using at most MaxColors colors.
//
// When the sampled pixels already hold no more than MaxColors distinct
// colors the copy is byte-identical to the input. Otherwise every pixel is
// replaced by its nearest centroid and any alpha channel is kept.
func (q *Quantizer) QuantizeImage(ctx context.Context, pixels []byte) ([]byte, error) {
	n := len(pixels) / q.opts.channels
	c, err := q.cluster(ctx, pixels)
	if err != nil {
		q.logger.LogQuantize(ctx, n, 0, err)
		return nil, err
	}
	q.logger.LogQuantize(ctx, n, c.colors(), nil)
	return q.remap(pixels, c), nil
}

// Palette returns up to MaxColors representative colors of the sampled
// pixels. If the image already fits the budget its distinct colors are the
// palette.
func (q *Quantizer) Palette(ctx context.Context, pixels []byte) (Palette, error) {
	n := len(pixels) / q.opts.channels
	c, err := q.cluster(ctx, pixels)
	if err != nil {
		q.logger.LogPalette(ctx, n, 0, err)
		return nil, err
	}
	p := c.palette()
	q.logger.LogPalette(ctx, n, len(p), nil)
	return p, nil
}

// QuantizeWithPalette is QuantizeImage and Palette from a single clustering,
// so every color of the returned image appears in the palette.
func (q *Quantizer) QuantizeWithPalette(ctx context.Context, pixels []byte) ([]byte, Palette, error) {
	n := len(pixels) / q.opts.channels
	c, err := q.cluster(ctx, pixels)
	if err != nil {
		q.logger.LogQuantize(ctx, n, 0, err)
		return nil, nil, err
	}
	q.logger.LogQuantize(ctx, n, c.colors(), nil)
	return q.remap(pixels, c), c.palette(), nil
}

// clustering is the outcome of sampling an image and, when it exceeds the
// color budget, running the engine on the sample.
type clustering struct {
	sample    []kmeans.Vector
	centroids []kmeans.Vector
	clustered bool
}

// colors returns the number of palette colors applied to the image, zero
// when the image is left unchanged.
func (c clustering) colors() int {
	if !c.clustered {
		return 0
	}
	return len(c.centroids)
}

func (c clustering) palette() Palette {
	return Palette(imageproc.AnalyzePalette(c.sample, c.centroids))
}

func (q *Quantizer) cluster(ctx context.Context, pixels []byte) (clustering, error) {
	sample, err := q.sample(pixels)
	if err != nil {
		return clustering{}, err
	}

	unique := imageproc.UniqueColors(sample)
	if len(unique) <= q.opts.cfg.K {
		return clustering{sample: sample, centroids: unique}, nil
	}

	res, err := q.engine.RunContext(ctx, sample)
	if err != nil {
		return clustering{}, err
	}
	return clustering{sample: sample, centroids: res.Centroids, clustered: true}, nil
}

func (q *Quantizer) remap(pixels []byte, c clustering) []byte {
	if !c.clustered {
		return append([]byte(nil), pixels...)
	}
	return imageproc.Remap(pixels, q.opts.channels, c.centroids, q.opts.workers)
}

func (q *Quantizer) sample(pixels []byte) ([]kmeans.Vector, error) {
	if err := imageproc.CheckLayout(pixels, q.opts.channels); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return imageproc.Sample(pixels, q.opts.channels, q.opts.stride), nil
}

// Hex returns the palette colors as hex strings in palette order.
func (p Palette) Hex() []string {
	out := make([]string, len(p))
	for i, e := range p {
		out[i] = e.Hex
	}
	return out
}
