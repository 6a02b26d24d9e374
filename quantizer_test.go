package colorcrunch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testImage builds n pixels around three base colors with a small jitter.
func testImage(n, channels int) []byte {
	base := [][3]byte{{20, 20, 20}, {120, 60, 200}, {240, 240, 10}}
	pixels := make([]byte, 0, n*channels)
	for i := range n {
		c := base[i%len(base)]
		j := byte((i * 7) % 9)
		pixels = append(pixels, c[0]+j, c[1]+j/2, c[2]+j/3)
		if channels == 4 {
			pixels = append(pixels, byte(i%256))
		}
	}
	return pixels
}

func colorSet(pixels []byte, channels int) map[[3]byte]struct{} {
	set := make(map[[3]byte]struct{})
	for i := 0; i+channels <= len(pixels); i += channels {
		set[[3]byte{pixels[i], pixels[i+1], pixels[i+2]}] = struct{}{}
	}
	return set
}

func newQuantizer(t *testing.T, opts ...Option) *Quantizer {
	t.Helper()
	q, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestNewDefaults(t *testing.T) {
	q := newQuantizer(t)
	assert.Equal(t, DefaultConfig().K, q.MaxColors())
	assert.Equal(t, 3, q.Channels())
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"channels", []Option{WithChannels(2)}},
		{"sample rate", []Option{WithSampleRate(0)}},
		{"zero colors", []Option{WithMaxColors(0)}},
		{"iterations", []Option{WithMaxIterations(0)}},
		{"tolerance", []Option{WithTolerance(-1)}},
		{"algorithm", []Option{WithAlgorithm(Algorithm(42))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestQuantizeWithinBudget(t *testing.T) {
	pixels := []byte{
		10, 20, 30, 255,
		10, 20, 30, 0,
		200, 100, 50, 128,
		200, 100, 50, 7,
	}
	q := newQuantizer(t, WithMaxColors(2), WithChannels(4))

	out, err := q.QuantizeImage(context.Background(), pixels)
	require.NoError(t, err)
	assert.Equal(t, pixels, out)

	out[0] = 99
	assert.Equal(t, byte(10), pixels[0], "result is a copy")
}

func TestQuantizeImage(t *testing.T) {
	for _, channels := range []int{3, 4} {
		pixels := testImage(900, channels)
		q := newQuantizer(t, WithMaxColors(3), WithChannels(channels), WithSeed(11), WithWorkers(3))

		out, err := q.QuantizeImage(context.Background(), pixels)
		require.NoError(t, err)
		require.Len(t, out, len(pixels))
		assert.LessOrEqual(t, len(colorSet(out, channels)), 3)

		if channels == 4 {
			for i := 3; i < len(pixels); i += 4 {
				require.Equal(t, pixels[i], out[i], "alpha at %d", i)
			}
		}

		again, err := q.QuantizeImage(context.Background(), out)
		require.NoError(t, err)
		assert.Equal(t, out, again)
	}
}

func TestQuantizeSampleRate(t *testing.T) {
	// Even pixels use two colors, odd pixels are all different.
	var pixels []byte
	for i := range 64 {
		if i%2 == 0 {
			pixels = append(pixels, byte(i%4*50), 0, 0)
		} else {
			pixels = append(pixels, byte(i), byte(i*3), 255)
		}
	}

	sampled := newQuantizer(t, WithMaxColors(2), WithSampleRate(2))
	out, err := sampled.QuantizeImage(context.Background(), pixels)
	require.NoError(t, err)
	assert.Equal(t, pixels, out, "sampled pixels fit the budget")

	full := newQuantizer(t, WithMaxColors(2), WithSeed(3))
	out, err = full.QuantizeImage(context.Background(), pixels)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(colorSet(out, 3)), 2)
}

func TestQuantizeInvalidInput(t *testing.T) {
	q := newQuantizer(t, WithChannels(4))
	_, err := q.QuantizeImage(context.Background(), make([]byte, 10))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = q.Palette(context.Background(), make([]byte, 5))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestQuantizeEmpty(t *testing.T) {
	q := newQuantizer(t)
	out, err := q.QuantizeImage(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	p, err := q.Palette(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, p)
}

func TestQuantizeAlgorithmsAgree(t *testing.T) {
	pixels := testImage(600, 3)

	var want []byte
	for _, alg := range []Algorithm{Lloyd, Hamerly} {
		q := newQuantizer(t, WithMaxColors(4), WithSeed(5), WithAlgorithm(alg), WithTolerance(1e-4))
		out, err := q.QuantizeImage(context.Background(), pixels)
		require.NoError(t, err)
		if want == nil {
			want = out
			continue
		}
		assert.Equal(t, want, out, alg.String())
	}
}

func TestPalette(t *testing.T) {
	pixels := testImage(900, 4)
	q := newQuantizer(t, WithMaxColors(3), WithChannels(4), WithSeed(11))

	p, err := q.Palette(context.Background(), pixels)
	require.NoError(t, err)
	require.Len(t, p, 3)

	var sum float64
	for i, e := range p {
		sum += e.Proportion
		if i > 0 {
			assert.GreaterOrEqual(t, p[i-1].Proportion, e.Proportion)
		}
		assert.Len(t, e.Hex, 7)
	}
	assert.InDelta(t, 1, sum, 1e-9)
	assert.Len(t, p.Hex(), 3)

	// The palette comes from the same seeded clustering as the quantized image.
	out, err := q.QuantizeImage(context.Background(), pixels)
	require.NoError(t, err)
	colors := make(map[[3]byte]struct{})
	for _, e := range p {
		colors[e.Color] = struct{}{}
	}
	for c := range colorSet(out, 4) {
		assert.Contains(t, colors, c)
	}
}

func TestPaletteWithinBudget(t *testing.T) {
	pixels := []byte{
		255, 0, 0,
		0, 0, 255,
		0, 0, 255,
		0, 0, 255,
	}
	q := newQuantizer(t, WithMaxColors(8))

	p, err := q.Palette(context.Background(), pixels)
	require.NoError(t, err)
	require.Len(t, p, 2)
	assert.Equal(t, "#0000ff", p[0].Hex)
	assert.InDelta(t, 0.75, p[0].Proportion, 1e-9)
	assert.Equal(t, [3]uint8{255, 0, 0}, p[1].Color)
}

func TestQuantizeClosed(t *testing.T) {
	q, err := New(WithMaxColors(2))
	require.NoError(t, err)
	require.NoError(t, q.Close())

	_, err = q.QuantizeImage(context.Background(), testImage(30, 3))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestQuantizeLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	q := newQuantizer(t, WithMaxColors(2), WithSeed(1), WithLogger(logger))

	_, err := q.QuantizeImage(context.Background(), testImage(30, 3))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "quantize completed")
	assert.Contains(t, buf.String(), "kmeans run completed")
	assert.Contains(t, buf.String(), "algorithm=lloyd")

	buf.Reset()
	_, err = q.QuantizeImage(context.Background(), make([]byte, 4))
	require.Error(t, err)
	assert.Contains(t, buf.String(), "quantize failed")
}

func TestNewEngine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 3
	cfg.Seed = new(uint64)

	e, err := NewEngine(context.Background(), cfg, NoopLogger())
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Run([]Vector{{1, 1, 1}, {2, 2, 2}, {1, 1, 1}})
	var tooFew *TooFewColorsError
	require.True(t, errors.As(err, &tooFew))
	assert.Equal(t, 2, tooFew.Distinct)
	assert.Contains(t, err.Error(), "2")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	res, err := e.Run([]Vector{{1, 1, 1}, {2, 2, 2}, {9, 9, 9}, {9, 9, 8}})
	require.NoError(t, err)
	assert.Len(t, res.Assignments, 4)
	assert.Len(t, res.Centroids, 3)
}

func TestParseNames(t *testing.T) {
	a, err := ParseAlgorithm("accelerated")
	require.NoError(t, err)
	assert.Equal(t, Hamerly, a)

	i, err := ParseInitializer("random")
	require.NoError(t, err)
	assert.Equal(t, Random, i)
}

func TestQuantizeWithPaletteSharesClustering(t *testing.T) {
	pixels := testImage(900, 4)
	// No seed: separate clusterings could start from different centroids.
	q := newQuantizer(t, WithMaxColors(4), WithChannels(4), WithInitializer(Random))

	for range 5 {
		out, p, err := q.QuantizeWithPalette(context.Background(), pixels)
		require.NoError(t, err)
		require.Len(t, out, len(pixels))
		require.Len(t, p, 4)

		colors := make(map[[3]byte]struct{})
		for _, e := range p {
			colors[e.Color] = struct{}{}
		}
		for c := range colorSet(out, 4) {
			require.Contains(t, colors, c)
		}
	}
}

func TestQuantizeWithPaletteMatchesSeparateCalls(t *testing.T) {
	pixels := testImage(600, 3)
	q := newQuantizer(t, WithMaxColors(3), WithSeed(4))

	out, p, err := q.QuantizeWithPalette(context.Background(), pixels)
	require.NoError(t, err)

	wantOut, err := q.QuantizeImage(context.Background(), pixels)
	require.NoError(t, err)
	wantPalette, err := q.Palette(context.Background(), pixels)
	require.NoError(t, err)

	assert.Equal(t, wantOut, out)
	assert.Equal(t, wantPalette, p)

	small := []byte{1, 2, 3, 1, 2, 3, 9, 9, 9}
	out, p, err = q.QuantizeWithPalette(context.Background(), small)
	require.NoError(t, err)
	assert.Equal(t, small, out)
	require.Len(t, p, 2)
	assert.InDelta(t, 2.0/3, p[0].Proportion, 1e-9)

	_, _, err = q.QuantizeWithPalette(context.Background(), make([]byte, 4))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
