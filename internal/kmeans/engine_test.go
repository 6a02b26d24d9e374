package kmeans

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(algorithm Algorithm, k int) Config {
	cfg := DefaultConfig()
	cfg.K = k
	cfg.Tolerance = 1e-4
	cfg.Algorithm = algorithm
	cfg.Seed = Seed(7)
	return cfg
}

// randomColors returns n integer-valued colors from a seeded source.
func randomColors(n int, seed uint64) []Vector {
	rng := rand.New(rand.NewPCG(seed, seed))
	data := make([]Vector, n)
	for i := range data {
		data[i] = Vector{float64(rng.IntN(256)), float64(rng.IntN(256)), float64(rng.IntN(256))}
	}
	return data
}

// fractionalColors returns n colors with channels in [0, 1).
func fractionalColors(n int, seed uint64) []Vector {
	rng := rand.New(rand.NewPCG(seed, seed))
	data := make([]Vector, n)
	for i := range data {
		data[i] = Vector{rng.Float64(), rng.Float64(), rng.Float64()}
	}
	return data
}

func runEngine(t *testing.T, cfg Config, data []Vector) (Result, error) {
	t.Helper()
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e.Run(data)
}

func assertInvariants(t *testing.T, res Result, n, k int) {
	t.Helper()
	require.Len(t, res.Assignments, n)
	require.Len(t, res.Centroids, k)
	for i, a := range res.Assignments {
		assert.True(t, a >= 0 && a < k, "assignment %d out of range: %d", i, a)
	}
}

var sequential = []Algorithm{Lloyd, Hamerly}

func TestRunPureColors(t *testing.T) {
	data := []Vector{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}}
	for _, alg := range sequential {
		for _, init := range []Initializer{KMeansPlusPlus, Random} {
			t.Run(alg.String()+"/"+init.String(), func(t *testing.T) {
				cfg := testConfig(alg, 3)
				cfg.Initializer = init
				res, err := runEngine(t, cfg, data)
				require.NoError(t, err)
				assertInvariants(t, res, 3, 3)

				// Every point sits in its own cluster on its own color.
				assert.ElementsMatch(t, []int{0, 1, 2}, res.Assignments)
				for i, p := range data {
					assert.InDelta(t, 0, Distance(p, res.Centroids[res.Assignments[i]]), 1e-8)
				}
			})
		}
	}
}

func TestRunSingleColor(t *testing.T) {
	data := []Vector{{100, 100, 100}, {100, 100, 100}, {100, 100, 100}}
	for _, alg := range sequential {
		t.Run(alg.String(), func(t *testing.T) {
			res, err := runEngine(t, testConfig(alg, 1), data)
			require.NoError(t, err)
			assert.Equal(t, []Vector{{100, 100, 100}}, res.Centroids)
			assert.Equal(t, []int{0, 0, 0}, res.Assignments)
			assert.True(t, res.Converged)
		})
	}
}

func TestRunTooFewColors(t *testing.T) {
	data := []Vector{{255, 0, 0}, {0, 255, 0}}
	for _, alg := range sequential {
		t.Run(alg.String(), func(t *testing.T) {
			res, err := runEngine(t, testConfig(alg, 3), data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "2")
			assert.ErrorIs(t, err, ErrInvalidConfig)

			var tooFew *TooFewColorsError
			require.True(t, errors.As(err, &tooFew))
			assert.Equal(t, 2, tooFew.Distinct)
			assert.Equal(t, 3, tooFew.K)
			assert.Nil(t, res.Assignments)
			assert.Nil(t, res.Centroids)
		})
	}
}

func TestRunRejectsOutOfRangeInput(t *testing.T) {
	data := []Vector{{1, 2, 3}, {math.Inf(1), 0, 0}, {4, 5, 6}}
	for _, alg := range sequential {
		t.Run(alg.String(), func(t *testing.T) {
			_, err := runEngine(t, testConfig(alg, 2), data)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestRunEmpty(t *testing.T) {
	for _, alg := range sequential {
		t.Run(alg.String(), func(t *testing.T) {
			res, err := runEngine(t, testConfig(alg, 4), nil)
			require.NoError(t, err)
			assert.NotNil(t, res.Assignments)
			assert.Empty(t, res.Assignments)
			assert.Empty(t, res.Centroids)
		})
	}
}

func TestRunDeterministic(t *testing.T) {
	data := randomColors(400, 3)
	for _, alg := range sequential {
		t.Run(alg.String(), func(t *testing.T) {
			cfg := testConfig(alg, 6)
			a, err := runEngine(t, cfg, data)
			require.NoError(t, err)
			b, err := runEngine(t, cfg, data)
			require.NoError(t, err)
			assert.Equal(t, a, b)
		})
	}
}

func TestRunSeparatesClusters(t *testing.T) {
	data := []Vector{
		{0, 0, 0}, {1, 1, 1}, {2, 2, 2},
		{100, 100, 100}, {101, 101, 101}, {102, 102, 102},
		{200, 200, 200}, {201, 201, 201}, {202, 202, 202},
	}
	for _, alg := range sequential {
		t.Run(alg.String(), func(t *testing.T) {
			res, err := runEngine(t, testConfig(alg, 3), data)
			require.NoError(t, err)
			a := res.Assignments
			assert.Equal(t, a[0], a[1])
			assert.Equal(t, a[1], a[2])
			assert.Equal(t, a[3], a[4])
			assert.Equal(t, a[4], a[5])
			assert.Equal(t, a[6], a[7])
			assert.Equal(t, a[7], a[8])
			assert.NotEqual(t, a[0], a[3])
			assert.NotEqual(t, a[3], a[6])
			assert.NotEqual(t, a[0], a[6])
		})
	}
}

func TestHamerlyMatchesLloyd(t *testing.T) {
	for _, seed := range []uint64{1, 2, 42} {
		data := randomColors(300, seed)
		for _, k := range []int{2, 5, 16} {
			cfg := testConfig(Lloyd, k)
			cfg.Tolerance = 1e-6
			cfg.MaxIterations = 500
			cfg.Seed = Seed(seed)

			lloydRes, err := runEngine(t, cfg, data)
			require.NoError(t, err)

			cfg.Algorithm = Hamerly
			hamerlyRes, err := runEngine(t, cfg, data)
			require.NoError(t, err)

			assert.Equal(t, lloydRes.Assignments, hamerlyRes.Assignments, "seed %d k %d", seed, k)
			assert.Equal(t, lloydRes.Centroids, hamerlyRes.Centroids, "seed %d k %d", seed, k)
			assert.Equal(t, lloydRes.Iterations, hamerlyRes.Iterations, "seed %d k %d", seed, k)
		}
	}
}

func TestHamerlyPrunes(t *testing.T) {
	data := randomColors(2000, 9)
	cfg := testConfig(Hamerly, 4)
	cfg.Tolerance = 1e-6
	centroids := initCentroids(data, cfg.K, cfg.Initializer, cfg.Seed)

	res, pruned := hamerly(data, centroids, cfg)
	require.Greater(t, res.Iterations, 1)
	assert.Positive(t, pruned)
}

func TestRunIterationCap(t *testing.T) {
	data := randomColors(500, 11)
	for _, alg := range sequential {
		t.Run(alg.String(), func(t *testing.T) {
			cfg := testConfig(alg, 8)
			cfg.MaxIterations = 1
			cfg.Tolerance = 1e-12
			res, err := runEngine(t, cfg, data)
			require.NoError(t, err)
			assert.Equal(t, 1, res.Iterations)
			assertInvariants(t, res, len(data), 8)
		})
	}
}

func TestRunClosed(t *testing.T) {
	e, err := New(testConfig(Lloyd, 1))
	require.NoError(t, err)
	require.NoError(t, e.Close())
	_, err = e.Run([]Vector{{1, 2, 3}})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRunLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e, err := New(testConfig(Hamerly, 2), WithLogger(logger))
	require.NoError(t, err)
	defer e.Close()

	_, err = e.RunContext(context.Background(), []Vector{{0, 0, 0}, {255, 255, 255}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "kmeans run completed")
	assert.Contains(t, buf.String(), `"algorithm":"hamerly"`)

	buf.Reset()
	_, err = e.Run([]Vector{{0, 0, 0}})
	require.Error(t, err)
	assert.Contains(t, buf.String(), "kmeans run failed")
}
