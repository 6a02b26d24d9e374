package kmeans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(n int) []Vector {
	data := make([]Vector, n)
	for i := range data {
		data[i] = Vector{float64(i % 256), float64((i * 7) % 256), float64((i * 13) % 256)}
	}
	return data
}

func TestInitCentroidsEmpty(t *testing.T) {
	for _, init := range []Initializer{KMeansPlusPlus, Random} {
		assert.Empty(t, initCentroids(nil, 3, init, Seed(1)))
	}
}

func TestInitCentroidsSeeded(t *testing.T) {
	data := gradient(500)
	for _, init := range []Initializer{KMeansPlusPlus, Random} {
		t.Run(init.String(), func(t *testing.T) {
			a := initCentroids(data, 8, init, Seed(42))
			b := initCentroids(data, 8, init, Seed(42))
			c := initCentroids(data, 8, init, Seed(43))

			require.Len(t, a, 8)
			assert.Equal(t, a, b)
			assert.NotEqual(t, a, c)
		})
	}
}

func TestInitCentroidsAreDataPoints(t *testing.T) {
	data := gradient(200)
	members := make(map[Vector]bool, len(data))
	for _, p := range data {
		members[p] = true
	}
	for _, init := range []Initializer{KMeansPlusPlus, Random} {
		for _, c := range initCentroids(data, 10, init, nil) {
			assert.True(t, members[c], "%v is not a data point", c)
		}
	}
}

func TestPlusPlusPicksDistinctColors(t *testing.T) {
	// Heavy duplication of one color must not produce duplicate seeds.
	data := make([]Vector, 0, 103)
	for range 100 {
		data = append(data, Vector{10, 10, 10})
	}
	data = append(data, Vector{200, 0, 0}, Vector{0, 200, 0}, Vector{0, 0, 200})

	for seed := range uint64(20) {
		centroids := initCentroids(data, 4, KMeansPlusPlus, Seed(seed))
		assert.Equal(t, 4, DistinctColors(centroids), "seed %d", seed)
	}
}

func TestRandomWithoutReplacement(t *testing.T) {
	data := []Vector{{1}, {2}, {3}, {4}, {5}}
	for seed := range uint64(20) {
		centroids := initCentroids(data, 5, Random, Seed(seed))
		assert.Equal(t, 5, DistinctColors(centroids), "seed %d", seed)
	}
}
