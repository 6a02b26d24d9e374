package kmeans

import (
	"math/rand/v2"
)

// newRand returns the run's random source. A nil seed draws from the runtime entropy source.
func newRand(seed *uint64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewPCG(*seed, *seed))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// initCentroids seeds k starting centroids from data. Empty data yields no centroids.
func initCentroids(data []Vector, k int, init Initializer, seed *uint64) []Vector {
	if len(data) == 0 || k <= 0 {
		return []Vector{}
	}
	rng := newRand(seed)
	if init == Random {
		return randomCentroids(data, k, rng)
	}
	return plusPlusCentroids(data, k, rng)
}

// randomCentroids samples k data points without replacement.
func randomCentroids(data []Vector, k int, rng *rand.Rand) []Vector {
	n := len(data)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	centroids := make([]Vector, 0, k)
	for i := 0; i < k; i++ {
		if i >= n {
			// More clusters than points: reuse from the start of the shuffled prefix.
			centroids = append(centroids, data[idx[i%n]])
			continue
		}
		j := i + rng.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
		centroids = append(centroids, data[idx[i]])
	}
	return centroids
}

// plusPlusCentroids implements distance-squared seeding.
func plusPlusCentroids(data []Vector, k int, rng *rand.Rand) []Vector {
	centroids := make([]Vector, 0, k)
	centroids = append(centroids, data[rng.IntN(len(data))])

	// dists[i] is the squared distance from point i to its nearest chosen centroid.
	dists := make([]float64, len(data))
	for i, p := range data {
		dists[i] = Distance(p, centroids[0])
	}

	for len(centroids) < k {
		var total float64
		for _, d := range dists {
			total += d
		}
		if total == 0 {
			// Every point coincides with a chosen centroid.
			centroids = append(centroids, centroids[len(centroids)-1])
			continue
		}

		threshold := rng.Float64() * total
		pick := -1
		var cumulative float64
		for i, d := range dists {
			if d == 0 {
				continue
			}
			cumulative += d
			pick = i
			if cumulative >= threshold {
				break
			}
		}

		c := data[pick]
		centroids = append(centroids, c)
		for i, p := range data {
			dists[i] = min(dists[i], Distance(p, c))
		}
	}
	return centroids
}
