package kmeans

import "math"

// hamerly produces the same clustering as lloyd while skipping points whose
// assignment is provably unchanged.
//
// upper[i] never understates the distance from point i to its centroid, and
// half[j] is half the distance from centroid j to its nearest sibling. When
// upper[i] < half[a] no other centroid can be closer than a.
func hamerly(data []Vector, centroids []Vector, cfg Config) (Result, int) {
	n, k := len(data), len(centroids)
	assignments := make([]int, n)
	upper := make([]float64, n)
	half := make([]float64, k)
	res := Result{Assignments: assignments}
	pruned := 0

	for i, p := range data {
		a := NearestCentroid(p, centroids)
		assignments[i] = a
		upper[i] = math.Sqrt(Distance(p, centroids[a]))
	}

	for {
		next := accumulate(data, assignments, centroids)
		res.Iterations++
		res.Converged = Converged(centroids, next, cfg.Tolerance)

		for i, a := range assignments {
			upper[i] += math.Sqrt(Distance(centroids[a], next[a]))
		}
		centroids = next
		if res.Converged || res.Iterations >= cfg.MaxIterations {
			break
		}

		halfDistances(centroids, half)
		for i, p := range data {
			a := assignments[i]
			if upper[i] < half[a] {
				pruned++
				continue
			}
			upper[i] = math.Sqrt(Distance(p, centroids[a]))
			if upper[i] < half[a] {
				pruned++
				continue
			}
			if b := NearestCentroid(p, centroids); b != a {
				assignments[i] = b
				upper[i] = math.Sqrt(Distance(p, centroids[b]))
			}
		}
	}

	res.Centroids = centroids
	return res, pruned
}

// halfDistances sets half[j] to half the distance from centroid j to its
// nearest sibling, or +Inf for a single centroid.
func halfDistances(centroids []Vector, half []float64) {
	for j := range half {
		half[j] = math.Inf(1)
	}
	for i := range centroids {
		for j := i + 1; j < len(centroids); j++ {
			d := math.Sqrt(Distance(centroids[i], centroids[j])) / 2
			half[i] = min(half[i], d)
			half[j] = min(half[j], d)
		}
	}
}
