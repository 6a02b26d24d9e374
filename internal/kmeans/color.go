package kmeans

import "math"

// Vector is a color sample. Three-channel data leaves the last component at zero.
type Vector [4]float64

// Distance returns the squared Euclidean distance between a and b.
func Distance(a, b Vector) float64 {
	d0 := a[0] - b[0]
	d1 := a[1] - b[1]
	d2 := a[2] - b[2]
	d3 := a[3] - b[3]
	return d0*d0 + d1*d1 + d2*d2 + d3*d3
}

// Converged reports whether every centroid moved less than tol.
// Movement is compared squared against tol*tol.
func Converged(old, next []Vector, tol float64) bool {
	limit := tol * tol
	for i := range old {
		if Distance(old[i], next[i]) >= limit {
			return false
		}
	}
	return true
}

// NearestCentroid returns the index of the closest centroid. Ties go to the lower index.
func NearestCentroid(p Vector, centroids []Vector) int {
	best := 0
	minDist := math.MaxFloat64
	for i, c := range centroids {
		if d := Distance(p, c); d < minDist {
			minDist = d
			best = i
		}
	}
	return best
}

// MaxMovement returns the largest squared displacement between old and next.
func MaxMovement(old, next []Vector) float64 {
	var m float64
	for i := range old {
		m = max(m, Distance(old[i], next[i]))
	}
	return m
}

// MinCentroidDistance returns the smallest squared distance between any two centroids.
// It returns +Inf when fewer than two centroids are given.
func MinCentroidDistance(centroids []Vector) float64 {
	m := math.Inf(1)
	for i := range centroids {
		for j := i + 1; j < len(centroids); j++ {
			m = min(m, Distance(centroids[i], centroids[j]))
		}
	}
	return m
}

// DistinctColors counts exactly distinct vectors in data.
func DistinctColors(data []Vector) int {
	seen := make(map[Vector]struct{}, min(len(data), 1<<16))
	for _, p := range data {
		seen[p] = struct{}{}
	}
	return len(seen)
}
