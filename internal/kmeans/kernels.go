package kmeans

import (
	"math"

	"colorcrunch/internal/compute"
)

const (
	// vectorWords is the number of storage words per point or centroid.
	vectorWords = 4
	// aggregateWords holds four channel sums followed by a point count.
	aggregateWords = vectorWords + 1

	workgroupSize = 64
)

func loadVector(s compute.Storage, i int) Vector {
	base := i * vectorWords
	return Vector{
		s.LoadFloat(base),
		s.LoadFloat(base + 1),
		s.LoadFloat(base + 2),
		s.LoadFloat(base + 3),
	}
}

func nearestOnDevice(p Vector, centroids compute.Storage) int {
	k := centroids.Len() / vectorWords
	best := 0
	minDist := math.MaxFloat64
	for j := 0; j < k; j++ {
		if d := Distance(p, loadVector(centroids, j)); d < minDist {
			minDist = d
			best = j
		}
	}
	return best
}

// assignKernel bindings: 0 points (ro), 1 centroids (ro), 2 assignments.
func assignKernel(inv compute.Invocation, b []compute.Storage) {
	points, centroids, assignments := b[0], b[1], b[2]
	i := inv.GlobalID
	if i >= assignments.Len() {
		return
	}
	assignments.Store(i, uint64(nearestOnDevice(loadVector(points, i), centroids)))
}

// accumulateKernel bindings: 0 points (ro), 1 centroids (ro), 2 assignments,
// 3 aggregates. Aggregates must be cleared before the dispatch.
func accumulateKernel(inv compute.Invocation, b []compute.Storage) {
	points, centroids, assignments, aggregates := b[0], b[1], b[2], b[3]
	i := inv.GlobalID
	if i >= assignments.Len() {
		return
	}
	p := loadVector(points, i)
	j := nearestOnDevice(p, centroids)
	assignments.Store(i, uint64(j))

	base := j * aggregateWords
	for c := range vectorWords {
		aggregates.AtomicAdd(base+c, toFixed(p[c]))
	}
	aggregates.AtomicAdd(base+vectorWords, 1)
}

// resolveKernel runs once per cluster. Bindings: 0 aggregates (ro),
// 1 centroids (ro), 2 next centroids.
func resolveKernel(inv compute.Invocation, b []compute.Storage) {
	aggregates, centroids, next := b[0], b[1], b[2]
	j := inv.GlobalID
	if j >= centroids.Len()/vectorWords {
		return
	}

	base := j * aggregateWords
	var sums [vectorWords]int64
	for c := range vectorWords {
		sums[c] = aggregates.LoadInt(base + c)
	}
	v := resolveAggregate(sums, aggregates.Load(base+vectorWords), loadVector(centroids, j))
	for c := range vectorWords {
		next.StoreFloat(j*vectorWords+c, v[c])
	}
}

func encodeVectors(vs []Vector) []uint64 {
	out := make([]uint64, 0, len(vs)*vectorWords)
	for _, v := range vs {
		for c := range vectorWords {
			out = append(out, math.Float64bits(v[c]))
		}
	}
	return out
}

func decodeVectors(ws []uint64) []Vector {
	out := make([]Vector, len(ws)/vectorWords)
	for i := range out {
		for c := range vectorWords {
			out[i][c] = math.Float64frombits(ws[i*vectorWords+c])
		}
	}
	return out
}

func decodeAggregates(ws []uint64, prev []Vector) []Vector {
	out := make([]Vector, len(prev))
	for j := range out {
		base := j * aggregateWords
		var sums [vectorWords]int64
		for c := range vectorWords {
			sums[c] = int64(ws[base+c])
		}
		out[j] = resolveAggregate(sums, ws[base+vectorWords], prev[j])
	}
	return out
}

func decodeAssignments(ws []uint64) []int {
	out := make([]int, len(ws))
	for i, w := range ws {
		out[i] = int(w)
	}
	return out
}
