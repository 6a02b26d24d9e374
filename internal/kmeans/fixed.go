package kmeans

import (
	"fmt"
	"math"
)

// Centroid updates sum channel values as int64 fixed point with 24 fractional
// bits. Integer sums do not depend on accumulation order, so every backend,
// sequential or atomic on the device, computes bit-identical centroids from
// the same assignments.
const (
	fixedBits  = 24
	fixedScale = 1 << fixedBits

	// maxFixedMass bounds the sum of absolute channel values over all points
	// so that no cluster sum can overflow int64.
	maxFixedMass = 1 << (63 - fixedBits)
)

func toFixed(v float64) int64 { return int64(math.Round(v * fixedScale)) }

// checkRange rejects data whose channel sums could overflow the fixed-point
// accumulators: non-finite values, or max|channel| * len(data) >= 2^39.
func checkRange(data []Vector) error {
	var peak float64
	for i, p := range data {
		for c, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: point %d channel %d is %v", ErrInvalidConfig, i, c, v)
			}
			peak = max(peak, math.Abs(v))
		}
	}
	if peak*float64(len(data)) >= maxFixedMass {
		return fmt.Errorf("%w: %d points with channel magnitude %g exceed the accumulator range", ErrInvalidConfig, len(data), peak)
	}
	return nil
}

// resolveAggregate turns one cluster's fixed-point sums into a mean. prev is
// returned unchanged when the cluster is empty.
func resolveAggregate(sums [vectorWords]int64, count uint64, prev Vector) Vector {
	if count == 0 {
		return prev
	}
	div := float64(count) * fixedScale
	var v Vector
	for c := range vectorWords {
		v[c] = float64(sums[c]) / div
	}
	return v
}

// accumulate sums data per assigned cluster and returns the new centroids.
// Clusters without points keep their previous centroid.
func accumulate(data []Vector, assignments []int, prev []Vector) []Vector {
	k := len(prev)
	sums := make([][vectorWords]int64, k)
	counts := make([]uint64, k)
	for i, a := range assignments {
		for c := range vectorWords {
			sums[a][c] += toFixed(data[i][c])
		}
		counts[a]++
	}

	next := make([]Vector, k)
	for j := range next {
		next[j] = resolveAggregate(sums[j], counts[j], prev[j])
	}
	return next
}
