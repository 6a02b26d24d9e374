// Package colorcrunch reduces the number of distinct colors in an image by
// clustering pixel colors with k-means and replacing every pixel with its
// nearest cluster centroid.
//
// # Quick Start
//
//	q, _ := colorcrunch.New(colorcrunch.WithMaxColors(16), colorcrunch.WithChannels(4))
//	defer q.Close()
//	out, _ := q.QuantizeImage(ctx, rgba)
//
// # Algorithms
//
// Lloyd is the baseline. Hamerly prunes distance computations with per-point
// bounds and yields the same result. The three parallel variants run the
// assignment step on a compute device and differ only in how much of the
// update step stays on the device:
//
//	ParallelAggregates   device aggregates clusters, host divides
//	ParallelAssignments  device assigns only, host aggregates
//	ParallelCentroids    device resolves centroids, host tests convergence
//
// Builds tagged nogpu reject the parallel variants with ErrUnsupportedAlgorithm.
//
// Seeded runs are reproducible, and every algorithm produces the same
// assignments and centroids: centroid updates use fixed-point sums with 24
// fractional bits, so channel values must be finite and max|channel| times the
// point count must stay below 2^39.
package colorcrunch
