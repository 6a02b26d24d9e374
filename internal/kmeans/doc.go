// Package kmeans clusters color vectors for palette reduction.
//
// Three backends share one contract: Lloyd (full scan), Hamerly (bound pruning)
// and a data-parallel engine that runs on a compute device. All of them start
// from the same seeded initializer and converge to the same clustering.
package kmeans
