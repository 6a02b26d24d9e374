package kmeans

// lloyd refines centroids by full-scan assignment until they stop moving
// or the iteration cap is reached.
func lloyd(data []Vector, centroids []Vector, cfg Config) Result {
	assignments := make([]int, len(data))
	res := Result{Assignments: assignments}

	for res.Iterations < cfg.MaxIterations {
		for i, p := range data {
			assignments[i] = NearestCentroid(p, centroids)
		}

		next := accumulate(data, assignments, centroids)
		res.Iterations++
		res.Converged = Converged(centroids, next, cfg.Tolerance)
		centroids = next
		if res.Converged {
			break
		}
	}

	res.Centroids = centroids
	return res
}
