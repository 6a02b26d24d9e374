package worker

import "runtime"

// Pool runs fn over every chunk on a fixed number of goroutines and returns
// once all chunks are done. workers <= 0 uses GOMAXPROCS.
func Pool(chunks []Chunk, workers int, fn func(Chunk)) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(chunks))

	jobs := make(chan Chunk, workers)
	done := make(chan struct{}, len(chunks))

	for i := 0; i < workers; i++ {
		go func() {
			for c := range jobs {
				fn(c)
				done <- struct{}{}
			}
		}()
	}

	for _, c := range chunks {
		jobs <- c
	}
	close(jobs)

	for range chunks {
		<-done
	}
}
