package worker

// Chunk is a half-open index range [Start, End).
type Chunk struct {
	Start int
	End   int
}

// Len returns the number of indices in c.
func (c Chunk) Len() int { return c.End - c.Start }

// Split cuts [0, n) into chunks of at most size indices.
func Split(n, size int) []Chunk {
	if size <= 0 {
		size = n
	}
	var chunks []Chunk
	for i := 0; i < n; i += size {
		chunks = append(chunks, Chunk{Start: i, End: min(i+size, n)})
	}
	return chunks
}
