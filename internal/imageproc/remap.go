package imageproc

import (
	"colorcrunch/internal/kmeans"
	"colorcrunch/internal/worker"
)

// remapChunkPixels is the number of pixels handed to one worker at a time.
const remapChunkPixels = 16 << 10

// Remap returns a copy of pixels with every color replaced by its nearest
// centroid. All pixels are visited regardless of any sampling stride, and
// channels past the color channels are copied unchanged.
func Remap(pixels []byte, channels int, centroids []kmeans.Vector, workers int) []byte {
	out := make([]byte, len(pixels))
	copy(out, pixels)
	if len(centroids) == 0 {
		return out
	}

	palette := make([][colorChannels]byte, len(centroids))
	for i, c := range centroids {
		for ch := range colorChannels {
			palette[i][ch] = ToByte(c[ch])
		}
	}

	total := len(pixels) / channels
	worker.Pool(worker.Split(total, remapChunkPixels), workers, func(c worker.Chunk) {
		for idx := c.Start; idx < c.End; idx++ {
			base := idx * channels
			px := kmeans.Vector{float64(pixels[base]), float64(pixels[base+1]), float64(pixels[base+2])}
			copy(out[base:base+colorChannels], palette[kmeans.NearestCentroid(px, centroids)][:])
		}
	})
	return out
}
