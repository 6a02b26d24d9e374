package imageproc

import (
	"fmt"

	"colorcrunch/internal/kmeans"
)

// colorChannels is the number of leading channels treated as color. Any
// further channel (alpha) is carried through untouched.
const colorChannels = 3

// CheckLayout validates an interleaved pixel buffer.
func CheckLayout(pixels []byte, channels int) error {
	if channels != 3 && channels != 4 {
		return fmt.Errorf("imageproc: channels must be 3 or 4, got %d", channels)
	}
	if len(pixels)%channels != 0 {
		return fmt.Errorf("imageproc: buffer length %d is not a multiple of %d channels", len(pixels), channels)
	}
	return nil
}

// Sample returns the color of every stride-th pixel. A stride below 1 samples every pixel.
func Sample(pixels []byte, channels, stride int) []kmeans.Vector {
	stride = max(stride, 1)
	total := len(pixels) / channels
	sample := make([]kmeans.Vector, 0, (total+stride-1)/stride)
	for idx := 0; idx < total; idx += stride {
		base := idx * channels
		sample = append(sample, kmeans.Vector{
			float64(pixels[base]),
			float64(pixels[base+1]),
			float64(pixels[base+2]),
		})
	}
	return sample
}

// ToByte rounds a channel value and clamps it to [0, 255].
func ToByte(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return byte(v + 0.5)
}
