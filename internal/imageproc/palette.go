package imageproc

import (
	"sort"

	"colorcrunch/internal/kmeans"
	"github.com/lucasb-eyer/go-colorful"
)

// PaletteEntry describes one palette color and its share of the sampled pixels.
type PaletteEntry struct {
	Color      [3]uint8 `json:"color"`
	Hex        string   `json:"hex"`
	Count      int      `json:"count"`
	Proportion float64  `json:"proportion"`
	// Hue in degrees [0, 360) and Saturation in [0, 1], both HSL.
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
}

// AnalyzePalette assigns every sample to its nearest centroid and returns one
// entry per centroid, sorted by proportion in descending order. Ties keep
// centroid order.
func AnalyzePalette(samples, centroids []kmeans.Vector) []PaletteEntry {
	counts := make([]int, len(centroids))
	for _, px := range samples {
		counts[kmeans.NearestCentroid(px, centroids)]++
	}

	total := float64(len(samples))
	entries := make([]PaletteEntry, len(centroids))
	for i, c := range centroids {
		rgb := [3]uint8{ToByte(c[0]), ToByte(c[1]), ToByte(c[2])}
		col := colorful.Color{
			R: float64(rgb[0]) / 255.0,
			G: float64(rgb[1]) / 255.0,
			B: float64(rgb[2]) / 255.0,
		}
		h, s, _ := col.Hsl()
		if h >= 360.0 {
			h = 0.0
		}

		entries[i] = PaletteEntry{
			Color:      rgb,
			Hex:        col.Hex(),
			Count:      counts[i],
			Hue:        h,
			Saturation: s,
		}
		if total > 0 {
			entries[i].Proportion = float64(counts[i]) / total
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Proportion > entries[j].Proportion
	})
	return entries
}

// UniqueColors returns the distinct samples in first-seen order.
func UniqueColors(samples []kmeans.Vector) []kmeans.Vector {
	seen := make(map[kmeans.Vector]struct{}, len(samples))
	var out []kmeans.Vector
	for _, px := range samples {
		if _, ok := seen[px]; ok {
			continue
		}
		seen[px] = struct{}{}
		out = append(out, px)
	}
	return out
}
