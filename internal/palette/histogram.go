package palette

import (
	"image"
	"sort"
)

// Entry is one row of a color histogram.
type Entry struct {
	Color Color `json:"color"`
	Count int   `json:"count"`
}

// Histogram counts the distinct colors of img.
//
// The result holds pairwise-distinct colors whose counts sum to the pixel
// count of img. Entries are sorted by descending Count; equal counts are
// ordered by ascending R, then G, then B, then A so the output is
// reproducible.
//
// An image with no pixels yields a nil histogram.
func Histogram(img image.Image) []Entry {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}

	src := ToNRGBA(img)
	w, h := b.Dx(), b.Dy()
	keys := make([]uint32, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			keys = append(keys, PixelAt(src, x, y).Key())
		}
	}
	return histogramOfKeys(keys)
}

// histogramOfKeys sorts keys in place and collapses runs of equal keys.
func histogramOfKeys(keys []uint32) []Entry {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var entries []Entry
	for i := 0; i < len(keys); {
		j := i + 1
		for j < len(keys) && keys[j] == keys[i] {
			j++
		}
		entries = append(entries, Entry{Color: fromKey(keys[i]), Count: j - i})
		i = j
	}

	// Keys are unique here, so comparing them is the R,G,B,A tie-break.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Color.Key() < entries[j].Color.Key()
	})
	return entries
}

// Colors returns the colors of a histogram in histogram order.
func Colors(entries []Entry) Palette {
	p := make(Palette, len(entries))
	for i, e := range entries {
		p[i] = e.Color
	}
	return p
}

// TotalCount returns the sum of all counts in entries.
func TotalCount(entries []Entry) int {
	n := 0
	for _, e := range entries {
		n += e.Count
	}
	return n
}
