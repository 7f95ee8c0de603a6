package palette

import (
	"container/heap"
	"fmt"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Representative selects how a bucket is turned into a palette color.
type Representative int

const (
	// MeanColor synthesizes the gamma-corrected, pixel-weighted mean of
	// the bucket.
	MeanColor Representative = iota

	// OriginalColor reuses the color at the bucket's pixel-weighted
	// median, so every palette entry occurs in the source image.
	OriginalColor
)

// String returns the name used in tool arguments.
func (r Representative) String() string {
	switch r {
	case MeanColor:
		return "mean"
	case OriginalColor:
		return "original"
	default:
		return fmt.Sprintf("Representative(%d)", int(r))
	}
}

// ParseRepresentative is the inverse of Representative.String. The empty
// string selects MeanColor.
func ParseRepresentative(s string) (Representative, error) {
	switch s {
	case "", "mean":
		return MeanColor, nil
	case "original":
		return OriginalColor, nil
	}
	return 0, fmt.Errorf("unknown representative %q (want mean or original)", s)
}

// meanGamma is the exponent used to average colors perceptually.
const meanGamma = 2.2

// linear maps an 8-bit channel value to (v/255)^meanGamma.
var linear = func() (t [256]float64) {
	for i := range t {
		t[i] = math.Pow(float64(i)/255, meanGamma)
	}
	return t
}()

// Quantize reduces a histogram to at most n colors with median cut.
//
// Parameters:
//   - hist: pairwise-distinct colors with their pixel counts, as produced
//     by Histogram. The slice is not modified.
//   - n: the target number of colors, 2 through 256.
//   - mode: whether palette colors are synthesized means or original colors.
//
// Returns:
//   - Palette: between 1 and n pairwise-distinct colors for a nonempty
//     histogram; empty for an empty histogram.
//   - error: ErrColorCount when n is out of range.
//
// # Algorithm
//
// If the histogram has no more than n colors it is returned unchanged, in
// histogram order. Otherwise a single bucket covering every color is split
// repeatedly. The bucket with the widest channel range is always split
// next, on that channel (B beats G beats R on exact ties), at the first
// color whose cumulative pixel count reaches half the bucket's weight.
// Splitting stops at n buckets or when the widest remaining bucket is a
// single point in RGB space.
//
// The resulting colors are ordered by hue, then saturation, then luma;
// this affects presentation only.
func Quantize(hist []Entry, n int, mode Representative) (Palette, error) {
	if n < 2 || n > MaxColors {
		return nil, fmt.Errorf("%w: got %d", ErrColorCount, n)
	}
	if len(hist) <= n {
		return Colors(hist), nil
	}

	entries := make([]Entry, len(hist))
	copy(entries, hist)

	q := &bucketQueue{buckets: make([]bucket, 0, 2*n)}
	heap.Push(q, q.add(entries, 0, len(entries)))
	for q.Len() < n {
		bi := heap.Pop(q).(int)
		b := q.buckets[bi]
		ch, width := b.widest()
		if width == 0 {
			heap.Push(q, bi)
			break
		}

		span := entries[b.start : b.start+b.length]
		sortByChannel(span, ch)
		split := weightedMedian(span, b.weight) + 1
		if split >= len(span) {
			split = len(span) - 1
		}
		heap.Push(q, q.add(entries, b.start, split))
		heap.Push(q, q.add(entries, b.start+split, b.length-split))
	}

	// Visit buckets in creation order so the result does not depend on
	// heap layout.
	live := append([]int(nil), q.idx...)
	sort.Ints(live)

	p := make(Palette, 0, len(live))
	seen := make(map[Color]bool, len(live))
	for _, bi := range live {
		b := q.buckets[bi]
		span := entries[b.start : b.start+b.length]
		var c Color
		if mode == OriginalColor {
			ch, _ := b.widest()
			sortByChannel(span, ch)
			c = span[weightedMedian(span, b.weight)].Color
		} else {
			c = meanColor(span)
		}
		if !seen[c] {
			seen[c] = true
			p = append(p, c)
		}
	}
	sortForDisplay(p)
	return p, nil
}

// bucket is a contiguous range of the working histogram. Its channel
// bounds are computed once when the bucket is created.
type bucket struct {
	start, length int
	min, max      [3]uint8
	weight        int
}

// widest returns the channel with the largest range and that range.
// Later channels win ties.
func (b *bucket) widest() (ch, width int) {
	ch = R
	width = int(b.max[R]) - int(b.min[R])
	for c := G; c <= B; c++ {
		if w := int(b.max[c]) - int(b.min[c]); w >= width {
			ch, width = c, w
		}
	}
	return ch, width
}

// bucketQueue is a max-priority queue of bucket indices ordered by widest
// channel range.
type bucketQueue struct {
	buckets []bucket
	idx     []int
}

// add creates a bucket over entries[start:start+length] and returns its
// index.
func (q *bucketQueue) add(entries []Entry, start, length int) int {
	b := bucket{start: start, length: length}
	b.min = [3]uint8{255, 255, 255}
	for _, e := range entries[start : start+length] {
		for c := R; c <= B; c++ {
			if e.Color[c] < b.min[c] {
				b.min[c] = e.Color[c]
			}
			if e.Color[c] > b.max[c] {
				b.max[c] = e.Color[c]
			}
		}
		b.weight += e.Count
	}
	q.buckets = append(q.buckets, b)
	return len(q.buckets) - 1
}

// Implement heap.Interface.
func (q *bucketQueue) Len() int { return len(q.idx) }
func (q *bucketQueue) Less(i, j int) bool {
	_, wi := q.buckets[q.idx[i]].widest()
	_, wj := q.buckets[q.idx[j]].widest()
	if wi != wj {
		return wi > wj
	}
	return q.idx[i] < q.idx[j]
}
func (q *bucketQueue) Swap(i, j int)      { q.idx[i], q.idx[j] = q.idx[j], q.idx[i] }
func (q *bucketQueue) Push(x interface{}) { q.idx = append(q.idx, x.(int)) }
func (q *bucketQueue) Pop() interface{} {
	n := len(q.idx) - 1
	bi := q.idx[n]
	q.idx = q.idx[:n]
	return bi
}

// sortByChannel orders span by one channel, falling back to the full key.
func sortByChannel(span []Entry, ch int) {
	sort.Slice(span, func(i, j int) bool {
		a, b := span[i].Color[ch], span[j].Color[ch]
		if a != b {
			return a < b
		}
		return span[i].Color.Key() < span[j].Color.Key()
	})
}

// weightedMedian returns the index of the first entry whose cumulative
// count reaches half of total.
func weightedMedian(span []Entry, total int) int {
	cum := 0
	for i, e := range span {
		cum += e.Count
		if 2*cum >= total {
			return i
		}
	}
	return len(span) - 1
}

// meanColor averages span in gamma space, weighting each color by its count.
// Alpha is averaged linearly.
func meanColor(span []Entry) Color {
	var sum [3]float64
	var alpha, weight float64
	for _, e := range span {
		w := float64(e.Count)
		for c := R; c <= B; c++ {
			sum[c] += w * linear[e.Color[c]]
		}
		alpha += w * float64(e.Color[A])
		weight += w
	}
	var out Color
	for c := R; c <= B; c++ {
		out[c] = uint8(math.Round(255 * math.Pow(sum[c]/weight, 1/meanGamma)))
	}
	out[A] = uint8(math.Round(alpha / weight))
	return out
}

// displayKey orders palette colors for presentation.
type displayKey struct {
	hue, sat, luma int
}

func displayKeyOf(c Color) displayKey {
	h, s, _ := colorful.Color{
		R: float64(c[R]) / 255,
		G: float64(c[G]) / 255,
		B: float64(c[B]) / 255,
	}.Hsv()
	return displayKey{
		hue:  clampBucket(int(h / 60)),
		sat:  clampBucket(int(s * 6)),
		luma: c.Luma(),
	}
}

// clampBucket clamps v to the six buckets 0 through 5.
func clampBucket(v int) int {
	if v < 0 {
		return 0
	}
	if v > 5 {
		return 5
	}
	return v
}

// sortForDisplay orders p by hue bucket, saturation bucket and luma.
func sortForDisplay(p Palette) {
	keys := make(map[Color]displayKey, len(p))
	for _, c := range p {
		keys[c] = displayKeyOf(c)
	}
	sort.Slice(p, func(i, j int) bool {
		a, b := keys[p[i]], keys[p[j]]
		switch {
		case a.hue != b.hue:
			return a.hue < b.hue
		case a.sat != b.sat:
			return a.sat < b.sat
		case a.luma != b.luma:
			return a.luma < b.luma
		}
		return p[i].Key() < p[j].Key()
	})
}
