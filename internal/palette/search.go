package palette

import (
	"fmt"
	"math"
	"sort"
)

const (
	// MaxSearchColors is the largest color set a Searcher accepts.
	MaxSearchColors = 65536

	// linearSearchMax is the size at or below which a linear scan beats
	// walking the tree.
	linearSearchMax = 16

	cacheSlots = 4
)

// kdNode is one entry of the flattened k-d tree. Children are indices into
// Searcher.nodes, -1 when absent.
type kdNode struct {
	index       int32 // color index
	axis        uint8 // split channel
	left, right int32
}

type cacheSlot struct {
	query Color
	index int
	dist  int
	valid bool
}

// Searcher finds the nearest color of a fixed set.
//
// A Searcher is built once per palette and queried many times. It keeps a
// small cache of recent exact queries and a set of excluded indices, so it
// is not safe for concurrent use: give each conversion its own Searcher.
//
// # Example Usage
//
//	s, err := palette.NewSearcher(p, 3, nil)
//	if err != nil {
//	    return err
//	}
//	i, _ := s.FindNearest(palette.RGB(200, 10, 10))
//	s.Exclude(i)
//	second, _ := s.FindNearest(palette.RGB(200, 10, 10))
//	s.ResetExclusions()
type Searcher struct {
	colors []Color
	dims   int
	metric Metric
	nodes  []kdNode

	cache [cacheSlots]cacheSlot
	next  int

	excluded   []bool
	exclusions []int
}

// NewSearcher builds a Searcher over colors.
//
// Parameters:
//   - colors: 1 to 65536 colors. The slice is copied.
//   - dims: 3 to compare R, G and B, or 4 to include alpha.
//   - metric: the distance measure; nil selects Euclidean(dims). A nil
//     Axis is derived from Distance.
//
// Returns an error wrapping ErrNoColors, ErrTooManyColors, ErrDimensions
// or ErrNoDistance when a precondition is violated.
func NewSearcher(colors []Color, dims int, metric *Metric) (*Searcher, error) {
	if len(colors) == 0 {
		return nil, ErrNoColors
	}
	if len(colors) > MaxSearchColors {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrTooManyColors, len(colors), MaxSearchColors)
	}
	if dims != 3 && dims != 4 {
		return nil, fmt.Errorf("%w: got %d", ErrDimensions, dims)
	}
	if metric == nil {
		metric = Euclidean(dims)
	}
	if metric.Distance == nil {
		return nil, ErrNoDistance
	}
	m := *metric
	if m.Axis == nil {
		m.Axis = m.axisFromDistance()
	}

	s := &Searcher{
		colors:   append([]Color(nil), colors...),
		dims:     dims,
		metric:   m,
		excluded: make([]bool, len(colors)),
	}
	s.build()
	return s, nil
}

// Len returns the number of colors in the searcher.
func (s *Searcher) Len() int { return len(s.colors) }

// Dims returns the number of channels compared.
func (s *Searcher) Dims() int { return s.dims }

// Color returns the color at index i.
func (s *Searcher) Color(i int) Color { return s.colors[i] }

// Distance applies the searcher's metric to a and b.
func (s *Searcher) Distance(a, b Color) int { return s.metric.Distance(a, b) }

// Exclude makes subsequent searches skip index i until ResetExclusions.
// Out-of-range indices are ignored.
func (s *Searcher) Exclude(i int) {
	if i < 0 || i >= len(s.excluded) || s.excluded[i] {
		return
	}
	s.excluded[i] = true
	s.exclusions = append(s.exclusions, i)
}

// ResetExclusions clears the exclusion set.
func (s *Searcher) ResetExclusions() {
	for _, i := range s.exclusions {
		s.excluded[i] = false
	}
	s.exclusions = s.exclusions[:0]
}

// FindNearest returns the index of the non-excluded color closest to c and
// its distance under the searcher's metric.
//
// A color of the set is always found at distance 0. When every color is
// excluded the result is (-1, math.MaxInt).
func (s *Searcher) FindNearest(c Color) (index, dist int) {
	for i := range s.cache {
		slot := &s.cache[i]
		if slot.valid && slot.query == c && !s.excluded[slot.index] {
			return slot.index, slot.dist
		}
	}

	index, dist = -1, math.MaxInt
	if len(s.colors) <= linearSearchMax {
		index, dist = s.linear(c)
	} else {
		s.search(0, c, &index, &dist)
	}

	// Only unconstrained answers are cached: such an answer stays correct
	// under any later exclusion set that does not exclude it.
	if index >= 0 && len(s.exclusions) == 0 {
		s.cache[s.next] = cacheSlot{query: c, index: index, dist: dist, valid: true}
		s.next = (s.next + 1) % cacheSlots
	}
	return index, dist
}

// linear scans every color. The lowest index wins ties.
func (s *Searcher) linear(c Color) (int, int) {
	best, bestDist := -1, math.MaxInt
	for i, pc := range s.colors {
		if s.excluded[i] {
			continue
		}
		if d := s.metric.Distance(c, pc); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// search visits node n, then the subtree on c's side of the split, then the
// far subtree unless the split plane is at least as far as the best match.
func (s *Searcher) search(n int32, c Color, best, bestDist *int) {
	node := s.nodes[n]
	idx := int(node.index)
	pc := s.colors[idx]
	if !s.excluded[idx] {
		if d := s.metric.Distance(c, pc); d < *bestDist {
			*best, *bestDist = idx, d
		}
	}

	near, far := node.left, node.right
	if c[node.axis] > pc[node.axis] {
		near, far = far, near
	}
	if near >= 0 {
		s.search(near, c, best, bestDist)
	}
	if far >= 0 && s.metric.Axis(c, pc, int(node.axis)) < *bestDist {
		s.search(far, c, best, bestDist)
	}
}

func (s *Searcher) build() {
	order := make([]int32, len(s.colors))
	for i := range order {
		order[i] = int32(i)
	}
	s.nodes = make([]kdNode, 0, len(order))
	s.buildRange(order, R)
}

// buildRange appends the subtree over order, split first on axis, and
// returns the index of its root.
func (s *Searcher) buildRange(order []int32, axis int) int32 {
	next := (axis + 1) % s.dims
	switch len(order) {
	case 0:
		return -1
	case 1:
		return s.addNode(order[0], axis)
	case 2:
		lo, hi := order[0], order[1]
		if s.less(hi, lo, axis) {
			lo, hi = hi, lo
		}
		n := s.addNode(hi, axis)
		left := s.addNode(lo, next)
		s.nodes[n].left = left
		return n
	}

	sort.Slice(order, func(i, j int) bool { return s.less(order[i], order[j], axis) })
	mid := len(order) / 2
	n := s.addNode(order[mid], axis)
	left := s.buildRange(order[:mid], next)
	right := s.buildRange(order[mid+1:], next)
	s.nodes[n].left = left
	s.nodes[n].right = right
	return n
}

func (s *Searcher) addNode(index int32, axis int) int32 {
	s.nodes = append(s.nodes, kdNode{index: index, axis: uint8(axis), left: -1, right: -1})
	return int32(len(s.nodes) - 1)
}

// less orders color indices along axis, breaking ties by index.
func (s *Searcher) less(i, j int32, axis int) bool {
	a, b := s.colors[i][axis], s.colors[j][axis]
	if a != b {
		return a < b
	}
	return i < j
}
