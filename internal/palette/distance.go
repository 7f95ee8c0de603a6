package palette

// DistanceFunc returns the squared distance between two colors.
type DistanceFunc func(a, b Color) int

// AxisDistanceFunc returns the squared distance between two colors along a
// single channel.
type AxisDistanceFunc func(a, b Color, axis int) int

// Metric is the distance measure used by a Searcher.
//
// Axis must agree with Distance whenever a and b differ only in the given
// channel; the k-d tree relies on this to prune subtrees. The Searcher does
// not check it. Axis may be nil, in which case it is derived from Distance.
type Metric struct {
	Distance DistanceFunc
	Axis     AxisDistanceFunc
}

// axisFromDistance measures the single-channel distance with Distance by
// comparing a with a copy that takes b's value on that channel only.
func (m Metric) axisFromDistance() AxisDistanceFunc {
	dist := m.Distance
	return func(a, b Color, axis int) int {
		moved := a
		moved[axis] = b[axis]
		return dist(a, moved)
	}
}

// Weights scales the squared per-channel differences of a metric.
type Weights [4]int

// LumaWeights approximates perceived brightness: green dominates, blue
// counts least, and alpha weighs as much as the three color channels
// together.
var LumaWeights = Weights{30, 59, 11, 100}

// Metric returns a weighted squared-distance metric over the first dims
// channels.
func (w Weights) Metric(dims int) *Metric {
	return &Metric{
		Distance: func(a, b Color) int {
			d := 0
			for i := 0; i < dims; i++ {
				v := int(a[i]) - int(b[i])
				d += w[i] * v * v
			}
			return d
		},
		Axis: func(a, b Color, axis int) int {
			v := int(a[axis]) - int(b[axis])
			return w[axis] * v * v
		},
	}
}

// Euclidean returns the plain squared Euclidean metric over dims channels.
func Euclidean(dims int) *Metric {
	return Weights{1, 1, 1, 1}.Metric(dims)
}
