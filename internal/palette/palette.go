package palette

import (
	"errors"
	"image/color"
)

// MaxColors is the largest palette an indexed image can address.
const MaxColors = 256

var (
	// ErrColorCount is returned by Quantize for a target outside [2,256].
	ErrColorCount = errors.New("color count must be between 2 and 256")

	// ErrNoColors is returned when a Searcher is built from no colors.
	ErrNoColors = errors.New("at least one color is required")

	// ErrTooManyColors is returned when a Searcher is built from more
	// colors than it can index.
	ErrTooManyColors = errors.New("too many colors")

	// ErrDimensions is returned for a dimensionality other than 3 or 4.
	ErrDimensions = errors.New("dimensions must be 3 or 4")

	// ErrNoDistance is returned when a Metric has no Distance function.
	ErrNoDistance = errors.New("metric has no distance function")
)

// Palette is an ordered sequence of pairwise-distinct colors.
type Palette []Color

// ColorPalette converts p to a color.Palette suitable for image.Paletted.
func (p Palette) ColorPalette() color.Palette {
	cp := make(color.Palette, len(p))
	for i, c := range p {
		cp[i] = c.NRGBA()
	}
	return cp
}

// Index returns the position of c in p.
func (p Palette) Index(c Color) (int, bool) {
	for i, pc := range p {
		if pc == c {
			return i, true
		}
	}
	return -1, false
}

// Dims returns 4 when some color of p is not fully opaque, 3 otherwise:
// the number of channels a Searcher over p needs to compare.
func (p Palette) Dims() int {
	for _, c := range p {
		if c[A] != 0xff {
			return 4
		}
	}
	return 3
}

// FromColorPalette converts a standard library palette.
func FromColorPalette(cp color.Palette) Palette {
	p := make(Palette, len(cp))
	for i, c := range cp {
		p[i] = ColorOf(c)
	}
	return p
}
