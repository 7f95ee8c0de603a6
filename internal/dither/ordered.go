package dither

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/image-quantize-mcp/internal/palette"
)

// Threshold matrices, row-major, indexed by (y mod n, x mod n).
var thresholds = map[int][]int{
	2: {
		0, 3,
		2, 1,
	},
	4: {
		0, 8, 2, 10,
		12, 4, 14, 6,
		3, 11, 1, 9,
		15, 7, 13, 5,
	},
	8: {
		0, 32, 8, 40, 2, 34, 10, 42,
		48, 16, 56, 24, 50, 18, 58, 26,
		12, 44, 4, 36, 14, 46, 6, 38,
		60, 28, 52, 20, 62, 30, 54, 22,
		3, 35, 11, 43, 1, 33, 9, 41,
		51, 19, 59, 27, 49, 17, 57, 25,
		15, 47, 7, 39, 13, 45, 5, 37,
		63, 31, 55, 23, 61, 29, 53, 21,
	},
}

// Ordered is a pattern ditherer over an n x n threshold matrix.
//
// For each pixel not already in the palette it finds the nearest color and
// an alternate: the color nearest to the point reflected through the
// source away from the nearest color, excluding the nearest itself. The
// ratio of the source's distance to each decides how many cells of the
// matrix emit the alternate.
//
// Distances are luma-weighted and measured against a gamma-adjusted copy
// of the palette; a gamma of 1 leaves the palette as is.
type Ordered struct {
	size      int
	threshold []int
	gamma     float64

	palette  palette.Palette
	exact    map[palette.Color]int
	searcher *palette.Searcher
}

// NewOrdered returns an ordered ditherer with a size x size matrix (2, 4 or
// 8) and the given palette gamma (> 0).
func NewOrdered(size int, gamma float64) (*Ordered, error) {
	t, ok := thresholds[size]
	if !ok {
		return nil, fmt.Errorf("%w: no %dx%d ordered matrix", ErrUnknownMode, size, size)
	}
	if !(gamma > 0) || math.IsInf(gamma, 0) {
		return nil, fmt.Errorf("ordered dither gamma must be positive, got %v", gamma)
	}
	return &Ordered{size: size, threshold: t, gamma: gamma}, nil
}

// Size returns the matrix dimension.
func (o *Ordered) Size() int { return o.size }

// Gamma returns the palette adjustment exponent.
func (o *Ordered) Gamma() float64 { return o.gamma }

// Setup implements Ditherer. The weighted flag is ignored: ordered
// dithering always compares luma-weighted distances.
func (o *Ordered) Setup(p palette.Palette, weighted bool) error {
	if len(p) > palette.MaxColors {
		return fmt.Errorf("%w: got %d", ErrPaletteTooLarge, len(p))
	}

	adjusted := make(palette.Palette, len(p))
	for i, c := range p {
		adjusted[i] = adjustGamma(c, o.gamma)
	}
	dims := p.Dims()
	s, err := palette.NewSearcher(adjusted, dims, palette.LumaWeights.Metric(dims))
	if err != nil {
		return fmt.Errorf("failed to build color searcher: %w", err)
	}

	exact := make(map[palette.Color]int, len(p))
	for i := len(p) - 1; i >= 0; i-- {
		exact[p[i]] = i
	}

	o.palette = append(palette.Palette(nil), p...)
	o.exact = exact
	o.searcher = s
	return nil
}

// Dither implements Ditherer.
func (o *Ordered) Dither(img image.Image) (*image.Paletted, error) {
	if o.searcher == nil {
		return nil, ErrNotSetup
	}
	src := palette.ToNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := newIndexed(w, h, o.palette)
	for y := 0; y < h; y++ {
		row := o.threshold[(y%o.size)*o.size:]
		for x := 0; x < w; x++ {
			dst.Pix[y*dst.Stride+x] = uint8(o.index(palette.PixelAt(src, x, y), row[x%o.size]))
		}
	}
	return dst, nil
}

// index chooses between the nearest and alternate colors for c at a cell
// with the given threshold.
func (o *Ordered) index(c palette.Color, threshold int) int {
	if i, ok := o.exact[c]; ok {
		return i
	}

	s := o.searcher
	near, nearDist := s.FindNearest(c)
	if nearDist == 0 {
		return near
	}

	nc := s.Color(near)
	var balance palette.Color
	for ch := range balance {
		balance[ch] = clamp8(2*int(c[ch]) - int(nc[ch]))
	}
	s.Exclude(near)
	alt, _ := s.FindNearest(balance)
	s.ResetExclusions()
	if alt < 0 {
		return near
	}

	dn := math.Sqrt(float64(nearDist))
	da := math.Sqrt(float64(s.Distance(c, s.Color(alt))))
	scaled := int(math.Round(dn / (dn + da) * float64(o.size*o.size)))
	if threshold < scaled {
		return alt
	}
	return near
}

// adjustGamma raises the color channels of c to gamma. Alpha is unchanged.
func adjustGamma(c palette.Color, gamma float64) palette.Color {
	if gamma == 1 {
		return c
	}
	for ch := palette.R; ch <= palette.B; ch++ {
		c[ch] = uint8(math.Round(255 * math.Pow(float64(c[ch])/255, gamma)))
	}
	return c
}
