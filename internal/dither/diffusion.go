package dither

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/image-quantize-mcp/internal/palette"
)

// ErrInvalidMatrix is returned by NewDiffusion for a matrix that would push
// error onto pixels already visited, or that has no normalization.
var ErrInvalidMatrix = errors.New("invalid diffusion matrix")

// Offset is one entry of a diffusion matrix: Weight parts of the error go
// to the pixel DX columns right and DY rows down.
type Offset struct {
	DX, DY, Weight int
}

// Matrix describes an error-diffusion kernel.
//
// Exactly one normalization applies: when Divisor is nonzero the weighted
// error is divided by it (truncating toward zero), otherwise it is shifted
// right by Shift (rounding toward negative infinity).
type Matrix struct {
	Name    string
	Entries []Offset
	Shift   uint
	Divisor int
}

// spread returns the share of error e that one entry of weight w receives.
func (m *Matrix) spread(e, w int) int {
	if m.Divisor != 0 {
		return e * w / m.Divisor
	}
	return e * w >> m.Shift
}

func (m *Matrix) validate() error {
	if m.Divisor < 0 || m.Divisor == 0 && m.Shift == 0 {
		return fmt.Errorf("%w: %s has no normalization", ErrInvalidMatrix, m.Name)
	}
	for _, o := range m.Entries {
		if o.DY < 0 || o.DY == 0 && o.DX <= 0 {
			return fmt.Errorf("%w: %s entry (%d,%d) points at a visited pixel",
				ErrInvalidMatrix, m.Name, o.DX, o.DY)
		}
	}
	return nil
}

// Published kernels.
var (
	FloydSteinbergMatrix = Matrix{
		Name: "floyd-steinberg",
		Entries: []Offset{
			{1, 0, 7},
			{-1, 1, 3}, {0, 1, 5}, {1, 1, 1},
		},
		Shift: 4,
	}

	// AtkinsonMatrix diffuses only six eighths of the error.
	AtkinsonMatrix = Matrix{
		Name: "atkinson",
		Entries: []Offset{
			{1, 0, 1}, {2, 0, 1},
			{-1, 1, 1}, {0, 1, 1}, {1, 1, 1},
			{0, 2, 1},
		},
		Shift: 3,
	}

	StuckiMatrix = Matrix{
		Name: "stucki",
		Entries: []Offset{
			{1, 0, 8}, {2, 0, 4},
			{-2, 1, 2}, {-1, 1, 4}, {0, 1, 8}, {1, 1, 4}, {2, 1, 2},
			{-2, 2, 1}, {-1, 2, 2}, {0, 2, 4}, {1, 2, 2}, {2, 2, 1},
		},
		Divisor: 42,
	}

	BurkesMatrix = Matrix{
		Name: "burkes",
		Entries: []Offset{
			{1, 0, 8}, {2, 0, 4},
			{-2, 1, 2}, {-1, 1, 4}, {0, 1, 8}, {1, 1, 4}, {2, 1, 2},
		},
		Shift: 5,
	}

	// JarvisMatrix is the Jarvis, Judice and Ninke kernel.
	JarvisMatrix = Matrix{
		Name: "jarvis",
		Entries: []Offset{
			{1, 0, 7}, {2, 0, 5},
			{-2, 1, 3}, {-1, 1, 5}, {0, 1, 7}, {1, 1, 5}, {2, 1, 3},
			{-2, 2, 1}, {-1, 2, 3}, {0, 2, 5}, {1, 2, 3}, {2, 2, 1},
		},
		Divisor: 48,
	}
)

// Diffusion is an error-diffusion ditherer.
type Diffusion struct {
	binding
	matrix Matrix
}

// NewDiffusion returns a ditherer for m.
func NewDiffusion(m Matrix) (*Diffusion, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &Diffusion{matrix: m}, nil
}

// Matrix returns the kernel d diffuses with.
func (d *Diffusion) Matrix() Matrix { return d.matrix }

// Setup implements Ditherer. Palettes of any size are accepted here; see
// the package documentation.
func (d *Diffusion) Setup(p palette.Palette, weighted bool) error {
	return d.bind(p, weighted)
}

// Dither implements Ditherer.
//
// Pixels are visited in raster order over a private copy of img. After a
// pixel is mapped, the signed per-channel difference between it and its
// palette color is spread over the in-bounds matrix entries, so the error
// is visible to pixels not yet visited. Working values are clamped to
// [0,255].
func (d *Diffusion) Dither(img image.Image) (*image.Paletted, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	work := palette.ToNRGBA(img)
	w, h := work.Rect.Dx(), work.Rect.Dy()
	dims := d.searcher.Dims()
	dst := newIndexed(w, h, d.palette)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := palette.PixelAt(work, x, y)
			idx, _ := d.searcher.FindNearest(c)
			dst.Pix[y*dst.Stride+x] = uint8(idx)

			match := d.searcher.Color(idx)
			var qerr [4]int
			zero := true
			for ch := 0; ch < dims; ch++ {
				qerr[ch] = int(c[ch]) - int(match[ch])
				if qerr[ch] != 0 {
					zero = false
				}
			}
			if zero {
				continue
			}

			for _, o := range d.matrix.Entries {
				nx, ny := x+o.DX, y+o.DY
				if nx < 0 || nx >= w || ny >= h {
					continue
				}
				px := work.Pix[work.PixOffset(nx, ny):]
				for ch := 0; ch < dims; ch++ {
					px[ch] = clamp8(int(px[ch]) + d.matrix.spread(qerr[ch], o.Weight))
				}
			}
		}
	}
	return dst, nil
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
