package dither

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/image-quantize-mcp/internal/palette"
)

var (
	// ErrNotSetup is returned by Dither before a successful Setup.
	ErrNotSetup = errors.New("ditherer has no palette; call Setup first")

	// ErrPaletteTooLarge is returned when a palette cannot be addressed by
	// a one-byte-per-pixel image.
	ErrPaletteTooLarge = errors.New("palette has more than 256 colors")

	// ErrUnknownMode is returned for a Mode outside the defined set.
	ErrUnknownMode = errors.New("unknown dither mode")
)

// Ditherer converts truecolor images into indexed images over one palette.
type Ditherer interface {
	// Setup binds p. When weighted is true, color distances are weighted
	// by perceived luma rather than plain Euclidean.
	Setup(p palette.Palette, weighted bool) error

	// Dither maps every pixel of img to a palette index. The result has
	// the same dimensions as img, origin (0,0), and carries the palette.
	Dither(img image.Image) (*image.Paletted, error)
}

// Mode names one of the built-in dithering algorithms.
type Mode int

const (
	None Mode = iota
	FloydSteinberg
	Atkinson
	Stucki
	Burkes
	Jarvis
	Ordered2x2
	Ordered4x4
	Ordered8x8
)

var modeNames = [...]string{
	None:           "none",
	FloydSteinberg: "floyd-steinberg",
	Atkinson:       "atkinson",
	Stucki:         "stucki",
	Burkes:         "burkes",
	Jarvis:         "jarvis",
	Ordered2x2:     "ordered-2x2",
	Ordered4x4:     "ordered-4x4",
	Ordered8x8:     "ordered-8x8",
}

// String returns the name accepted by ParseMode.
func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// OrderedSize returns the threshold matrix dimension of an ordered mode,
// or 0 for any other mode.
func (m Mode) OrderedSize() int {
	switch m {
	case Ordered2x2:
		return 2
	case Ordered4x4:
		return 4
	case Ordered8x8:
		return 8
	}
	return 0
}

// Modes returns every defined mode in declaration order.
func Modes() []Mode {
	modes := make([]Mode, len(modeNames))
	for i := range modes {
		modes[i] = Mode(i)
	}
	return modes
}

// ParseMode looks up a mode by name, ignoring case. The empty string
// selects None.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return None, nil
	}
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// New returns a fresh Ditherer for m. Ordered modes use a palette gamma of
// 1.0; use NewOrdered to choose another.
func New(m Mode) (Ditherer, error) {
	switch m {
	case None:
		return &Nearest{}, nil
	case FloydSteinberg:
		return NewDiffusion(FloydSteinbergMatrix)
	case Atkinson:
		return NewDiffusion(AtkinsonMatrix)
	case Stucki:
		return NewDiffusion(StuckiMatrix)
	case Burkes:
		return NewDiffusion(BurkesMatrix)
	case Jarvis:
		return NewDiffusion(JarvisMatrix)
	case Ordered2x2, Ordered4x4, Ordered8x8:
		return NewOrdered(m.OrderedSize(), 1.0)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
}

// binding is the palette and searcher shared by the nearest and
// error-diffusion ditherers.
type binding struct {
	palette  palette.Palette
	weighted bool
	searcher *palette.Searcher
}

// bind builds a searcher for p, reusing the current one when p and
// weighted are unchanged.
func (b *binding) bind(p palette.Palette, weighted bool) error {
	if b.searcher != nil && b.weighted == weighted && samePalette(b.palette, p) {
		b.searcher.ResetExclusions()
		return nil
	}
	s, err := newSearcher(p, weighted)
	if err != nil {
		return err
	}
	b.palette = append(palette.Palette(nil), p...)
	b.weighted = weighted
	b.searcher = s
	return nil
}

// ready reports whether b can write indexed output.
func (b *binding) ready() error {
	if b.searcher == nil {
		return ErrNotSetup
	}
	if len(b.palette) > palette.MaxColors {
		return fmt.Errorf("%w: got %d", ErrPaletteTooLarge, len(b.palette))
	}
	return nil
}

// newSearcher builds a searcher over p, comparing alpha only when some
// palette color is not opaque.
func newSearcher(p palette.Palette, weighted bool) (*palette.Searcher, error) {
	dims := p.Dims()
	var metric *palette.Metric
	if weighted {
		metric = palette.LumaWeights.Metric(dims)
	}
	s, err := palette.NewSearcher(p, dims, metric)
	if err != nil {
		return nil, fmt.Errorf("failed to build color searcher: %w", err)
	}
	return s, nil
}

func samePalette(a, b palette.Palette) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// newIndexed allocates the output image for a w x h source.
func newIndexed(w, h int, p palette.Palette) *image.Paletted {
	return image.NewPaletted(image.Rect(0, 0, w, h), p.ColorPalette())
}
