package dither

import (
	"image"

	"github.com/ironsheep/image-quantize-mcp/internal/palette"
)

// Nearest maps each pixel to its closest palette color without dithering.
type Nearest struct {
	binding
}

// Setup implements Ditherer.
func (n *Nearest) Setup(p palette.Palette, weighted bool) error {
	return n.bind(p, weighted)
}

// Dither implements Ditherer.
func (n *Nearest) Dither(img image.Image) (*image.Paletted, error) {
	if err := n.ready(); err != nil {
		return nil, err
	}
	src := palette.ToNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := newIndexed(w, h, n.palette)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx, _ := n.searcher.FindNearest(palette.PixelAt(src, x, y))
			dst.Pix[y*dst.Stride+x] = uint8(idx)
		}
	}
	return dst, nil
}
