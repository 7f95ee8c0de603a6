package palette

import (
	"image"
	"image/color"
	"image/draw"
)

// Channel indices into a Color.
const (
	R = iota
	G
	B
	A
)

// Color is a non-premultiplied 8-bit color: R, G, B, A.
//
// Colors compare with == (exact per-channel equality) and order by Key.
type Color [4]uint8

// RGB returns an opaque Color.
func RGB(r, g, b uint8) Color {
	return Color{r, g, b, 0xff}
}

// Key packs the channels into a single sortable integer with R in the
// most significant byte.
func (c Color) Key() uint32 {
	return uint32(c[R])<<24 | uint32(c[G])<<16 | uint32(c[B])<<8 | uint32(c[A])
}

// fromKey is the inverse of Key.
func fromKey(k uint32) Color {
	return Color{uint8(k >> 24), uint8(k >> 16), uint8(k >> 8), uint8(k)}
}

// NRGBA converts c to the standard library color type.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c[R], G: c[G], B: c[B], A: c[A]}
}

// ColorOf converts any color.Color into a Color.
func ColorOf(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{n.R, n.G, n.B, n.A}
}

// Luma returns the integer Rec. 601 luma of c scaled by 1000.
func (c Color) Luma() int {
	return 299*int(c[R]) + 587*int(c[G]) + 114*int(c[B])
}

// ToNRGBA returns img as an *image.NRGBA whose bounds start at (0,0).
//
// The returned image is always a private copy, so callers may modify it
// freely.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// PixelAt reads the Color at (x, y) of an image produced by ToNRGBA.
func PixelAt(img *image.NRGBA, x, y int) Color {
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	return Color{p[0], p[1], p[2], p[3]}
}
