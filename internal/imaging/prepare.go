package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Region represents a rectangular region within an image.
//
// Coordinates follow the standard image convention:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
//   - Width = X2 - X1, Height = Y2 - Y1
type Region struct {
	X1 int `json:"x1"` // Left edge X coordinate (inclusive)
	Y1 int `json:"y1"` // Top edge Y coordinate (inclusive)
	X2 int `json:"x2"` // Right edge X coordinate (exclusive)
	Y2 int `json:"y2"` // Bottom edge Y coordinate (exclusive)
}

// Rect returns r as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// NamedRegion resolves a named part of bounds into a Region.
//
// Supported names: "top-left", "top-right", "bottom-left", "bottom-right",
// "top-half", "bottom-half", "left-half", "right-half" and "center" (the
// middle 50% in each direction).
func NamedRegion(bounds image.Rectangle, name string) (*Region, error) {
	w, h := bounds.Dx(), bounds.Dy()
	midX, midY := w/2, h/2

	var x1, y1, x2, y2 int
	switch name {
	case "top-left":
		x1, y1, x2, y2 = 0, 0, midX, midY
	case "top-right":
		x1, y1, x2, y2 = midX, 0, w, midY
	case "bottom-left":
		x1, y1, x2, y2 = 0, midY, midX, h
	case "bottom-right":
		x1, y1, x2, y2 = midX, midY, w, h
	case "top-half":
		x1, y1, x2, y2 = 0, 0, w, midY
	case "bottom-half":
		x1, y1, x2, y2 = 0, midY, w, h
	case "left-half":
		x1, y1, x2, y2 = 0, 0, midX, h
	case "right-half":
		x1, y1, x2, y2 = midX, 0, w, h
	case "center":
		qW, qH := w/4, h/4
		x1, y1, x2, y2 = qW, qH, w-qW, h-qH
	default:
		return nil, fmt.Errorf("unknown region: %s", name)
	}

	return &Region{
		X1: bounds.Min.X + x1,
		Y1: bounds.Min.Y + y1,
		X2: bounds.Min.X + x2,
		Y2: bounds.Min.Y + y2,
	}, nil
}

// PrepareOptions selects the pixels that are fed to the quantizer.
type PrepareOptions struct {
	// Region restricts processing to part of the image. Nil means the
	// whole image.
	Region *Region

	// MaxWidth and MaxHeight bound the working size. The image is scaled
	// down, preserving aspect ratio, when it exceeds either bound. Zero
	// means unbounded. Images are never scaled up.
	MaxWidth  int
	MaxHeight int
}

// Prepare crops and downsizes img according to opts.
//
// Parameters:
//   - img: The source image.
//   - opts: Region and size bounds. The zero value returns img unchanged.
//
// Returns:
//   - image.Image: The prepared image. When a crop or resize happened it is
//     an *image.NRGBA with bounds starting at (0,0).
//   - error: Non-nil if the region lies outside the image or is empty.
//
// Downscaling uses the Lanczos filter, so a reduced image contains blended
// colors that were not in the source. Quantize at full size when every
// palette color must come from the original pixels.
func Prepare(img image.Image, opts PrepareOptions) (image.Image, error) {
	out := img

	if r := opts.Region; r != nil {
		bounds := img.Bounds()
		if r.X1 < bounds.Min.X || r.Y1 < bounds.Min.Y || r.X2 > bounds.Max.X || r.Y2 > bounds.Max.Y {
			return nil, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
				r.X1, r.Y1, r.X2, r.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
		}
		if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
			return nil, fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
		}
		out = imaging.Crop(img, r.Rect())
	}

	if opts.MaxWidth < 0 || opts.MaxHeight < 0 {
		return nil, fmt.Errorf("invalid size bound %dx%d", opts.MaxWidth, opts.MaxHeight)
	}
	if opts.MaxWidth == 0 && opts.MaxHeight == 0 {
		return out, nil
	}

	b := out.Bounds()
	maxW, maxH := opts.MaxWidth, opts.MaxHeight
	if maxW == 0 {
		maxW = b.Dx()
	}
	if maxH == 0 {
		maxH = b.Dy()
	}
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return out, nil
	}
	return imaging.Fit(out, maxW, maxH, imaging.Lanczos), nil
}
