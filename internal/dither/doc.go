// Package dither maps truecolor images onto a fixed palette.
//
// Every ditherer implements the same two-step contract:
//
//	d, err := dither.New(dither.FloydSteinberg)
//	if err != nil {
//	    return err
//	}
//	if err := d.Setup(p, false); err != nil {
//	    return err
//	}
//	indexed, err := d.Dither(img)
//
// Setup binds a palette and builds the nearest-color searcher; Dither may
// then be called for any number of images.
//
// # Families
//
// Nearest (Mode None) maps each pixel to its closest palette color.
//
// Error diffusion (Floyd-Steinberg, Atkinson, Stucki, Burkes, Jarvis) walks
// the image in raster order and pushes each pixel's quantization error onto
// neighbors that have not been visited yet. Each algorithm keeps its
// published normalization: a right shift for Floyd-Steinberg, Atkinson and
// Burkes, an integer divisor for Stucki and Jarvis. The two are not
// interchangeable for negative errors.
//
// Ordered dithering (2x2, 4x4, 8x8) picks, per pixel, between the nearest
// color and an alternate found past the source color, using a fixed
// threshold matrix. Output depends only on the pixel and its position.
//
// # Thread Safety
//
// A Ditherer owns a palette.Searcher and is not safe for concurrent use.
// Concurrent conversions each need their own Ditherer.
//
// # Indexed Output
//
// Results are *image.Paletted with origin (0,0), one byte per pixel, so a
// palette with more than 256 colors cannot be written. Ordered ditherers
// reject such palettes in Setup; the other ditherers accept them in Setup
// and fail in Dither.
package dither
