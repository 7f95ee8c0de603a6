// Package imaging provides the image-level operations of the MCP server:
// loading and caching source images, selecting the pixels to work on,
// converting truecolor images to indexed ones, and reporting palettes.
//
// The color reduction itself lives in the palette and dither packages;
// this package wires them to real image files and encoders.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Conversion Pipeline
//
//	Prepare   crop to a region, scale down to a maximum size
//	Convert   histogram, median-cut palette, dither to *image.Paletted
//	Measure   similarity and PSNR of the result against the prepared source
//	Encode    indexed PNG, GIF or BMP, inline (base64) or to disk
//
// RenderSwatch draws a palette as a grid of labelled cells for inspection.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Conversions build their
// own searchers and ditherers and can run concurrently on different
// goroutines, including on the same cached image.
//
// # Color Representation
//
// Colors are returned in multiple formats for flexibility:
//   - Hex: 6-character format "#RRGGBB" (alpha excluded)
//   - RGB: 8-bit components (0-255)
//   - Alpha: 8-bit opacity (0-255)
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Regions outside the image or with x1 >= x2 or y1 >= y2
//   - Palette sizes outside 2-256
//   - Unknown dither modes or output formats
//   - File I/O errors during image loading and saving
package imaging
