package imaging

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-quantize-mcp/internal/palette"
)

// RGBColor represents an RGB color with 8-bit components.
//
// Each component ranges from 0 to 255, where:
//   - 0 represents no intensity (black for all components)
//   - 255 represents full intensity (white for all components)
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
//
// HSL is often more intuitive for color manipulation than RGB:
//   - Hue represents the color type (red, green, blue, etc.)
//   - Saturation represents color intensity (gray to vivid)
//   - Lightness represents brightness (black to white)
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a color value in multiple representations.
//
// This struct provides the same color in several formats to suit different use cases:
//   - Hex: Compact string format for CSS/web usage
//   - RGB: Standard 8-bit components without alpha
//   - Alpha: Opacity, reported separately because palettes may carry it
//   - HSL: Perceptual color space for intuitive color operations
type ColorResult struct {
	Hex   string   `json:"hex"`   // Hex format "#RRGGBB" (no alpha)
	RGB   RGBColor `json:"rgb"`   // RGB components
	Alpha uint8    `json:"alpha"` // 0 = fully transparent, 255 = fully opaque
	HSL   HSLColor `json:"hsl"`   // HSL representation
}

// describeColor expands a palette color into a ColorResult.
func describeColor(c palette.Color) ColorResult {
	return ColorResult{
		Hex:   fmt.Sprintf("#%02X%02X%02X", c[palette.R], c[palette.G], c[palette.B]),
		RGB:   RGBColor{R: c[palette.R], G: c[palette.G], B: c[palette.B]},
		Alpha: c[palette.A],
		HSL:   rgbToHSL(c[palette.R], c[palette.G], c[palette.B]),
	}
}

// rgbToHSL converts 8-bit RGB values to HSL color space.
//
// Returns HSLColor with:
//   - H: 0-360 (degrees on color wheel)
//   - S: 0-100 (percentage)
//   - L: 0-100 (percentage)
func rgbToHSL(r, g, b uint8) HSLColor {
	h, s, l := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}.Hsl()
	return HSLColor{
		H: int(h),
		S: int(s * 100),
		L: int(l * 100),
	}
}

// ParseColor parses a "#RRGGBB" or "#RRGGBBAA" string into a palette
// color. The leading '#' is optional and hex digits are case-insensitive.
// Colors without an alpha component are opaque.
func ParseColor(s string) (palette.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")

	alpha := uint8(0xff)
	switch len(hex) {
	case 6:
	case 8:
		a, err := strconv.ParseUint(hex[6:8], 16, 8)
		if err != nil {
			return palette.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		alpha = uint8(a)
		hex = hex[:6]
	default:
		return palette.Color{}, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", s)
	}

	c, err := colorful.Hex("#" + strings.ToLower(hex))
	if err != nil {
		return palette.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return palette.Color{r, g, b, alpha}, nil
}

// PaletteColor is one entry of a reduced palette together with the share
// of the image it represents.
type PaletteColor struct {
	Index int `json:"index"` // Position in the palette
	ColorResult
	Pixels     int     `json:"pixels"`     // Pixels mapped to this color
	Percentage float64 `json:"percentage"` // Share of all pixels (0-100)
}

// PaletteResult is a median-cut palette of an image or region.
type PaletteResult struct {
	// Colors are in palette order: grouped by hue, then saturation, then
	// luma.
	Colors []PaletteColor `json:"colors"`

	// DistinctColors is the number of different colors in the analyzed
	// pixels before reduction.
	DistinctColors int `json:"distinct_colors"`

	// TotalPixels is the number of analyzed pixels.
	TotalPixels int `json:"total_pixels"`

	// Representative is "mean" or "original".
	Representative string `json:"representative"`
}

// Palette returns the reduced colors in palette order.
func (r *PaletteResult) Palette() palette.Palette {
	p := make(palette.Palette, len(r.Colors))
	for i, c := range r.Colors {
		p[i] = palette.Color{c.RGB.R, c.RGB.G, c.RGB.B, c.Alpha}
	}
	return p
}

// PaletteColors reduces an image or region to at most count colors with
// median cut and reports how many pixels each palette color covers.
//
// Parameters:
//   - img: The source image to analyze.
//   - count: Palette size, 2 through 256.
//   - region: Optional rectangular region to analyze. If nil, the entire
//     image is analyzed.
//   - mode: How each palette color is derived from its bucket.
//
// Returns:
//   - *PaletteResult: The palette with per-color coverage.
//   - error: Non-nil if count is out of range or the region is invalid.
//
// # Coverage
//
// Every distinct source color is assigned to its nearest palette color
// under squared Euclidean distance, and its pixel count is added to that
// entry. Percentages therefore sum to 100 (up to rounding) and describe a
// conversion without dithering.
func PaletteColors(img image.Image, count int, region *Region, mode palette.Representative) (*PaletteResult, error) {
	src, err := Prepare(img, PrepareOptions{Region: region})
	if err != nil {
		return nil, err
	}

	hist := palette.Histogram(src)
	p, err := palette.Quantize(hist, count, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to quantize: %w", err)
	}

	result := &PaletteResult{
		Colors:         []PaletteColor{},
		DistinctColors: len(hist),
		TotalPixels:    palette.TotalCount(hist),
		Representative: mode.String(),
	}
	if len(p) == 0 {
		return result, nil
	}

	pixels, err := coverage(p, hist)
	if err != nil {
		return nil, err
	}
	result.Colors = describePalette(p, pixels, result.TotalPixels)
	return result, nil
}

// coverage maps every histogram entry to its nearest palette color and
// returns the pixel count per palette index.
func coverage(p palette.Palette, hist []palette.Entry) ([]int, error) {
	s, err := palette.NewSearcher(p, p.Dims(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build color searcher: %w", err)
	}
	pixels := make([]int, len(p))
	for _, e := range hist {
		i, _ := s.FindNearest(e.Color)
		pixels[i] += e.Count
	}
	return pixels, nil
}

func describePalette(p palette.Palette, pixels []int, total int) []PaletteColor {
	colors := make([]PaletteColor, len(p))
	for i, c := range p {
		colors[i] = PaletteColor{
			Index:       i,
			ColorResult: describeColor(c),
			Pixels:      pixels[i],
			Percentage:  percentage(pixels[i], total),
		}
	}
	return colors
}

func percentage(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

// ColorFrequency represents an exact color and its occurrence frequency in
// an image.
type ColorFrequency struct {
	ColorResult
	Pixels     int     `json:"pixels"`     // Number of pixels with this color
	Percentage float64 `json:"percentage"` // Percentage of pixels with this color (0-100)
}

// TopColorsResult contains the most frequently occurring exact colors in an
// image.
//
// Colors are sorted by frequency in descending order (most common first).
type TopColorsResult struct {
	Colors         []ColorFrequency `json:"colors"`
	DistinctColors int              `json:"distinct_colors"`
	TotalPixels    int              `json:"total_pixels"`
}

// TopColors returns the count most common exact colors of img, read from
// its histogram.
//
// Unlike PaletteColors, no colors are merged: this is the head of the
// histogram, with ties ordered by R, G, B and then A. A count of 0 or less
// returns every distinct color.
func TopColors(img image.Image, count int) (*TopColorsResult, error) {
	hist := palette.Histogram(img)
	total := palette.TotalCount(hist)

	head := hist
	if count > 0 && len(head) > count {
		head = head[:count]
	}

	colors := make([]ColorFrequency, len(head))
	for i, e := range head {
		colors[i] = ColorFrequency{
			ColorResult: describeColor(e.Color),
			Pixels:      e.Count,
			Percentage:  percentage(e.Count, total),
		}
	}

	return &TopColorsResult{
		Colors:         colors,
		DistinctColors: len(hist),
		TotalPixels:    total,
	}, nil
}

// ParsePalette parses a list of "#RRGGBB" or "#RRGGBBAA" strings. The
// colors must be distinct.
func ParsePalette(hexes []string) (palette.Palette, error) {
	p := make(palette.Palette, len(hexes))
	seen := make(map[palette.Color]int, len(hexes))
	for i, h := range hexes {
		c, err := ParseColor(h)
		if err != nil {
			return nil, fmt.Errorf("palette entry %d: %w", i, err)
		}
		if j, dup := seen[c]; dup {
			return nil, fmt.Errorf("palette entry %d: %s repeats entry %d", i, h, j)
		}
		seen[c] = i
		p[i] = c
	}
	return p, nil
}

// NearestResult is the answer of a palette lookup.
type NearestResult struct {
	Index    int         `json:"index"`    // Palette index of the match
	Color    ColorResult `json:"color"`    // The matching palette color
	Distance int         `json:"distance"` // Squared distance under the metric used
	Exact    bool        `json:"exact"`    // True when the query is in the palette
}

// NearestColor finds the palette color closest to query.
//
// Parameters:
//   - paletteHex: The palette as "#RRGGBB" or "#RRGGBBAA" strings.
//   - query: The color to look up, in the same format.
//   - exclude: Palette indices that must not be returned.
//   - weighted: Use luma-weighted instead of plain Euclidean distance.
//
// Returns an error if a color cannot be parsed, the palette is empty or
// every palette entry is excluded.
func NearestColor(paletteHex []string, query string, exclude []int, weighted bool) (*NearestResult, error) {
	p, err := ParsePalette(paletteHex)
	if err != nil {
		return nil, err
	}
	q, err := ParseColor(query)
	if err != nil {
		return nil, err
	}

	dims := p.Dims()
	if q[palette.A] != 0xff {
		dims = 4
	}
	var metric *palette.Metric
	if weighted {
		metric = palette.LumaWeights.Metric(dims)
	}
	s, err := palette.NewSearcher(p, dims, metric)
	if err != nil {
		return nil, fmt.Errorf("failed to build color searcher: %w", err)
	}
	for _, i := range exclude {
		if i < 0 || i >= len(p) {
			return nil, fmt.Errorf("exclude index %d out of range [0,%d)", i, len(p))
		}
		s.Exclude(i)
	}

	i, dist := s.FindNearest(q)
	if i < 0 {
		return nil, fmt.Errorf("every palette color is excluded")
	}
	return &NearestResult{
		Index:    i,
		Color:    describeColor(p[i]),
		Distance: dist,
		Exact:    dist == 0,
	}, nil
}
