package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/ironsheep/image-quantize-mcp/internal/palette"
)

// Swatch layout limits.
const (
	DefaultSwatchCell = 24
	MinSwatchCell     = 8
	MaxSwatchCell     = 128
	swatchColumns     = 16
)

var (
	swatchGrid  = color.NRGBA{64, 64, 64, 255}
	swatchLight = color.NRGBA{255, 255, 255, 255}
	swatchDark  = color.NRGBA{0, 0, 0, 255}
)

// SwatchResult contains a rendered palette swatch.
type SwatchResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Columns     int    `json:"columns"`
	Rows        int    `json:"rows"`
	CellSize    int    `json:"cell_size"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// RenderSwatch draws a palette as a grid of cells, up to 16 per row, in
// palette order. Cells are separated by 1 pixel grid lines. With
// showIndex each cell carries its palette index in black or white,
// whichever contrasts with the cell.
//
// Parameters:
//   - p: The palette to draw. Must not be empty.
//   - cellSize: Edge length of each cell in pixels (8-128), 0 for the default.
//   - showIndex: Whether to label cells with their index.
//
// Returns:
//   - *SwatchResult: The PNG encoded swatch and its layout.
//   - error: Non-nil if the palette is empty or cellSize is out of range.
func RenderSwatch(p palette.Palette, cellSize int, showIndex bool) (*SwatchResult, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("palette is empty")
	}
	if cellSize == 0 {
		cellSize = DefaultSwatchCell
	}
	if cellSize < MinSwatchCell || cellSize > MaxSwatchCell {
		return nil, fmt.Errorf("cell size %d outside [%d,%d]", cellSize, MinSwatchCell, MaxSwatchCell)
	}

	columns := swatchColumns
	if len(p) < columns {
		columns = len(p)
	}
	rows := (len(p) + columns - 1) / columns
	pitch := cellSize + 1
	width := columns*pitch + 1
	height := rows*pitch + 1

	result := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(result, result.Bounds(), &image.Uniform{swatchGrid}, image.Point{}, draw.Src)

	for i, c := range p {
		x := (i%columns)*pitch + 1
		y := (i/columns)*pitch + 1
		cell := image.Rect(x, y, x+cellSize, y+cellSize)
		draw.Draw(result, cell, &image.Uniform{c.NRGBA()}, image.Point{}, draw.Src)

		if showIndex {
			fg := swatchDark
			if c.Luma() < 128000 || c[palette.A] < 128 {
				fg = swatchLight
			}
			drawLabel(result, cell, fmt.Sprintf("%d", i), fg)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, result); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &SwatchResult{
		Width:       width,
		Height:      height,
		Columns:     columns,
		Rows:        rows,
		CellSize:    cellSize,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// glyphs is a 3x5 pixel font for digits.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
}

// drawLabel draws text two pixels in from the top left of cell, clipped
// to the cell. Unknown runes leave a gap.
func drawLabel(img draw.Image, cell image.Rectangle, text string, fg color.Color) {
	const charWidth = 4

	cx := cell.Min.X + 2
	y := cell.Min.Y + 2
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				pt := image.Pt(cx+col, y+row)
				if pt.In(cell) {
					img.Set(pt.X, pt.Y, fg)
				}
			}
		}
		cx += charWidth
	}
}
