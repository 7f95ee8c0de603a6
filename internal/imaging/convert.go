package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"golang.org/x/image/bmp"

	"github.com/ironsheep/image-quantize-mcp/internal/dither"
	"github.com/ironsheep/image-quantize-mcp/internal/palette"
)

// ConvertOptions controls the conversion of a truecolor image to an
// indexed one.
type ConvertOptions struct {
	// Colors is the palette size, 2 through 256.
	Colors int

	// Mode selects the ditherer.
	Mode dither.Mode

	// Representative selects mean or original palette colors.
	Representative palette.Representative

	// Weighted makes nearest-color matching use luma weights.
	Weighted bool

	// OrderedGamma is the gamma applied to the palette copy of ordered
	// ditherers. Zero means 1.0. Ignored by other modes.
	OrderedGamma float64
}

// DefaultConvertOptions returns a 256-color, Floyd-Steinberg conversion
// with mean palette colors.
func DefaultConvertOptions() ConvertOptions {
	return ConvertOptions{
		Colors:         palette.MaxColors,
		Mode:           dither.FloydSteinberg,
		Representative: palette.MeanColor,
		OrderedGamma:   1.0,
	}
}

// ditherer builds the ditherer selected by o.
func (o ConvertOptions) ditherer() (dither.Ditherer, error) {
	if size := o.Mode.OrderedSize(); size > 0 {
		gamma := o.OrderedGamma
		if gamma == 0 {
			gamma = 1.0
		}
		return dither.NewOrdered(size, gamma)
	}
	return dither.New(o.Mode)
}

// Convert reduces img to an indexed image.
//
// The pipeline is: histogram, median-cut palette of opts.Colors colors,
// then the ditherer selected by opts.Mode. A zero-pixel image yields an
// empty *image.Paletted without error.
//
// # Errors
//
//   - opts.Colors outside [2,256]
//   - an unknown dither mode or a non-positive ordered gamma
func Convert(img image.Image, opts ConvertOptions) (*image.Paletted, error) {
	hist := palette.Histogram(img)
	p, err := palette.Quantize(hist, opts.Colors, opts.Representative)
	if err != nil {
		return nil, fmt.Errorf("failed to quantize: %w", err)
	}
	if len(p) == 0 {
		return image.NewPaletted(image.Rect(0, 0, 0, 0), nil), nil
	}
	return ConvertWithPalette(img, p, opts)
}

// ConvertWithPalette maps img onto a fixed palette. opts.Colors and
// opts.Representative are ignored.
func ConvertWithPalette(img image.Image, p palette.Palette, opts ConvertOptions) (*image.Paletted, error) {
	d, err := opts.ditherer()
	if err != nil {
		return nil, err
	}
	if err := d.Setup(p, opts.Weighted); err != nil {
		return nil, fmt.Errorf("failed to set up %s ditherer: %w", opts.Mode, err)
	}
	out, err := d.Dither(img)
	if err != nil {
		return nil, fmt.Errorf("failed to dither: %w", err)
	}
	return out, nil
}

// Output formats understood by EncodeIndexed.
const (
	FormatPNG = "png"
	FormatGIF = "gif"
	FormatBMP = "bmp"
)

var mimeTypes = map[string]string{
	FormatPNG: "image/png",
	FormatGIF: "image/gif",
	FormatBMP: "image/bmp",
}

// EncodeIndexed writes img to w as an indexed PNG, GIF or BMP.
func EncodeIndexed(w io.Writer, img *image.Paletted, format string) error {
	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(w, img)
	case FormatGIF:
		err = gif.Encode(w, img, &gif.Options{NumColors: len(img.Palette)})
	case FormatBMP:
		err = bmp.Encode(w, img)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}

// SaveIndexed writes img to path. The format follows the extension:
// .png, .gif or .bmp.
func SaveIndexed(path string, img *image.Paletted) error {
	format := formatsByExt[strings.ToLower(filepath.Ext(path))]

	var enc imgio.Encoder
	switch format {
	case FormatPNG:
		enc = imgio.PNGEncoder()
	case FormatBMP:
		enc = imgio.BMPEncoder()
	case FormatGIF:
		enc = func(w io.Writer, m image.Image) error {
			return gif.Encode(w, m, &gif.Options{NumColors: len(img.Palette)})
		}
	default:
		return fmt.Errorf("unsupported output extension %q (want .png, .gif or .bmp)", filepath.Ext(path))
	}

	if err := imgio.Save(path, img, enc); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// QuantizeResult contains a converted image and its palette.
type QuantizeResult struct {
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	Dither         string          `json:"dither"`
	Representative string          `json:"representative"`
	Palette        []PaletteColor  `json:"palette"`
	Fidelity       *FidelityResult `json:"fidelity"`
	ImageBase64    string          `json:"image_base64,omitempty"`
	MimeType       string          `json:"mime_type,omitempty"`
	OutputPath     string          `json:"output_path,omitempty"`
}

// QuantizeRequest bundles the inputs of QuantizeImage.
type QuantizeRequest struct {
	Prepare PrepareOptions
	Convert ConvertOptions

	// Format is the encoding of the returned image: "png", "gif" or
	// "bmp". Empty means "png".
	Format string

	// OutputPath, when set, is where the converted image is written
	// instead of being returned inline.
	OutputPath string
}

// QuantizeImage prepares, converts and encodes img.
//
// Parameters:
//   - img: The source image.
//   - req: Preparation, conversion and output settings.
//
// Returns:
//   - *QuantizeResult: Dimensions, the palette with the number of output
//     pixels using each entry, the difference from the prepared source, and either the base64 encoded image or the
//     path it was written to.
//   - error: Non-nil if any stage fails.
func QuantizeImage(img image.Image, req QuantizeRequest) (*QuantizeResult, error) {
	format := req.Format
	if format == "" {
		format = FormatPNG
	}
	mime, ok := mimeTypes[format]
	if !ok {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	src, err := Prepare(img, req.Prepare)
	if err != nil {
		return nil, err
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("image has no pixels")
	}
	out, err := Convert(src, req.Convert)
	if err != nil {
		return nil, err
	}

	p := palette.FromColorPalette(out.Palette)
	pixels := make([]int, len(p))
	for _, i := range out.Pix {
		pixels[i]++
	}

	result := &QuantizeResult{
		Width:          out.Rect.Dx(),
		Height:         out.Rect.Dy(),
		Dither:         req.Convert.Mode.String(),
		Representative: req.Convert.Representative.String(),
		Palette:        describePalette(p, pixels, len(out.Pix)),
	}

	fidelity, err := MeasureFidelity(src, out)
	if err != nil {
		return nil, fmt.Errorf("failed to measure fidelity: %w", err)
	}
	result.Fidelity = fidelity

	if req.OutputPath != "" {
		if err := SaveIndexed(req.OutputPath, out); err != nil {
			return nil, err
		}
		result.OutputPath = req.OutputPath
		return result, nil
	}

	var buf bytes.Buffer
	if err := EncodeIndexed(&buf, out, format); err != nil {
		return nil, err
	}
	result.ImageBase64 = base64.StdEncoding.EncodeToString(buf.Bytes())
	result.MimeType = mime
	return result, nil
}
