package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/image-quantize-mcp/internal/palette"
)

// differenceThreshold is the mean per-channel difference above which a
// pixel counts as visibly changed.
const differenceThreshold = 10

// FidelityResult compares a converted image against its source.
type FidelityResult struct {
	SimilarityScore  float64 `json:"similarity_score"`
	PixelsDifferent  int     `json:"pixels_different"`
	TotalPixels      int     `json:"total_pixels"`
	AverageColorDiff float64 `json:"average_color_diff"`
	MaxColorDiff     float64 `json:"max_color_diff"`
	PSNR             float64 `json:"psnr"`
}

// MeasureFidelity compares two images of the same size pixel by pixel.
//
// The per-pixel difference is the mean absolute difference of the red,
// green and blue channels. A pixel whose difference exceeds 10 counts as
// different. PSNR is computed over all three channels and is capped at 100
// for identical images.
//
// Parameters:
//   - original: The source image.
//   - converted: The image to compare, usually the indexed output.
//
// Returns:
//   - *FidelityResult: Similarity, mean and worst color difference, PSNR.
//   - error: Non-nil if the sizes differ.
func MeasureFidelity(original, converted image.Image) (*FidelityResult, error) {
	ob := original.Bounds()
	cb := converted.Bounds()
	if ob.Dx() != cb.Dx() || ob.Dy() != cb.Dy() {
		return nil, fmt.Errorf("image sizes differ: %dx%d vs %dx%d", ob.Dx(), ob.Dy(), cb.Dx(), cb.Dy())
	}

	totalPixels := ob.Dx() * ob.Dy()
	if totalPixels == 0 {
		return &FidelityResult{SimilarityScore: 1, PSNR: 100}, nil
	}

	pixelsDifferent := 0
	var totalDiff, maxDiff, squared float64

	for dy := 0; dy < ob.Dy(); dy++ {
		for dx := 0; dx < ob.Dx(); dx++ {
			a := palette.ColorOf(original.At(ob.Min.X+dx, ob.Min.Y+dy))
			b := palette.ColorOf(converted.At(cb.Min.X+dx, cb.Min.Y+dy))

			dr := absDiff(a[palette.R], b[palette.R])
			dg := absDiff(a[palette.G], b[palette.G])
			db := absDiff(a[palette.B], b[palette.B])
			diff := float64(dr+dg+db) / 3.0

			totalDiff += diff
			if diff > maxDiff {
				maxDiff = diff
			}
			squared += float64(dr*dr + dg*dg + db*db)

			if diff > differenceThreshold {
				pixelsDifferent++
			}
		}
	}

	similarity := 1.0 - float64(pixelsDifferent)/float64(totalPixels)
	avgDiff := totalDiff / float64(totalPixels)

	psnr := 100.0
	if mse := squared / float64(totalPixels*3); mse > 0 {
		psnr = math.Min(100, 10*math.Log10(255*255/mse))
	}

	return &FidelityResult{
		SimilarityScore:  math.Round(similarity*1000) / 1000,
		PixelsDifferent:  pixelsDifferent,
		TotalPixels:      totalPixels,
		AverageColorDiff: math.Round(avgDiff*100) / 100,
		MaxColorDiff:     math.Round(maxDiff*100) / 100,
		PSNR:             math.Round(psnr*100) / 100,
	}, nil
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
