package features

import (
	"image"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"

	"toponav/internal/ports"
)

// DefaultBlurThreshold is the Laplacian variance below which a frame is blurry
const DefaultBlurThreshold = 120

// LaplacianBlur flags frames whose Laplacian variance is below Threshold
type LaplacianBlur struct {
	Threshold float64
}

// Ensure LaplacianBlur implements BlurFilter
var _ ports.BlurFilter = (*LaplacianBlur)(nil)

// IsBlurry implements ports.BlurFilter. Frames too small to convolve are
// treated as blurry.
func (b *LaplacianBlur) IsBlurry(img image.Image) bool {
	return LaplacianVariance(img) < b.Threshold
}

// LaplacianVariance returns the variance of the 4-neighbour Laplacian of the
// grayscale frame, a focus measure: sharp frames have strong edges.
func LaplacianVariance(img image.Image) float64 {
	if img == nil {
		return 0
	}
	g := newGrayPlane(imaging.Grayscale(img))
	if g.w < 3 || g.h < 3 {
		return 0
	}

	values := make([]float64, 0, (g.w-2)*(g.h-2))
	for y := 1; y < g.h-1; y++ {
		for x := 1; x < g.w-1; x++ {
			lap := g.at(x-1, y) + g.at(x+1, y) + g.at(x, y-1) + g.at(x, y+1) - 4*g.at(x, y)
			values = append(values, lap)
		}
	}
	return stat.Variance(values, nil)
}
