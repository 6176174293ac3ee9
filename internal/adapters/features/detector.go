package features

import (
	"fmt"
	"image"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat/distuv"

	"toponav/internal/application"
	"toponav/internal/domain"
	"toponav/internal/ports"
)

const (
	descriptorBits = 256
	patchSize      = 31
	harrisK        = 0.04
)

// pairs holds the BRIEF test pairs, fixed so descriptors from different
// runs are comparable
var pairs = generateSamplePairs(descriptorBits, patchSize, 0x70b0)

// samplePairs are the n point pairs compared inside a patch
type samplePairs struct {
	P0 []image.Point
	P1 []image.Point
	N  int
}

// generateSamplePairs draws n pairs from a normal distribution centred on
// the keypoint, clipped to the patch
func generateSamplePairs(n, patch int, seed uint64) *samplePairs {
	lo := math.Round(-float64(patch-2) / 2)
	hi := math.Round(float64(patch) / 2)
	dist := distuv.Normal{
		Mu:    0,
		Sigma: float64(patch) / 5,
		Src:   rand.NewPCG(seed, seed>>1|1),
	}
	sample := func() int {
		return int(math.Max(lo, math.Min(hi, math.Round(dist.Rand()))))
	}

	sp := &samplePairs{
		P0: make([]image.Point, n),
		P1: make([]image.Point, n),
		N:  n,
	}
	for i := 0; i < n; i++ {
		sp.P0[i] = image.Point{X: sample(), Y: sample()}
		sp.P1[i] = image.Point{X: sample(), Y: sample()}
	}
	return sp
}

// Detector finds Harris corners, keeps the strongest per grid cell and
// describes each with a 256-bit binary intensity test descriptor.
type Detector struct {
	// Width frames are downscaled to before detection (0 keeps the size)
	Width        int
	MaxKeypoints int
	GridCols     int
	GridRows     int
	// MinResponse discards weak corners
	MinResponse float64
}

// Ensure Detector implements FeatureDetector
var _ ports.FeatureDetector = (*Detector)(nil)

// NewDetector creates a detector with defaults tuned for 320px-wide frames
func NewDetector(maxKeypoints int) *Detector {
	return &Detector{
		Width:        320,
		MaxKeypoints: maxKeypoints,
		GridCols:     16,
		GridRows:     12,
		MinResponse:  1e4,
	}
}

type corner struct {
	x, y     int
	response float64
}

// Detect implements ports.FeatureDetector
func (d *Detector) Detect(img image.Image) (int, domain.Descriptors, error) {
	if img == nil {
		return 0, nil, fmt.Errorf("%w: nil frame", application.ErrInvalidInput)
	}

	gray := imaging.Grayscale(img)
	if d.Width > 0 && gray.Bounds().Dx() > d.Width {
		gray = imaging.Resize(gray, d.Width, 0, imaging.Linear)
	}
	smooth := newGrayPlane(imaging.Blur(gray, 1.2))

	corners := d.corners(smooth)
	descriptors := make(domain.Descriptors, 0, len(corners))
	for _, c := range corners {
		descriptors = append(descriptors, describe(smooth, c.x, c.y))
	}
	return len(descriptors), descriptors, nil
}

func (d *Detector) corners(g grayPlane) []corner {
	border := patchSize/2 + 1
	if g.w <= 2*border || g.h <= 2*border {
		return nil
	}

	ix := make([]float64, len(g.pix))
	iy := make([]float64, len(g.pix))
	for y := 1; y < g.h-1; y++ {
		for x := 1; x < g.w-1; x++ {
			ix[y*g.w+x] = (g.at(x+1, y) - g.at(x-1, y)) / 2
			iy[y*g.w+x] = (g.at(x, y+1) - g.at(x, y-1)) / 2
		}
	}

	cols, rows := max(1, d.GridCols), max(1, d.GridRows)
	cellW := max(1, (g.w-2*border+cols-1)/cols)
	cellH := max(1, (g.h-2*border+rows-1)/rows)
	best := make(map[int]corner)

	for y := border; y < g.h-border; y++ {
		for x := border; x < g.w-border; x++ {
			var sxx, syy, sxy float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					k := (y+dy)*g.w + x + dx
					sxx += ix[k] * ix[k]
					syy += iy[k] * iy[k]
					sxy += ix[k] * iy[k]
				}
			}
			trace := sxx + syy
			r := sxx*syy - sxy*sxy - harrisK*trace*trace
			if r < d.MinResponse {
				continue
			}
			cell := ((y-border)/cellH)*cols + (x-border)/cellW
			if cur, ok := best[cell]; !ok || r > cur.response {
				best[cell] = corner{x: x, y: y, response: r}
			}
		}
	}

	out := make([]corner, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].response != out[j].response {
			return out[i].response > out[j].response
		}
		if out[i].y != out[j].y {
			return out[i].y < out[j].y
		}
		return out[i].x < out[j].x
	})
	if d.MaxKeypoints > 0 && len(out) > d.MaxKeypoints {
		out = out[:d.MaxKeypoints]
	}
	return out
}

func describe(g grayPlane, x, y int) []byte {
	desc := make([]byte, pairs.N/8)
	for i := 0; i < pairs.N; i++ {
		p0, p1 := pairs.P0[i], pairs.P1[i]
		if g.at(x+p0.X, y+p0.Y) > g.at(x+p1.X, y+p1.Y) {
			desc[i/8] |= 1 << (i % 8)
		}
	}
	return desc
}
