package features

import (
	"fmt"
	"math"
	"math/bits"

	"toponav/internal/application"
	"toponav/internal/domain"
	"toponav/internal/ports"
)

// DefaultRatio is the Lowe ratio used when none is configured
const DefaultRatio = 0.7

// HammingMatcher scores two descriptor sets by brute-force 2-NN Hamming
// matching. A descriptor of the first set counts as a good match when its
// nearest neighbour is closer than Ratio times the second nearest. The score
// is 2*good/(len(a)+len(b)), capped at 1.
type HammingMatcher struct {
	Ratio float64
	// CrossCheck also requires the match to be the nearest neighbour of
	// its partner in the first set
	CrossCheck bool
	// MaxDistance rejects matches at or beyond this many bits (0 disables)
	MaxDistance int
}

// Ensure HammingMatcher implements SimilarityOracle
var _ ports.SimilarityOracle = (*HammingMatcher)(nil)

// NewHammingMatcher creates a matcher, rejecting ratios outside [0,1]
func NewHammingMatcher(ratio float64) (*HammingMatcher, error) {
	if err := application.ValidateUnit("ratio", ratio); err != nil {
		return nil, err
	}
	return &HammingMatcher{Ratio: ratio}, nil
}

// Similarity implements ports.SimilarityOracle
func (m *HammingMatcher) Similarity(a, b domain.Descriptors) (float64, error) {
	if a == nil || b == nil {
		return 0, fmt.Errorf("%w: descriptor set is absent", application.ErrInvalidInput)
	}
	if err := application.ValidateUnit("ratio", m.Ratio); err != nil {
		return 0, err
	}

	total := len(a) + len(b)
	if total == 0 {
		return 0, nil
	}

	good := 0
	if len(b) >= 2 {
		var back []int
		if m.CrossCheck {
			back = nearest(b, a)
		}
		for i, da := range a {
			best, second, bestJ := math.MaxInt, math.MaxInt, -1
			for j, db := range b {
				d := hamming(da, db)
				switch {
				case d < best:
					best, second, bestJ = d, best, j
				case d < second:
					second = d
				}
			}
			if float64(best) >= m.Ratio*float64(second) {
				continue
			}
			if m.MaxDistance > 0 && best >= m.MaxDistance {
				continue
			}
			if back != nil && back[bestJ] != i {
				continue
			}
			good++
		}
	}

	return math.Min(1, 2*float64(good)/float64(total)), nil
}

// nearest returns, for each descriptor of from, the index of its nearest
// neighbour in to (-1 when to is empty). Ties keep the lowest index.
func nearest(from, to domain.Descriptors) []int {
	out := make([]int, len(from))
	for i, f := range from {
		best, bestJ := math.MaxInt, -1
		for j, t := range to {
			if d := hamming(f, t); d < best {
				best, bestJ = d, j
			}
		}
		out[i] = bestJ
	}
	return out
}

// hamming counts differing bits. Bytes present in only one descriptor count
// as fully different.
func hamming(a, b []byte) int {
	n := min(len(a), len(b))
	d := 0
	for i := 0; i < n; i++ {
		d += bits.OnesCount8(a[i] ^ b[i])
	}
	return d + 8*(max(len(a), len(b))-n)
}
