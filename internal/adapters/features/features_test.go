package features

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toponav/internal/application"
	"toponav/internal/domain"
)

// blockImage fills w x h with random gray 8px blocks
func blockImage(seed int64, w, h int) image.Image {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewGray(image.Rect(0, 0, w, h))
	for by := 0; by < h; by += 8 {
		for bx := 0; bx < w; bx += 8 {
			v := uint8(rng.Intn(256))
			for y := by; y < min(by+8, h); y++ {
				for x := bx; x < min(bx+8, w); x++ {
					img.SetGray(x, y, color.Gray{Y: v})
				}
			}
		}
	}
	return img
}

func flatImage(w, h int, v uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestHammingMatcher_Errors(t *testing.T) {
	m, err := NewHammingMatcher(DefaultRatio)
	require.NoError(t, err)

	_, err = m.Similarity(nil, domain.Descriptors{})
	assert.ErrorIs(t, err, application.ErrInvalidInput)
	_, err = m.Similarity(domain.Descriptors{}, nil)
	assert.ErrorIs(t, err, application.ErrInvalidInput)

	_, err = NewHammingMatcher(1.2)
	assert.ErrorIs(t, err, application.ErrRange)

	bad := &HammingMatcher{Ratio: -0.5}
	_, err = bad.Similarity(domain.Descriptors{}, domain.Descriptors{})
	assert.ErrorIs(t, err, application.ErrRange)
}

func TestHammingMatcher_Score(t *testing.T) {
	m := &HammingMatcher{Ratio: 0.7}

	a := domain.Descriptors{{0x00, 0x00}, {0xff, 0xff}, {0x0f, 0xf0}}
	score, err := m.Similarity(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)

	empty, err := m.Similarity(domain.Descriptors{}, domain.Descriptors{})
	require.NoError(t, err)
	assert.Zero(t, empty)

	// single train descriptor: no ratio test possible
	one, err := m.Similarity(a, domain.Descriptors{{0x00, 0x00}})
	require.NoError(t, err)
	assert.Zero(t, one)
}

func TestHammingMatcher_Filters(t *testing.T) {
	a := domain.Descriptors{{0x00, 0x00}, {0x01, 0x00}}
	b := domain.Descriptors{{0x00, 0x00}, {0xff, 0xff}, {0xf0, 0xf0}}

	tests := []struct {
		name    string
		matcher HammingMatcher
		want    float64
	}{
		{"ratio only", HammingMatcher{Ratio: 0.7}, 0.8},
		{"cross check drops the shared neighbour", HammingMatcher{Ratio: 0.7, CrossCheck: true}, 0.4},
		{"max distance", HammingMatcher{Ratio: 0.7, MaxDistance: 1}, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.matcher.Similarity(a, b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestGenerateSamplePairs(t *testing.T) {
	sp := generateSamplePairs(descriptorBits, patchSize, 7)
	again := generateSamplePairs(descriptorBits, patchSize, 7)
	assert.Equal(t, sp, again, "fixed seed gives a fixed pattern")
	require.Len(t, sp.P0, descriptorBits)
	require.Len(t, sp.P1, descriptorBits)

	half := patchSize / 2
	for i := 0; i < sp.N; i++ {
		for _, p := range []image.Point{sp.P0[i], sp.P1[i]} {
			assert.LessOrEqual(t, p.X, half+1)
			assert.GreaterOrEqual(t, p.X, -half)
			assert.LessOrEqual(t, p.Y, half+1)
			assert.GreaterOrEqual(t, p.Y, -half)
		}
	}
	assert.NotEqual(t, sp.P0, sp.P1)
}

func TestHamming(t *testing.T) {
	assert.Equal(t, 0, hamming([]byte{0xaa}, []byte{0xaa}))
	assert.Equal(t, 8, hamming([]byte{0x00}, []byte{0xff}))
	assert.Equal(t, 9, hamming([]byte{0x01}, []byte{0x00, 0x00}))
}

func TestDetector_SameAndDifferentFrames(t *testing.T) {
	d := NewDetector(500)
	m := &HammingMatcher{Ratio: DefaultRatio}

	n1, d1, err := d.Detect(blockImage(1, 320, 240))
	require.NoError(t, err)
	require.Greater(t, n1, 20)
	assert.Len(t, d1, n1)
	assert.Len(t, d1[0], descriptorBits/8)

	_, again, err := d.Detect(blockImage(1, 320, 240))
	require.NoError(t, err)
	assert.Equal(t, d1, again, "detection is deterministic")

	_, d2, err := d.Detect(blockImage(2, 320, 240))
	require.NoError(t, err)

	same, err := m.Similarity(d1, again)
	require.NoError(t, err)
	diff, err := m.Similarity(d1, d2)
	require.NoError(t, err)

	assert.Greater(t, same, 0.8)
	assert.Less(t, diff, 0.3)
}

func TestDetector_LimitsAndNil(t *testing.T) {
	d := NewDetector(10)
	n, _, err := d.Detect(blockImage(3, 640, 480))
	require.NoError(t, err)
	assert.LessOrEqual(t, n, 10)

	n, desc, err := d.Detect(flatImage(320, 240, 90))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NotNil(t, desc, "empty but present")

	_, _, err = d.Detect(nil)
	assert.ErrorIs(t, err, application.ErrInvalidInput)
}

func TestLaplacianBlur(t *testing.T) {
	b := &LaplacianBlur{Threshold: DefaultBlurThreshold}

	assert.False(t, b.IsBlurry(blockImage(4, 160, 120)))
	assert.True(t, b.IsBlurry(flatImage(160, 120, 128)))
	assert.True(t, b.IsBlurry(flatImage(2, 2, 128)))
	assert.Zero(t, LaplacianVariance(nil))
}
