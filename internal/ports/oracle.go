package ports

import (
	"image"

	"toponav/internal/domain"
)

// SimilarityOracle scores the visual similarity of two descriptor sets
type SimilarityOracle interface {
	// Similarity returns a score in [0,1]. It fails with ErrInvalidInput when
	// either set is absent and with ErrRange when its ratio threshold is
	// outside [0,1].
	Similarity(a, b domain.Descriptors) (float64, error)
}

// FeatureDetector turns a decoded frame into keypoints and descriptors
type FeatureDetector interface {
	Detect(img image.Image) (keypoints int, descriptors domain.Descriptors, err error)
}

// BlurFilter decides whether a frame is too blurry to be a keyframe
type BlurFilter interface {
	IsBlurry(img image.Image) bool
}
