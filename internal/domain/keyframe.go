package domain

import (
	"errors"
	"fmt"
	"image"
)

// ErrOutOfOrder is returned when a keyframe index does not strictly increase
var ErrOutOfOrder = errors.New("keyframe index out of order")

// Descriptors is an opaque set of binary feature descriptors, one row each.
// A nil set means the descriptors are absent.
type Descriptors [][]byte

// KeyFrame is a retained frame: its ordinal position in the stream,
// its keypoint count and its descriptors. Immutable once created.
type KeyFrame struct {
	Index       int
	Keypoints   int
	Descriptors Descriptors
}

// Frame is a raw decoded frame as produced by a frame source
type Frame struct {
	Index int
	Image image.Image
}

// KeyFrameSequence is a closed, ordered run of keyframes (edge or node references)
type KeyFrameSequence struct {
	frames []KeyFrame
}

// NewKeyFrameSequence builds a closed sequence, rejecting indices that do not
// strictly increase.
func NewKeyFrameSequence(frames ...KeyFrame) (KeyFrameSequence, error) {
	if err := checkOrder(frames); err != nil {
		return KeyFrameSequence{}, err
	}
	return KeyFrameSequence{frames: append([]KeyFrame(nil), frames...)}, nil
}

// MustKeyFrameSequence is NewKeyFrameSequence for literals known to be ordered
func MustKeyFrameSequence(frames ...KeyFrame) KeyFrameSequence {
	seq, err := NewKeyFrameSequence(frames...)
	if err != nil {
		panic(err)
	}
	return seq
}

// Len returns the number of keyframes
func (s KeyFrameSequence) Len() int { return len(s.frames) }

// Empty reports whether the sequence has no keyframes
func (s KeyFrameSequence) Empty() bool { return len(s.frames) == 0 }

// At returns the keyframe at position i
func (s KeyFrameSequence) At(i int) KeyFrame { return s.frames[i] }

// Frames returns a copy of the keyframes
func (s KeyFrameSequence) Frames() []KeyFrame {
	return append([]KeyFrame(nil), s.frames...)
}

func checkOrder(frames []KeyFrame) error {
	for i := 1; i < len(frames); i++ {
		if frames[i].Index <= frames[i-1].Index {
			return fmt.Errorf("%w: %d follows %d", ErrOutOfOrder, frames[i].Index, frames[i-1].Index)
		}
	}
	return nil
}
