package ports

import (
	"context"

	"toponav/internal/domain"
)

// FrameSource yields raw frames in capture order. Next returns io.EOF once
// the stream has ended.
type FrameSource interface {
	Next(ctx context.Context) (domain.Frame, error)
	Close() error
}

// KeyFrameSink persists accepted query keyframes
type KeyFrameSink interface {
	SaveKeyFrame(ctx context.Context, kf domain.KeyFrame) error
}
