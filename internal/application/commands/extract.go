package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"toponav/internal/application"
	"toponav/internal/domain"
	"toponav/internal/ports"
)

// ExtractorOptions controls keyframe selection
type ExtractorOptions struct {
	Stride            int     `yaml:"stride"`
	CheckBlur         bool    `yaml:"check_blur"`
	DistinctThreshold float64 `yaml:"distinct_threshold"`
	EnsureMinimum     bool    `yaml:"ensure_minimum"`
	MinimumGap        int     `yaml:"minimum_gap"`
}

// DefaultExtractorOptions returns the stock extractor settings
func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		Stride:            15,
		CheckBlur:         true,
		DistinctThreshold: 0.1,
		EnsureMinimum:     false,
		MinimumGap:        50,
	}
}

// Validate checks the options
func (o ExtractorOptions) Validate() error {
	if err := application.ValidatePositive("stride", o.Stride); err != nil {
		return err
	}
	if err := application.ValidateUnit("distinctThreshold", o.DistinctThreshold); err != nil {
		return err
	}
	return application.ValidatePositive("minimumGap", o.MinimumGap)
}

// ExtractStats counts what the extractor did with each raw frame
type ExtractStats struct {
	Read      int
	Evaluated int
	Blurry    int
	Accepted  int
	// Forced counts keyframes accepted only because of the minimum gap rule
	Forced  int
	Skipped int
}

// ExtractCommand turns a raw frame stream into distinct keyframes
type ExtractCommand struct {
	source   ports.FrameSource
	detector ports.FeatureDetector
	oracle   ports.SimilarityOracle
	blur     ports.BlurFilter
	Options  ExtractorOptions

	// Sink, when set, receives every accepted keyframe
	Sink     ports.KeyFrameSink
	Progress ports.Progress

	logger *zap.Logger
}

// NewExtractCommand creates a new ExtractCommand. blur may be nil, in which
// case no frame is ever considered blurry.
func NewExtractCommand(
	source ports.FrameSource,
	detector ports.FeatureDetector,
	oracle ports.SimilarityOracle,
	blur ports.BlurFilter,
	opts ExtractorOptions,
	logger *zap.Logger,
) *ExtractCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExtractCommand{
		source:   source,
		detector: detector,
		oracle:   oracle,
		blur:     blur,
		Options:  opts,
		Progress: ports.NopProgress{},
		logger:   logger.Named("extract"),
	}
}

// Execute reads the source to the end, appending accepted keyframes to out.
// out is always closed on return, whatever the outcome.
func (c *ExtractCommand) Execute(ctx context.Context, out *domain.QuerySequence) (*ExtractStats, error) {
	defer out.Close()

	stats := &ExtractStats{}
	if err := c.Options.Validate(); err != nil {
		return stats, err
	}

	var (
		last  domain.KeyFrame
		have  bool
		retry bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		frame, err := c.source.Next(ctx)
		if errors.Is(err, io.EOF) {
			c.logger.Debug("frame source ended",
				zap.Int("read", stats.Read),
				zap.Int("accepted", stats.Accepted))
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read frame: %w", err)
		}
		stats.Read++

		if have && !retry && frame.Index%c.Options.Stride != 0 {
			continue
		}
		stats.Evaluated++

		if have && c.Options.CheckBlur && c.blur != nil && c.blur.IsBlurry(frame.Image) {
			stats.Blurry++
			retry = true
			continue
		}
		retry = false

		keypoints, desc, err := c.detector.Detect(frame.Image)
		if err != nil {
			c.logger.Warn("feature detection failed, skipping frame",
				zap.Int("frame", frame.Index), zap.Error(err))
			stats.Skipped++
			continue
		}
		kf := domain.KeyFrame{Index: frame.Index, Keypoints: keypoints, Descriptors: desc}

		if have {
			accept, forced, err := c.distinct(last, kf)
			if err != nil {
				c.logger.Warn("similarity failed, skipping frame",
					zap.Int("frame", frame.Index), zap.Error(err))
				stats.Skipped++
				continue
			}
			if !accept {
				continue
			}
			if forced {
				stats.Forced++
			}
		}

		if err := out.Append(kf); err != nil {
			return stats, fmt.Errorf("failed to append keyframe %d: %w", kf.Index, err)
		}
		last, have = kf, true
		stats.Accepted++
		c.Progress.KeyFrameAccepted(kf)

		if c.Sink != nil {
			if err := c.Sink.SaveKeyFrame(ctx, kf); err != nil {
				c.logger.Warn("failed to persist keyframe",
					zap.Int("frame", kf.Index), zap.Error(err))
			}
		}
	}
}

// distinct decides whether kf should follow last in the keyframe sequence
func (c *ExtractCommand) distinct(last, kf domain.KeyFrame) (accept, forced bool, err error) {
	if c.Options.EnsureMinimum && kf.Index-last.Index > c.Options.MinimumGap {
		return true, true, nil
	}
	sim, err := c.oracle.Similarity(last.Descriptors, kf.Descriptors)
	if err != nil {
		return false, false, err
	}
	return sim < c.Options.DistinctThreshold, false, nil
}

// ExtractSequence runs the extractor offline and returns the closed sequence
func (c *ExtractCommand) ExtractSequence(ctx context.Context) (domain.KeyFrameSequence, *ExtractStats, error) {
	q := domain.NewQuerySequence()
	stats, err := c.Execute(ctx, q)
	if err != nil {
		return domain.KeyFrameSequence{}, stats, err
	}
	return q.Snapshot(), stats, nil
}
