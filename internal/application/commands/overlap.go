package commands

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"toponav/internal/application"
	"toponav/internal/domain"
	"toponav/internal/ports"
)

// OverlapOptions controls shared segment discovery
type OverlapOptions struct {
	Threshold  float64 `yaml:"threshold"`
	Confidence int     `yaml:"confidence"`
	LookAhead  int     `yaml:"look_ahead"`
}

// DefaultOverlapOptions returns the stock overlap settings
func DefaultOverlapOptions() OverlapOptions {
	return OverlapOptions{Threshold: 0.1, Confidence: 5, LookAhead: 4}
}

// Validate checks the options
func (o OverlapOptions) Validate() error {
	if err := application.ValidateUnit("threshold", o.Threshold); err != nil {
		return err
	}
	if err := application.ValidatePositive("confidence", o.Confidence); err != nil {
		return err
	}
	return application.ValidatePositive("lookAhead", o.LookAhead)
}

// Segment is a stretch seen in both recordings, as positions in each
type Segment struct {
	FirstStart, FirstEnd   int
	SecondStart, SecondEnd int
}

// OverlapResult contains the shared segments of two recordings
type OverlapResult struct {
	Segments []Segment
	Skipped  error
}

// OverlapCommand finds stretches shared by two recorded keyframe
// sequences, typically two edges that run along the same corridor
type OverlapCommand struct {
	oracle  ports.SimilarityOracle
	First   domain.KeyFrameSequence
	Second  domain.KeyFrameSequence
	Options OverlapOptions

	logger *zap.Logger
}

// NewOverlapCommand creates a new OverlapCommand
func NewOverlapCommand(oracle ports.SimilarityOracle, first, second domain.KeyFrameSequence, logger *zap.Logger) *OverlapCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverlapCommand{
		oracle:  oracle,
		First:   first,
		Second:  second,
		Options: DefaultOverlapOptions(),
		logger:  logger.Named("overlap"),
	}
}

// Execute anchors every frame of the first sequence on its best match in
// the second (from a lower bound that only moves forward) and follows both
// sequences from that anchor while matches keep coming.
func (c *OverlapCommand) Execute(ctx context.Context) (*OverlapResult, error) {
	if err := c.Options.Validate(); err != nil {
		return nil, err
	}

	result := &OverlapResult{}
	lower := 0
	for i := 0; i < c.First.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if lower >= c.Second.Len() {
			break
		}

		anchor, _ := c.best(i, lower, c.Second.Len(), result)
		if anchor < 0 {
			continue
		}

		seg, ok := c.follow(i, anchor, result)
		if !ok {
			lower = anchor
			continue
		}
		c.logger.Info("shared segment",
			zap.Int("first_from", c.First.At(seg.FirstStart).Index),
			zap.Int("first_to", c.First.At(seg.FirstEnd).Index),
			zap.Int("second_from", c.Second.At(seg.SecondStart).Index),
			zap.Int("second_to", c.Second.At(seg.SecondEnd).Index))
		result.Segments = append(result.Segments, seg)
		i, lower = seg.FirstEnd, seg.SecondEnd
	}
	return result, nil
}

// follow walks forward from an anchor pair. Confidence resets on every hit
// and drops on every miss; the walk stops when it runs out.
func (c *OverlapCommand) follow(i0, j0 int, result *OverlapResult) (Segment, bool) {
	lastI, lastJ := i0, j0
	confidence := c.Options.Confidence
	for i := i0 + 1; i < c.First.Len(); i++ {
		hi := min(lastJ+1+c.Options.LookAhead, c.Second.Len())
		j, _ := c.best(i, lastJ+1, hi, result)
		if j < 0 {
			confidence--
			if confidence == 0 {
				break
			}
			continue
		}
		confidence = c.Options.Confidence
		lastI, lastJ = i, j
	}

	if lastI > i0 && lastJ > j0 {
		return Segment{FirstStart: i0, FirstEnd: lastI, SecondStart: j0, SecondEnd: lastJ}, true
	}
	return Segment{}, false
}

// best returns the position in Second[lo:hi] matching First[i] best above
// the threshold, or -1
func (c *OverlapCommand) best(i, lo, hi int, result *OverlapResult) (int, float64) {
	q := c.First.At(i)
	bestJ, bestScore := -1, c.Options.Threshold
	for j := lo; j < hi; j++ {
		ref := c.Second.At(j)
		s, err := c.oracle.Similarity(q.Descriptors, ref.Descriptors)
		if err != nil {
			result.Skipped = multierr.Append(result.Skipped,
				fmt.Errorf("first %d vs second %d: %w", q.Index, ref.Index, err))
			continue
		}
		if s > bestScore {
			bestJ, bestScore = j, s
		}
	}
	return bestJ, bestScore
}
