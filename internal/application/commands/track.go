package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"toponav/internal/application"
	"toponav/internal/domain"
	"toponav/internal/ports"
)

// TrackerOptions controls the edge tracker
type TrackerOptions struct {
	EdgeThreshold float64       `yaml:"edge_threshold"`
	InitialWindow int           `yaml:"initial_window"`
	MinWindow     int           `yaml:"min_window"`
	HitReward     float64       `yaml:"hit_reward"`
	MissPenalty   float64       `yaml:"miss_penalty"`
	WaitTimeout   time.Duration `yaml:"wait_timeout"`
	// MaxHops bounds the number of resolved edges; 0 means unbounded
	MaxHops int `yaml:"max_hops"`
}

// DefaultTrackerOptions returns the stock tracker settings
func DefaultTrackerOptions() TrackerOptions {
	return TrackerOptions{
		EdgeThreshold: 0.15,
		InitialWindow: 3,
		MinWindow:     1,
		HitReward:     1,
		MissPenalty:   0.5,
		WaitTimeout:   30 * time.Second,
	}
}

// Validate checks the options
func (o TrackerOptions) Validate() error {
	if err := application.ValidateUnit("edgeThreshold", o.EdgeThreshold); err != nil {
		return err
	}
	if err := application.ValidatePositive("minWindow", o.MinWindow); err != nil {
		return err
	}
	if o.InitialWindow < o.MinWindow {
		return &application.ValidationError{
			Field:   "initialWindow",
			Message: fmt.Sprintf("initial window %d is below min window %d", o.InitialWindow, o.MinWindow),
		}
	}
	if err := application.ValidateNonNegative("hitReward", o.HitReward); err != nil {
		return err
	}
	if err := application.ValidateNonNegative("missPenalty", o.MissPenalty); err != nil {
		return err
	}
	if err := application.ValidateDuration("waitTimeout", o.WaitTimeout); err != nil {
		return err
	}
	return application.ValidateNonNegative("maxHops", float64(o.MaxHops))
}

// TrackResult contains the matched path
type TrackResult struct {
	Path domain.MatchedPath
	// Steps is the number of query keyframes compared across all hypotheses
	Steps int
	// OracleErrors aggregates failed comparisons, each counted as a miss
	OracleErrors error
}

// TrackCommand follows the query sequence along the graph edges, one
// hypothesis per traceable outgoing edge of the candidate nodes.
type TrackCommand struct {
	graph   *domain.Graph
	oracle  ports.SimilarityOracle
	query   *domain.QuerySequence
	Options TrackerOptions

	Clock    clock.Clock
	Progress ports.Progress

	logger *zap.Logger
}

// NewTrackCommand creates a new TrackCommand reading from query
func NewTrackCommand(graph *domain.Graph, oracle ports.SimilarityOracle, query *domain.QuerySequence, opts TrackerOptions, logger *zap.Logger) *TrackCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackCommand{
		graph:    graph,
		oracle:   oracle,
		query:    query,
		Options:  opts,
		Clock:    clock.New(),
		Progress: ports.NopProgress{},
		logger:   logger.Named("track"),
	}
}

// Execute tracks from the candidate nodes starting at query index start.
// Each full match reseeds from the destination node where the match
// concluded; a partial match or a node with nothing to follow ends the
// path. On cancellation the path resolved so far is returned with the
// context error.
func (c *TrackCommand) Execute(ctx context.Context, candidates []*domain.Node, start int) (*TrackResult, error) {
	if err := c.Options.Validate(); err != nil {
		return nil, err
	}

	result := &TrackResult{}
	nodes := candidates
	for {
		hyps := c.seed(nodes, start)
		if len(hyps) == 0 {
			c.logger.Info("no traceable edges to follow", zap.Int("query", start))
			return result, nil
		}

		r, err := c.resolve(ctx, hyps, start, result)
		if err != nil {
			return result, err
		}
		result.Path = append(result.Path, r)
		c.Progress.EdgeResolved(r)
		c.logger.Info("edge resolved",
			zap.String("edge", r.Hypothesis.Edge.Name()),
			zap.Bool("full", r.Full),
			zap.Bool("stalled", r.Stalled),
			zap.Float64("confidence", r.Hypothesis.Confidence),
			zap.Int("last_edge_index", r.LastEdgeIndex()))

		if !r.Full {
			return result, nil
		}
		if c.Options.MaxHops > 0 && len(result.Path) >= c.Options.MaxHops {
			return result, nil
		}

		dest, err := c.graph.Node(r.Dest())
		if err != nil {
			return result, err
		}
		nodes = []*domain.Node{dest}
		start = r.EndQueryIndex + 1
	}
}

// seed creates one active hypothesis per traceable outgoing edge
func (c *TrackCommand) seed(nodes []*domain.Node, start int) []*domain.MatchHypothesis {
	var hyps []*domain.MatchHypothesis
	for _, n := range nodes {
		for _, e := range n.Links {
			if !e.Traceable() {
				continue
			}
			hyps = append(hyps, domain.NewMatchHypothesis(n, e, start, c.Options.InitialWindow))
		}
	}
	return hyps
}

// resolve advances the frontier round by round until one hypothesis
// resolves. The first frontier hypothesis, in seeding order, whose edge
// ended or whose next query keyframe will never arrive wins.
func (c *TrackCommand) resolve(ctx context.Context, hyps []*domain.MatchHypothesis, start int, result *TrackResult) (domain.Resolution, error) {
	for {
		best := hyps[0].Confidence
		for _, h := range hyps[1:] {
			best = max(best, h.Confidence)
		}

		for _, h := range hyps {
			if h.Confidence < best {
				continue
			}
			if h.EdgeEnded {
				return c.resolution(h, start, true, false), nil
			}

			i := h.NextQueryIndex()
			available, stalled, err := c.wait(ctx, i)
			if err != nil {
				return domain.Resolution{}, err
			}
			if !available {
				return c.resolution(h, start, false, stalled), nil
			}

			hit, err := c.step(h, i, c.query.At(i))
			if err != nil {
				result.OracleErrors = multierr.Append(result.OracleErrors, err)
			}
			result.Steps++
			c.Progress.HypothesisStepped(*h, hit)
		}
	}
}

func (c *TrackCommand) resolution(h *domain.MatchHypothesis, start int, full, stalled bool) domain.Resolution {
	if full {
		h.State = domain.HypothesisEnded
	} else {
		h.State = domain.HypothesisPartial
	}
	return domain.Resolution{
		Hypothesis:      *h,
		Full:            full,
		Stalled:         stalled,
		StartQueryIndex: start,
		EndQueryIndex:   h.LastQueryIndex,
	}
}

// wait blocks until query keyframe i is readable. It reports stalled when
// no keyframe arrived within the wait timeout.
func (c *TrackCommand) wait(ctx context.Context, i int) (available, stalled bool, err error) {
	if i < c.query.Len() {
		return true, false, nil
	}

	wctx, cancel := c.Clock.WithTimeout(ctx, c.Options.WaitTimeout)
	defer cancel()

	ok, err := c.query.Wait(wctx, i)
	switch {
	case err == nil:
		return ok, false, nil
	case ctx.Err() != nil:
		return false, false, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		c.logger.Warn("query stream stalled",
			zap.Int("query", i),
			zap.Duration("timeout", c.Options.WaitTimeout))
		return false, true, nil
	default:
		return false, false, err
	}
}

// step compares query keyframe i against the search window of h and applies
// the hit or miss update. The query index advances either way.
func (c *TrackCommand) step(h *domain.MatchHypothesis, i int, q domain.KeyFrame) (bool, error) {
	lo, hi := h.SearchRange()
	bestIdx, bestScore := -1, c.Options.EdgeThreshold

	var errs error
	for j := lo; j < hi; j++ {
		ref := h.Edge.KeyFrames.At(j)
		s, err := c.oracle.Similarity(q.Descriptors, ref.Descriptors)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("query %d vs edge %s keyframe %d: %w", q.Index, h.Edge.Name(), ref.Index, err))
			continue
		}
		if s > bestScore {
			bestIdx, bestScore = j, s
		}
	}

	h.LastQueryIndex = i
	if bestIdx < 0 {
		h.Confidence -= c.Options.MissPenalty
		h.Window++
		h.Misses++
		return false, errs
	}

	h.LastEdgeIndex = bestIdx
	h.Confidence += c.Options.HitReward
	h.Window = max(h.Window-1, c.Options.MinWindow)
	h.Hits++
	if bestIdx == h.Edge.KeyFrames.Len()-1 {
		h.EdgeEnded = true
	}
	c.logger.Debug("edge keyframe matched",
		zap.String("edge", h.Edge.Name()),
		zap.Int("query", i),
		zap.Int("edge_index", bestIdx),
		zap.Float64("score", bestScore))
	return true, errs
}
