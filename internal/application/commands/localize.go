package commands

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"toponav/internal/application"
	"toponav/internal/domain"
	"toponav/internal/ports"
)

// LocalizeOptions controls seeding and scheduling of a localization run
type LocalizeOptions struct {
	// Streaming runs extraction and tracking concurrently; otherwise the
	// whole query is extracted before tracking starts
	Streaming     bool    `yaml:"streaming"`
	SeedFrames    int     `yaml:"seed_frames"`
	MaxCandidates int     `yaml:"max_candidates"`
	NodeThreshold float64 `yaml:"node_threshold"`
	// StartNodes skips ranking and seeds the tracker with these nodes
	StartNodes []int `yaml:"start_nodes"`
}

// DefaultLocalizeOptions returns the stock localization settings
func DefaultLocalizeOptions() LocalizeOptions {
	return LocalizeOptions{
		Streaming:     true,
		SeedFrames:    3,
		NodeThreshold: DefaultNodeThreshold,
	}
}

// Validate checks the options
func (o LocalizeOptions) Validate() error {
	if err := application.ValidatePositive("seedFrames", o.SeedFrames); err != nil {
		return err
	}
	if err := application.ValidateNonNegative("maxCandidates", float64(o.MaxCandidates)); err != nil {
		return err
	}
	return application.ValidateUnit("nodeThreshold", o.NodeThreshold)
}

// LocalizeResult contains the outcome of a localization run
type LocalizeResult struct {
	Path       domain.MatchedPath
	Candidates []*domain.Node
	Ranking    *RankResult // nil when start nodes were given
	Extract    *ExtractStats
	Track      *TrackResult
	KeyFrames  domain.KeyFrameSequence
	RunID      string
}

// LocalizeCommand runs keyframe extraction and edge tracking over one
// shared query sequence
type LocalizeCommand struct {
	graph   *domain.Graph
	oracle  ports.SimilarityOracle
	extract *ExtractCommand
	Options LocalizeOptions
	Tracker TrackerOptions
	RunID   string

	Clock    clock.Clock
	Progress ports.Progress

	logger *zap.Logger
}

// NewLocalizeCommand creates a new LocalizeCommand. The extract command
// supplies the frame source and extractor settings.
func NewLocalizeCommand(graph *domain.Graph, oracle ports.SimilarityOracle, extract *ExtractCommand, opts LocalizeOptions, tracker TrackerOptions, logger *zap.Logger) *LocalizeCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalizeCommand{
		graph:    graph,
		oracle:   oracle,
		extract:  extract,
		Options:  opts,
		Tracker:  tracker,
		Clock:    clock.New(),
		Progress: ports.NopProgress{},
		logger:   logger.Named("localize"),
	}
}

// Validate checks the command before running
func (c *LocalizeCommand) Validate() error {
	if c.graph == nil {
		return &application.ValidationError{Field: "graph", Message: "graph is required"}
	}
	if c.extract == nil {
		return &application.ValidationError{Field: "extract", Message: "extractor is required"}
	}
	if err := c.Options.Validate(); err != nil {
		return err
	}
	if err := c.Tracker.Validate(); err != nil {
		return err
	}
	return c.extract.Options.Validate()
}

// Execute localizes the query stream against the graph
func (c *LocalizeCommand) Execute(ctx context.Context) (*LocalizeResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	query := domain.NewQuerySequence()
	result := &LocalizeResult{RunID: c.RunID}
	c.extract.Progress = c.Progress

	var err error
	if c.Options.Streaming {
		err = c.runStreaming(ctx, query, result)
	} else {
		err = c.runOffline(ctx, query, result)
	}
	result.KeyFrames = query.Snapshot()
	if result.Track != nil {
		result.Path = result.Track.Path
	}
	return result, err
}

// runStreaming runs the producer and the consumer concurrently. The
// extractor never waits on the tracker; the tracker only reads. A tracker
// error cancels extraction.
func (c *LocalizeCommand) runStreaming(ctx context.Context, query *domain.QuerySequence, result *LocalizeResult) error {
	g, gctx := errgroup.WithContext(ctx)

	// An extraction failure closes the query sequence, so the tracker
	// still resolves what it has seen; it is reported once both finish.
	var stats *ExtractStats
	var extractErr error
	g.Go(func() error {
		stats, extractErr = c.extract.Execute(gctx, query)
		return nil
	})

	var track *TrackResult
	var ranking *RankResult
	var candidates []*domain.Node
	g.Go(func() error {
		var err error
		candidates, ranking, err = c.seed(gctx, query)
		if err != nil {
			return err
		}
		track, err = c.track(gctx, query, candidates)
		return err
	})

	err := g.Wait()
	result.Extract, result.Ranking, result.Candidates, result.Track = stats, ranking, candidates, track
	if err == nil && extractErr != nil {
		err = fmt.Errorf("extraction failed: %w", extractErr)
	}
	return err
}

// runOffline extracts the whole query before tracking
func (c *LocalizeCommand) runOffline(ctx context.Context, query *domain.QuerySequence, result *LocalizeResult) error {
	stats, err := c.extract.Execute(ctx, query)
	result.Extract = stats
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	candidates, ranking, err := c.seed(ctx, query)
	result.Candidates, result.Ranking = candidates, ranking
	if err != nil {
		return err
	}

	result.Track, err = c.track(ctx, query, candidates)
	return err
}

// seed picks the candidate nodes: the configured start nodes, or the
// ranking of the first SeedFrames query keyframes.
func (c *LocalizeCommand) seed(ctx context.Context, query *domain.QuerySequence) ([]*domain.Node, *RankResult, error) {
	if len(c.Options.StartNodes) > 0 {
		nodes := make([]*domain.Node, 0, len(c.Options.StartNodes))
		for _, id := range c.Options.StartNodes {
			n, err := c.graph.Node(domain.NodeID(id))
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, n)
		}
		c.logger.Info("seeded from start nodes", zap.Ints("nodes", c.Options.StartNodes))
		return nodes, nil, nil
	}

	// Wait for the seed keyframes or the end of the stream, whichever first
	if _, err := query.Wait(ctx, c.Options.SeedFrames-1); err != nil {
		return nil, nil, err
	}
	seeds := query.Snapshot().Frames()
	if len(seeds) > c.Options.SeedFrames {
		seeds = seeds[:c.Options.SeedFrames]
	}
	if len(seeds) == 0 {
		return nil, nil, fmt.Errorf("%w: %w", application.ErrNoCandidates, application.ErrNoKeyFrames)
	}

	rank := NewRankNodesCommand(c.graph, c.oracle, seeds, c.logger)
	rank.Threshold = c.Options.NodeThreshold
	ranking, err := rank.Execute(ctx)
	if err != nil {
		return nil, nil, err
	}

	nodes := ranking.Nodes(c.Options.MaxCandidates)
	if len(nodes) == 0 {
		return nil, ranking, application.ErrNoCandidates
	}
	ids := make([]int, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, int(n.ID))
	}
	c.logger.Info("seeded from ranking", zap.Int("seeds", len(seeds)), zap.Ints("nodes", ids))
	return nodes, ranking, nil
}

func (c *LocalizeCommand) track(ctx context.Context, query *domain.QuerySequence, candidates []*domain.Node) (*TrackResult, error) {
	tracker := NewTrackCommand(c.graph, c.oracle, query, c.Tracker, c.logger)
	tracker.Clock = c.Clock
	tracker.Progress = c.Progress
	return tracker.Execute(ctx, candidates, 0)
}
