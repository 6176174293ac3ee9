package commands

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"toponav/internal/application"
	"toponav/internal/domain"
	"toponav/internal/ports"
)

// DefaultNodeThreshold is the similarity a (seed, reference) pair must
// exceed to count as a node match
const DefaultNodeThreshold = 0.2

// NodeScore is the tally of one node against the seed keyframes
type NodeScore struct {
	Node    *domain.Node
	Matches int
	Total   float64
}

// RankResult contains the ranked nodes
type RankResult struct {
	Scores []NodeScore
	// Skipped aggregates oracle failures on individual pairs
	Skipped error
}

// Nodes returns the ranked nodes, best first. limit <= 0 returns all.
func (r *RankResult) Nodes(limit int) []*domain.Node {
	n := len(r.Scores)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*domain.Node, 0, n)
	for _, s := range r.Scores[:n] {
		out = append(out, s.Node)
	}
	return out
}

// RankNodesCommand ranks graph nodes against a few seed query keyframes
type RankNodesCommand struct {
	graph     *domain.Graph
	oracle    ports.SimilarityOracle
	Seeds     []domain.KeyFrame
	Threshold float64

	logger *zap.Logger
}

// NewRankNodesCommand creates a new RankNodesCommand
func NewRankNodesCommand(graph *domain.Graph, oracle ports.SimilarityOracle, seeds []domain.KeyFrame, logger *zap.Logger) *RankNodesCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RankNodesCommand{
		graph:     graph,
		oracle:    oracle,
		Seeds:     seeds,
		Threshold: DefaultNodeThreshold,
		logger:    logger.Named("rank"),
	}
}

// Validate checks the ranking parameters
func (c *RankNodesCommand) Validate() error {
	if c.graph == nil {
		return &application.ValidationError{Field: "graph", Message: "graph is required"}
	}
	return application.ValidateUnit("nodeThreshold", c.Threshold)
}

// Execute tallies every (seed, reference) pair above the threshold per node
// and ranks nodes by match count, then total score, then identity. Nodes
// without a single match are left out.
func (c *RankNodesCommand) Execute(ctx context.Context) (*RankResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	result := &RankResult{}
	for _, node := range c.graph.Nodes() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if node.References.Empty() {
			continue
		}

		var scores []float64
		for _, seed := range c.Seeds {
			for _, ref := range node.References.Frames() {
				s, err := c.oracle.Similarity(seed.Descriptors, ref.Descriptors)
				if err != nil {
					result.Skipped = multierr.Append(result.Skipped,
						fmt.Errorf("node %d: seed %d vs reference %d: %w", node.ID, seed.Index, ref.Index, err))
					continue
				}
				if s > c.Threshold {
					scores = append(scores, s)
				}
			}
		}
		if len(scores) == 0 {
			continue
		}

		// Summed in sorted order so the total does not depend on seed order
		slices.Sort(scores)
		var total float64
		for _, s := range scores {
			total += s
		}
		result.Scores = append(result.Scores, NodeScore{Node: node, Matches: len(scores), Total: total})
	}

	slices.SortFunc(result.Scores, func(a, b NodeScore) int {
		if a.Matches != b.Matches {
			return cmp.Compare(b.Matches, a.Matches)
		}
		if a.Total != b.Total {
			return cmp.Compare(b.Total, a.Total)
		}
		return cmp.Compare(a.Node.ID, b.Node.ID)
	})

	if result.Skipped != nil {
		c.logger.Warn("skipped pairs while ranking nodes",
			zap.Int("count", len(multierr.Errors(result.Skipped))))
	}
	c.logger.Debug("ranked nodes", zap.Int("seeds", len(c.Seeds)), zap.Int("ranked", len(result.Scores)))
	return result, nil
}
