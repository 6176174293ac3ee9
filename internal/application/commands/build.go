package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"toponav/internal/application"
	"toponav/internal/domain"
	"toponav/internal/ports"
)

// SourceOpener opens the recorded frames stored under dir
type SourceOpener func(dir string) (ports.FrameSource, error)

// GraphSpec lists what to record into a graph: per node an optional
// reference recording and per edge the recording along it
type GraphSpec struct {
	Nodes []NodeSpec
	Edges []EdgeSpec
}

// NodeSpec names a node and the directory of its reference frames
type NodeSpec struct {
	ID         domain.NodeID
	References string
}

// EdgeSpec names an edge and the directory of frames recorded along it
type EdgeSpec struct {
	Source, Dest domain.NodeID
	Frames       string
}

// BuildGraphResult contains the result of building a graph
type BuildGraphResult struct {
	Graph     *domain.Graph
	KeyFrames int
	Message   string
}

// BuildGraphCommand extracts every recording of a graph spec offline,
// validates the graph and saves it
type BuildGraphCommand struct {
	store    ports.GraphStore
	open     SourceOpener
	detector ports.FeatureDetector
	oracle   ports.SimilarityOracle
	blur     ports.BlurFilter
	Spec     GraphSpec
	Options  ExtractorOptions

	logger *zap.Logger
}

// NewBuildGraphCommand creates a new BuildGraphCommand
func NewBuildGraphCommand(
	store ports.GraphStore,
	open SourceOpener,
	detector ports.FeatureDetector,
	oracle ports.SimilarityOracle,
	blur ports.BlurFilter,
	spec GraphSpec,
	opts ExtractorOptions,
	logger *zap.Logger,
) *BuildGraphCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BuildGraphCommand{
		store:    store,
		open:     open,
		detector: detector,
		oracle:   oracle,
		blur:     blur,
		Spec:     spec,
		Options:  opts,
		logger:   logger.Named("build"),
	}
}

// Validate checks if the build is possible
func (c *BuildGraphCommand) Validate() error {
	if len(c.Spec.Nodes) == 0 {
		return &application.ValidationError{Field: "nodes", Message: "at least one node is required"}
	}
	return c.Options.Validate()
}

// Execute runs the build
func (c *BuildGraphCommand) Execute(ctx context.Context) (*BuildGraphResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	total := 0
	nodes := make([]domain.Node, 0, len(c.Spec.Nodes))
	for _, n := range c.Spec.Nodes {
		refs, err := c.record(ctx, n.References)
		if err != nil {
			return nil, fmt.Errorf("node %d references: %w", n.ID, err)
		}
		total += refs.Len()
		nodes = append(nodes, domain.Node{ID: n.ID, References: refs})
	}

	edges := make([]domain.Edge, 0, len(c.Spec.Edges))
	for _, e := range c.Spec.Edges {
		frames, err := c.record(ctx, e.Frames)
		if err != nil {
			return nil, fmt.Errorf("edge %d_%d: %w", e.Source, e.Dest, err)
		}
		if frames.Empty() {
			c.logger.Warn("edge has no keyframes and will not be tracked",
				zap.Int("source", int(e.Source)), zap.Int("dest", int(e.Dest)))
		}
		total += frames.Len()
		edges = append(edges, domain.Edge{Source: e.Source, Dest: e.Dest, KeyFrames: frames})
	}

	g, err := domain.NewGraph(nodes, edges)
	if err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	if err := c.store.SaveGraph(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to save graph: %w", err)
	}

	return &BuildGraphResult{
		Graph:     g,
		KeyFrames: total,
		Message:   fmt.Sprintf("Built graph: %d nodes, %d edges, %d keyframes", g.Len(), len(edges), total),
	}, nil
}

// record extracts the keyframes of one recording; an empty dir yields an
// empty sequence
func (c *BuildGraphCommand) record(ctx context.Context, dir string) (domain.KeyFrameSequence, error) {
	if dir == "" {
		return domain.KeyFrameSequence{}, nil
	}
	src, err := c.open(dir)
	if err != nil {
		return domain.KeyFrameSequence{}, err
	}
	defer src.Close()

	extract := NewExtractCommand(src, c.detector, c.oracle, c.blur, c.Options, c.logger)
	seq, stats, err := extract.ExtractSequence(ctx)
	if err != nil {
		return domain.KeyFrameSequence{}, err
	}
	c.logger.Debug("recording extracted",
		zap.String("dir", dir),
		zap.Int("read", stats.Read),
		zap.Int("keyframes", stats.Accepted))
	return seq, nil
}
