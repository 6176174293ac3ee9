// Package app wires configuration to adapters for the toponav binaries.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"toponav/internal/adapters/features"
	"toponav/internal/adapters/filesystem"
	"toponav/internal/adapters/sqlite"
	"toponav/internal/application/commands"
	"toponav/internal/config"
	"toponav/internal/ports"
)

// App holds the adapters shared by every command
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Store    *sqlite.Store
	Detector *features.Detector
	Oracle   *features.HammingMatcher
	Blur     *features.LaplacianBlur
}

// New opens the store and builds the feature adapters. The logger is owned
// by the caller.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	oracle, err := features.NewHammingMatcher(cfg.Features.Ratio)
	if err != nil {
		return nil, fmt.Errorf("invalid matcher config: %w", err)
	}
	oracle.CrossCheck = cfg.Features.CrossCheck
	oracle.MaxDistance = cfg.Features.MaxDistance

	detector := features.NewDetector(cfg.Features.MaxKeypoints)
	detector.Width = cfg.Features.Width

	store, err := sqlite.Open(filesystem.ExpandPath(cfg.DB))
	if err != nil {
		return nil, err
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Detector: detector,
		Oracle:   oracle,
		Blur:     &features.LaplacianBlur{Threshold: cfg.Features.BlurThreshold},
	}, nil
}

// Close releases the store
func (a *App) Close() error {
	return a.Store.Close()
}

// OpenSource opens a directory of recorded frames
func (a *App) OpenSource(dir string) (ports.FrameSource, error) {
	return filesystem.NewDirSource(dir)
}

// Extract returns an extractor over the frames in dir
func (a *App) Extract(dir string) (*commands.ExtractCommand, ports.FrameSource, error) {
	src, err := a.OpenSource(dir)
	if err != nil {
		return nil, nil, err
	}
	return commands.NewExtractCommand(src, a.Detector, a.Oracle, a.Blur, a.Config.Extractor, a.Logger), src, nil
}

// Localize prepares a localization run over the frames in dir. When record
// is set the accepted query keyframes are saved as a new run.
func (a *App) Localize(ctx context.Context, dir string, record bool) (*commands.LocalizeCommand, ports.FrameSource, error) {
	g, err := a.Store.LoadGraph(ctx)
	if err != nil {
		return nil, nil, err
	}

	extract, src, err := a.Extract(dir)
	if err != nil {
		return nil, nil, err
	}

	cmd := commands.NewLocalizeCommand(g, a.Oracle, extract, a.Config.Localize, a.Config.Tracker, a.Logger)
	if record {
		sink, err := a.Store.NewRun(ctx, dir)
		if err != nil {
			src.Close()
			return nil, nil, err
		}
		extract.Sink = sink
		cmd.RunID = sink.ID()
	}
	return cmd, src, nil
}

// GraphSpec converts a manifest into the builder's graph spec
func GraphSpec(m *filesystem.Manifest) commands.GraphSpec {
	var spec commands.GraphSpec
	for _, n := range m.Nodes {
		spec.Nodes = append(spec.Nodes, commands.NodeSpec{ID: n.ID, References: n.References})
	}
	for _, e := range m.Edges {
		spec.Edges = append(spec.Edges, commands.EdgeSpec{Source: e.Source, Dest: e.Dest, Frames: e.Frames})
	}
	return spec
}

// Build extracts and saves the graph described by the manifest at path
func (a *App) Build(ctx context.Context, manifestPath string) (*commands.BuildGraphResult, error) {
	m, err := filesystem.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	cmd := commands.NewBuildGraphCommand(a.Store, a.OpenSource, a.Detector, a.Oracle, a.Blur, GraphSpec(m), a.Config.Extractor, a.Logger)
	return cmd.Execute(ctx)
}
