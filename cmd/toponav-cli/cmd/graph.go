package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [build|nodes|edges]",
	Short: "Build and inspect the floor-map graph",
	Long: `Build the floor-map graph from a manifest of recorded frames, or list
the nodes and edges of the stored graph.

Examples:
  toponav-cli graph build floor.yaml
  toponav-cli graph nodes
  toponav-cli graph edges`,
}

var graphBuildCmd = &cobra.Command{
	Use:   "build <manifest>",
	Short: "Extract keyframes for every recording in a manifest and save the graph",
	Long: `Build reads a YAML manifest:

  nodes:
    - id: 0
      references: nodes/0
  edges:
    - source: 0
      dest: 1
      frames: edges/0_1

Every directory is run through the keyframe extractor, then the graph is
validated and replaces the stored one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		result, err := GetApp().Build(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var graphNodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List graph nodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		g, err := GetApp().Store.LoadGraph(ctx)
		if err != nil {
			return err
		}

		for _, n := range g.Nodes() {
			fmt.Printf("%d references=%d edges=%d\n", n.ID, n.References.Len(), len(n.Links))
		}
		return nil
	},
}

var graphEdgesCmd = &cobra.Command{
	Use:   "edges",
	Short: "List graph edges",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		g, err := GetApp().Store.LoadGraph(ctx)
		if err != nil {
			return err
		}

		for _, e := range g.Edges() {
			status := fmt.Sprintf("%d keyframes", e.KeyFrames.Len())
			if !e.Traceable() {
				status = "untraceable"
			}
			fmt.Printf("edge %s %s\n", e.Name(), status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.AddCommand(graphBuildCmd)
	graphCmd.AddCommand(graphNodesCmd)
	graphCmd.AddCommand(graphEdgesCmd)
}
