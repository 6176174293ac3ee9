package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"toponav/internal/application/commands"
	"toponav/internal/domain"
)

var overlapDirs bool

var overlapCmd = &cobra.Command{
	Use:   "overlap <first> <second>",
	Short: "Find stretches shared by two recordings",
	Long: `Compare two keyframe sequences and print the stretches they share,
for example two edges that run along the same corridor.

The arguments name stored edges (src_dst), or frame directories with --dirs.

Examples:
  toponav-cli overlap 0_1 2_3
  toponav-cli overlap --dirs recordings/a recordings/b`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a := GetApp()

		var seqs [2]domain.KeyFrameSequence
		if overlapDirs {
			for i, dir := range args {
				extract, src, err := a.Extract(dir)
				if err != nil {
					return err
				}
				seqs[i], _, err = extract.ExtractSequence(ctx)
				src.Close()
				if err != nil {
					return err
				}
			}
		} else {
			g, err := a.Store.LoadGraph(ctx)
			if err != nil {
				return err
			}
			for i, name := range args {
				e, err := findEdge(g, name)
				if err != nil {
					return err
				}
				seqs[i] = e.KeyFrames
			}
		}

		overlap := commands.NewOverlapCommand(a.Oracle, seqs[0], seqs[1], a.Logger)
		overlap.Options = a.Config.Overlap
		result, err := overlap.Execute(ctx)
		if err != nil {
			return err
		}

		if len(result.Segments) == 0 {
			fmt.Println("No shared stretch found")
			return nil
		}
		for _, s := range result.Segments {
			fmt.Printf("%s %d..%d <-> %s %d..%d\n",
				args[0], seqs[0].At(s.FirstStart).Index, seqs[0].At(s.FirstEnd).Index,
				args[1], seqs[1].At(s.SecondStart).Index, seqs[1].At(s.SecondEnd).Index)
		}
		return nil
	},
}

func findEdge(g *domain.Graph, name string) (*domain.Edge, error) {
	for _, e := range g.Edges() {
		if e.Name() == name {
			return e, nil
		}
	}
	return nil, fmt.Errorf("edge %s: %w", name, domain.ErrNotFound)
}

func init() {
	rootCmd.AddCommand(overlapCmd)
	overlapCmd.Flags().BoolVar(&overlapDirs, "dirs", false, "treat arguments as frame directories")
}
