package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"toponav/internal/application/commands"
	"toponav/internal/domain"
)

var (
	rankRun   string
	rankSeeds int
)

var rankCmd = &cobra.Command{
	Use:   "rank [frames-dir]",
	Short: "Rank graph nodes against the first keyframes of a recording",
	Long: `Rank the graph nodes by how many of their reference keyframes match the
first seed keyframes of a recording (or of a stored run with --run).

Examples:
  toponav-cli rank recordings/query1
  toponav-cli rank --run 1b4e28ba-2fa1-11d2-883f-0016d3cca427 --seeds 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a := GetApp()

		if rankRun == "" && len(args) == 0 {
			return fmt.Errorf("a frames directory or --run is required")
		}

		g, err := a.Store.LoadGraph(ctx)
		if err != nil {
			return err
		}

		var seq domain.KeyFrameSequence
		if rankRun != "" {
			seq, err = a.Store.LoadRun(ctx, rankRun)
		} else {
			extract, src, openErr := a.Extract(args[0])
			if openErr != nil {
				return openErr
			}
			defer src.Close()
			seq, _, err = extract.ExtractSequence(ctx)
		}
		if err != nil {
			return err
		}

		seeds := seq.Frames()
		if len(seeds) > rankSeeds {
			seeds = seeds[:rankSeeds]
		}

		rank := commands.NewRankNodesCommand(g, a.Oracle, seeds, a.Logger)
		rank.Threshold = a.Config.Localize.NodeThreshold
		result, err := rank.Execute(ctx)
		if err != nil {
			return err
		}

		if len(result.Scores) == 0 {
			fmt.Println("No matching nodes")
		}
		for i, s := range result.Scores {
			fmt.Printf("%d. node %d matches=%d score=%.3f\n", i+1, s.Node.ID, s.Matches, s.Total)
		}
		if result.Skipped != nil {
			fmt.Printf("skipped %d pairs\n", len(multierr.Errors(result.Skipped)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rankCmd.Flags().StringVar(&rankRun, "run", "", "rank a stored run instead of a recording")
	rankCmd.Flags().IntVar(&rankSeeds, "seeds", 3, "number of seed keyframes")
}
