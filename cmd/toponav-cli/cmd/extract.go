package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"toponav/internal/domain"
)

var extractSave bool

var extractCmd = &cobra.Command{
	Use:   "extract <frames-dir>",
	Short: "Extract distinct keyframes from a recording",
	Long: `Run the keyframe extractor over a directory of recorded frames and
print the accepted keyframes.

With --save the keyframes are stored as a new run.

Examples:
  toponav-cli extract recordings/query1
  toponav-cli extract --save recordings/query1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a := GetApp()

		extract, src, err := a.Extract(args[0])
		if err != nil {
			return err
		}
		defer src.Close()

		if extractSave {
			sink, err := a.Store.NewRun(ctx, args[0])
			if err != nil {
				return err
			}
			extract.Sink = sink
			fmt.Printf("run %s\n", sink.ID())
		}

		q := domain.NewQuerySequence()
		stats, err := extract.Execute(ctx, q)
		if err != nil {
			return err
		}

		for _, kf := range q.Snapshot().Frames() {
			fmt.Printf("keyframe %d keypoints=%d\n", kf.Index, kf.Keypoints)
		}
		fmt.Printf("read=%d evaluated=%d blurry=%d accepted=%d forced=%d skipped=%d\n",
			stats.Read, stats.Evaluated, stats.Blurry, stats.Accepted, stats.Forced, stats.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "store the keyframes as a new run")
}
