package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs [list|show]",
	Short: "Inspect stored query runs",
	Long: `Query keyframes saved with extract --save or localize --record are
stored per run.

Examples:
  toponav-cli runs list
  toponav-cli runs show <run-id>`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		runs, err := GetApp().Store.ListRuns(ctx)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs stored")
			return nil
		}
		for _, r := range runs {
			fmt.Printf("%s %s keyframes=%d %s\n", r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.KeyFrames, r.Source)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the keyframes of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		seq, err := GetApp().Store.LoadRun(ctx, args[0])
		if err != nil {
			return err
		}

		for _, kf := range seq.Frames() {
			fmt.Printf("keyframe %d keypoints=%d descriptors=%d\n", kf.Index, kf.Keypoints, len(kf.Descriptors))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
}
