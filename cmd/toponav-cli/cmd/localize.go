package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"toponav/internal/adapters/filesystem"
)

var (
	localizeOffline bool
	localizeStart   []int
	localizeRecord  bool
	localizePace    time.Duration
)

var localizeCmd = &cobra.Command{
	Use:   "localize <frames-dir>",
	Short: "Localize a query recording against the graph",
	Long: `Follow a query recording along the graph edges and print the path.

By default extraction and tracking run concurrently, as they would on a live
camera; --pace replays the recording at capture rate. --offline extracts the
whole recording first. --start skips node ranking and starts from the given
nodes.

Examples:
  toponav-cli localize recordings/query1
  toponav-cli localize --pace 33ms --record recordings/query1
  toponav-cli localize --offline --start 0,6 recordings/query1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		a := GetApp()

		if cmd.Flags().Changed("offline") {
			a.Config.Localize.Streaming = !localizeOffline
		}
		if len(localizeStart) > 0 {
			a.Config.Localize.StartNodes = localizeStart
		}

		localize, src, err := a.Localize(ctx, args[0], localizeRecord)
		if err != nil {
			return err
		}
		defer src.Close()
		if dir, ok := src.(*filesystem.DirSource); ok {
			dir.Pace = localizePace
		}

		result, err := localize.Execute(ctx)
		if result != nil {
			fmt.Print(result.Path.Render())
			if result.RunID != "" {
				fmt.Printf("run %s\n", result.RunID)
			}
			if result.Track != nil && result.Track.OracleErrors != nil {
				fmt.Printf("%d comparisons failed\n", len(multierr.Errors(result.Track.OracleErrors)))
			}
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(localizeCmd)
	localizeCmd.Flags().BoolVar(&localizeOffline, "offline", false, "extract the whole recording before tracking")
	localizeCmd.Flags().IntSliceVar(&localizeStart, "start", nil, "start nodes, skipping node ranking")
	localizeCmd.Flags().BoolVar(&localizeRecord, "record", false, "store the query keyframes as a new run")
	localizeCmd.Flags().DurationVar(&localizePace, "pace", 0, "delay between frames when replaying")
}
