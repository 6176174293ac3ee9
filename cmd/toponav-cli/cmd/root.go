package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"toponav/internal/app"
	"toponav/internal/config"
	"toponav/internal/logging"
)

var (
	configPath string
	dbPath     string
	logLevel   string
	jsonLogs   bool

	cfg    config.Config
	logger *zap.Logger
	deps   *app.App
)

var rootCmd = &cobra.Command{
	Use:   "toponav-cli",
	Short: "CLI for topological visual localization",
	Long: `toponav-cli builds floor-map graphs from recorded frames and localizes
query recordings against them.

A graph is a set of landmark nodes joined by edges, each edge holding the
keyframes recorded while walking it. Localization follows a query recording
along the edges and reports the path walked.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			cfg.DB = dbPath
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("json-logs") {
			cfg.LogJSON = jsonLogs
		}

		logger, err = logging.New(cfg.LogLevel, cfg.LogJSON)
		if err != nil {
			return err
		}

		deps, err = app.New(cfg, logger)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if deps != nil {
			deps.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default $"+config.EnvConfig+")")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DBPath(), "path to the graph database")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "log JSON lines instead of console text")
}

// GetApp returns the initialized adapters
func GetApp() *app.App {
	return deps
}
