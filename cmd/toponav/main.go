package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"toponav/internal/adapters/filesystem"
	"toponav/internal/adapters/tui"
	"toponav/internal/adapters/tui/views"
	"toponav/internal/app"
	"toponav/internal/config"
	"toponav/internal/logging"
)

const logFile = "~/.local/state/toponav/toponav.log"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "path to a YAML config file")
	dbFlag := flag.String("db", "", "path to the graph database")
	record := flag.Bool("record", false, "store the query keyframes as a new run")
	pace := flag.Duration("pace", 33*time.Millisecond, "delay between frames when replaying")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: toponav [flags] <frames-dir>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	dir := flag.Arg(0)

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	if *dbFlag != "" {
		cfg.DB = *dbFlag
	}

	// The terminal belongs to the TUI; logs go to a file
	logPath := filesystem.ExpandPath(logFile)
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return err
	}
	logger, err := logging.NewFile(cfg.LogLevel, logPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	localize, src, err := a.Localize(ctx, dir, *record)
	if err != nil {
		return err
	}
	defer src.Close()
	if ds, ok := src.(*filesystem.DirSource); ok {
		ds.Pace = *pace
	}

	model := tui.NewApp(dir, func() tea.Msg {
		result, err := localize.Execute(ctx)
		msg := views.DoneMsg{Err: err}
		if result != nil {
			msg.Path = result.Path
			msg.RunID = result.RunID
		}
		return msg
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	localize.Progress = tui.NewProgress(p)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	cancel()

	if path := model.Path(); len(path) > 0 {
		fmt.Print(path.Render())
	}
	if err := model.Err(); err != nil {
		logger.Warn("localization finished with error", zap.Error(err))
		return err
	}
	return nil
}
