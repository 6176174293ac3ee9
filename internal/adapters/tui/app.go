package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"toponav/internal/adapters/tui/views"
	"toponav/internal/domain"
)

// ViewState represents the current view
type ViewState int

const (
	ViewMonitor ViewState = iota
	ViewHelp
)

// App is the main TUI application model
type App struct {
	state   ViewState
	monitor *views.MonitorModel
	help    *views.HelpModel

	width  int
	height int
}

// NewApp creates a monitor for a localization over source. run performs the
// localization and returns a views.DoneMsg.
func NewApp(source string, run tea.Cmd) *App {
	return &App{
		state:   ViewMonitor,
		monitor: views.NewMonitorModel(source, run),
		help:    views.NewHelpModel(),
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.monitor.Init()
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.monitor.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	case views.SwitchToMonitorMsg:
		a.state = ViewMonitor
		return a, nil

	case tea.KeyMsg:
		// Keys go to the active view only
		if a.state == ViewHelp {
			_, cmd := a.help.Update(msg)
			return a, cmd
		}
		_, cmd := a.monitor.Update(msg)
		return a, cmd
	}

	// Run events reach the monitor whichever view is shown
	_, cmd := a.monitor.Update(msg)
	return a, cmd
}

// View renders the current view
func (a *App) View() string {
	if a.state == ViewHelp {
		return a.help.View()
	}
	return a.monitor.View()
}

// Path returns the hops resolved so far
func (a *App) Path() domain.MatchedPath {
	return a.monitor.Path()
}

// Err returns the error the run finished with, if any
func (a *App) Err() error {
	return a.monitor.Err()
}
