package views

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"toponav/internal/adapters/tui/styles"
	"toponav/internal/domain"
)

const barWidth = 20

// MonitorKeyMap defines key bindings for the monitor view
type MonitorKeyMap struct {
	Copy key.Binding
	Help key.Binding
	Quit key.Binding
}

var MonitorKeys = MonitorKeyMap{
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy path"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type hypothesisRow struct {
	h   domain.MatchHypothesis
	hit bool
}

// MonitorModel follows a localization run as it happens
type MonitorModel struct {
	ViewState

	source  string
	run     tea.Cmd
	spinner spinner.Model

	keyframes    int
	lastKeyFrame int
	rows         map[string]*hypothesisRow

	path  domain.MatchedPath
	runID string
	done  bool
	err   error

	// CopyText writes to the system clipboard; replaced in tests
	CopyText func(string) error
}

// NewMonitorModel creates a monitor for a run over source. run performs the
// localization and must return a DoneMsg.
func NewMonitorModel(source string, run tea.Cmd) *MonitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &MonitorModel{
		source:       source,
		run:          run,
		spinner:      s,
		lastKeyFrame: -1,
		rows:         make(map[string]*hypothesisRow),
		CopyText:     clipboard.WriteAll,
	}
}

// Init starts the spinner and the run
func (m *MonitorModel) Init() tea.Cmd {
	if m.run == nil {
		return m.spinner.Tick
	}
	return tea.Batch(m.spinner.Tick, m.run)
}

// Update handles messages for the monitor view
func (m *MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case KeyFrameMsg:
		m.keyframes++
		m.lastKeyFrame = msg.KeyFrame.Index
		return m, nil

	case StepMsg:
		m.rows[msg.Hypothesis.Edge.Name()] = &hypothesisRow{h: msg.Hypothesis, hit: msg.Hit}
		return m, nil

	case ResolvedMsg:
		m.path = append(m.path, msg.Resolution)
		// the tracker reseeds from the destination node
		clear(m.rows)
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		m.runID = msg.RunID
		if msg.Path != nil {
			m.path = msg.Path
		}
		if msg.Err != nil {
			m.SetMessage(msg.Err.Error(), true)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *MonitorModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, MonitorKeys.Quit):
		return m, tea.Quit

	case key.Matches(msg, MonitorKeys.Help):
		return m, func() tea.Msg {
			return SwitchToHelpMsg{}
		}

	case key.Matches(msg, MonitorKeys.Copy):
		if len(m.path) == 0 {
			m.SetMessage("Nothing to copy yet", true)
			return m, nil
		}
		if err := m.CopyText(m.path.Render()); err != nil {
			m.SetMessage(fmt.Sprintf("Copy failed: %v", err), true)
			return m, nil
		}
		m.SetMessage(fmt.Sprintf("Copied %d hops", len(m.path)), false)
	}
	return m, nil
}

// Path returns the hops resolved so far
func (m *MonitorModel) Path() domain.MatchedPath {
	return m.path
}

// Done reports whether the run has finished
func (m *MonitorModel) Done() bool {
	return m.done
}

// Err returns the error the run finished with
func (m *MonitorModel) Err() error {
	return m.err
}

// View renders the monitor
func (m *MonitorModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("toponav"))
	b.WriteString("\n")
	b.WriteString(styles.Subtitle.Render(m.source))
	b.WriteString("\n\n")

	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")

	b.WriteString(styles.SectionLabel.Render("Hypotheses"))
	b.WriteString("\n")
	b.WriteString(m.renderHypotheses())
	b.WriteString("\n")

	b.WriteString(styles.SectionLabel.Render("Path"))
	b.WriteString("\n")
	b.WriteString(m.renderPath())
	b.WriteString("\n")

	if msg := m.RenderMessage(); msg != "" {
		b.WriteString(msg)
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderHelpBar())

	return styles.App.Render(b.String())
}

func (m *MonitorModel) renderStatus() string {
	var status string
	switch {
	case !m.done:
		status = m.spinner.View() + " localizing"
	case m.err != nil:
		status = styles.ErrorMsg.Render("failed")
	default:
		status = styles.Success.Render("done")
	}

	kf := fmt.Sprintf("%d keyframes", m.keyframes)
	if m.lastKeyFrame >= 0 {
		kf += fmt.Sprintf(" (last frame %d)", m.lastKeyFrame)
	}
	line := status + "  " + styles.StatusText.Render(kf)
	if m.runID != "" {
		line += "  " + styles.StatusText.Render("run "+m.runID)
	}
	return line
}

func (m *MonitorModel) renderHypotheses() string {
	if len(m.rows) == 0 {
		return styles.MutedText.Render("  none") + "\n"
	}

	rows := make([]*hypothesisRow, 0, len(m.rows))
	for _, r := range m.rows {
		rows = append(rows, r)
	}
	slices.SortFunc(rows, func(a, b *hypothesisRow) int {
		if c := cmp.Compare(b.h.Confidence, a.h.Confidence); c != 0 {
			return c
		}
		return strings.Compare(a.h.Edge.Name(), b.h.Edge.Name())
	})

	var b strings.Builder
	for _, r := range rows {
		mark := "·"
		if r.hit {
			mark = "+"
		}
		state := r.h.State.String()
		fmt.Fprintf(&b, "  %s %-10s %s %6.1f %s %d/%d\n",
			mark,
			r.h.Edge.Name(),
			styles.StateStyle(state).Render(padRight(state, 8)),
			r.h.Confidence,
			progressBar(r.h.Progress()),
			r.h.Hits,
			r.h.Misses,
		)
	}
	return b.String()
}

func (m *MonitorModel) renderPath() string {
	if len(m.path) == 0 {
		return styles.MutedText.Render("  no edge resolved yet") + "\n"
	}
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(m.path.Render(), "\n"), "\n") {
		style := styles.PathHop
		if strings.Contains(line, "partial") {
			style = styles.PathPartial
		}
		b.WriteString("  " + style.Render(line) + "\n")
	}
	return b.String()
}

func (m *MonitorModel) renderHelpBar() string {
	keys := []key.Binding{MonitorKeys.Copy, MonitorKeys.Help, MonitorKeys.Quit}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		h := k.Help()
		parts = append(parts, styles.HelpKey.Render(h.Key)+" "+styles.HelpDesc.Render(h.Desc))
	}
	return strings.Join(parts, styles.HelpSeparator.String())
}

func progressBar(p float64) string {
	filled := int(p * barWidth)
	filled = min(max(filled, 0), barWidth)
	return styles.HypBar.Render(strings.Repeat("█", filled)) +
		styles.HypBarRest.Render(strings.Repeat("░", barWidth-filled))
}
