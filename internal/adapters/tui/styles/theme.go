package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	White     = lipgloss.Color("#FFFFFF")
	Black     = lipgloss.Color("#000000")

	// Base styles
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Hypothesis styles
	HypActive = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60A5FA")) // Blue

	HypEnded = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	HypPartial = lipgloss.NewStyle().
			Foreground(Warning)

	HypBar     = lipgloss.NewStyle().Foreground(Primary)
	HypBarRest = lipgloss.NewStyle().Foreground(Muted)

	// Path styles
	PathHop = lipgloss.NewStyle().
		Foreground(Secondary)

	PathPartial = lipgloss.NewStyle().
			Foreground(Warning).
			Italic(true)

	// Status bar
	StatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F2937")).
			Foreground(White).
			Padding(0, 1)

	StatusKey = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Padding(0, 1).
			MarginRight(1)

	StatusText = lipgloss.NewStyle().
			Foreground(Muted)

	SectionLabel = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// Help styles
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)

	HelpSeparator = lipgloss.NewStyle().
			Foreground(Muted).
			SetString(" • ")

	// Message styles
	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	// Muted text style (for using Muted color as a style)
	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

// StateStyle returns the style for a hypothesis state name
func StateStyle(state string) lipgloss.Style {
	switch state {
	case "ended":
		return HypEnded
	case "partial":
		return HypPartial
	default:
		return HypActive
	}
}
