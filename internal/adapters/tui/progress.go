package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"toponav/internal/adapters/tui/views"
	"toponav/internal/domain"
)

// Progress forwards localization events to a running program
type Progress struct {
	send func(tea.Msg)
}

// NewProgress binds events to p
func NewProgress(p *tea.Program) *Progress {
	return &Progress{send: p.Send}
}

func (p *Progress) KeyFrameAccepted(kf domain.KeyFrame) {
	p.send(views.KeyFrameMsg{KeyFrame: kf})
}

func (p *Progress) HypothesisStepped(h domain.MatchHypothesis, hit bool) {
	p.send(views.StepMsg{Hypothesis: h, Hit: hit})
}

func (p *Progress) EdgeResolved(r domain.Resolution) {
	p.send(views.ResolvedMsg{Resolution: r})
}
