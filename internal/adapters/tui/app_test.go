package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"toponav/internal/adapters/tui/views"
	"toponav/internal/domain"
)

type recordedMsgs []tea.Msg

func (r *recordedMsgs) send(msg tea.Msg) { *r = append(*r, msg) }

func TestProgress_Forwards(t *testing.T) {
	var got recordedMsgs
	p := &Progress{send: got.send}

	p.KeyFrameAccepted(domain.KeyFrame{Index: 4})
	p.HypothesisStepped(domain.MatchHypothesis{LastEdgeIndex: -1}, false)
	p.EdgeResolved(domain.Resolution{Full: true})

	assert.Equal(t, recordedMsgs{
		views.KeyFrameMsg{KeyFrame: domain.KeyFrame{Index: 4}},
		views.StepMsg{Hypothesis: domain.MatchHypothesis{LastEdgeIndex: -1}},
		views.ResolvedMsg{Resolution: domain.Resolution{Full: true}},
	}, got)
}

func TestApp_SwitchesViews(t *testing.T) {
	a := NewApp("recordings/query1", nil)
	assert.Contains(t, a.View(), "recordings/query1")

	a.Update(views.SwitchToHelpMsg{})
	assert.Contains(t, a.View(), "toponav Help")

	// run events still reach the monitor behind the help view
	a.Update(views.KeyFrameMsg{KeyFrame: domain.KeyFrame{Index: 0}})

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if assert.NotNil(t, cmd) {
		a.Update(cmd())
	}
	assert.Contains(t, a.View(), "1 keyframes")
}
