package views

import "toponav/internal/domain"

// KeyFrameMsg reports a query keyframe accepted by the extractor
type KeyFrameMsg struct {
	KeyFrame domain.KeyFrame
}

// StepMsg reports one tracker step of a hypothesis
type StepMsg struct {
	Hypothesis domain.MatchHypothesis
	Hit        bool
}

// ResolvedMsg reports an edge the tracker committed to
type ResolvedMsg struct {
	Resolution domain.Resolution
}

// DoneMsg ends the run. Path is authoritative over the resolutions seen so far.
type DoneMsg struct {
	Path  domain.MatchedPath
	RunID string
	Err   error
}

// SwitchToHelpMsg opens the help view
type SwitchToHelpMsg struct{}

// SwitchToMonitorMsg returns to the monitor view
type SwitchToMonitorMsg struct{}
