package ports

import "toponav/internal/domain"

// Progress observes a localization run. Implementations must not block;
// they are called from the extractor and tracker goroutines.
type Progress interface {
	KeyFrameAccepted(kf domain.KeyFrame)
	HypothesisStepped(h domain.MatchHypothesis, hit bool)
	EdgeResolved(r domain.Resolution)
}

// NopProgress discards all events
type NopProgress struct{}

func (NopProgress) KeyFrameAccepted(domain.KeyFrame)              {}
func (NopProgress) HypothesisStepped(domain.MatchHypothesis, bool) {}
func (NopProgress) EdgeResolved(domain.Resolution)                 {}
