package domain

import (
	"fmt"
	"strings"
)

// Resolution is a hypothesis the tracker committed to
type Resolution struct {
	Hypothesis MatchHypothesis

	// Full is set when the whole edge was traversed, otherwise the query
	// ran out first and this is a best-effort tail.
	Full bool
	// Stalled is set when the tail was resolved because no new keyframe
	// arrived within the wait timeout.
	Stalled bool

	StartQueryIndex int
	EndQueryIndex   int
}

// Source returns the source node identity of the resolved edge
func (r Resolution) Source() NodeID { return r.Hypothesis.Edge.Source }

// Dest returns the destination node identity of the resolved edge
func (r Resolution) Dest() NodeID { return r.Hypothesis.Edge.Dest }

// LastEdgeIndex returns the last matched edge keyframe position (-1 if none)
func (r Resolution) LastEdgeIndex() int { return r.Hypothesis.LastEdgeIndex }

// LastEdgeKeyFrame returns the last matched edge keyframe, if any
func (r Resolution) LastEdgeKeyFrame() (KeyFrame, bool) {
	j := r.Hypothesis.LastEdgeIndex
	if j < 0 || j >= r.Hypothesis.Edge.KeyFrames.Len() {
		return KeyFrame{}, false
	}
	return r.Hypothesis.Edge.KeyFrames.At(j), true
}

// MatchedPath is the ordered list of resolved hops
type MatchedPath []Resolution

// Current returns the last resolution, which locates the observer
func (p MatchedPath) Current() (Resolution, bool) {
	if len(p) == 0 {
		return Resolution{}, false
	}
	return p[len(p)-1], true
}

// Render prints one "edge <src>_<dst>" line per hop. A partial tail also
// reports how far along the edge it was matched.
func (p MatchedPath) Render() string {
	var sb strings.Builder
	for _, r := range p {
		fmt.Fprintf(&sb, "edge %s", r.Hypothesis.Edge.Name())
		if !r.Full {
			if kf, ok := r.LastEdgeKeyFrame(); ok {
				fmt.Fprintf(&sb, " (partial up to keyframe %d)", kf.Index)
			} else {
				sb.WriteString(" (partial, no keyframe matched)")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
