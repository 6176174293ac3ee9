package domain

// HypothesisState is the lifecycle state of a match hypothesis
type HypothesisState int

const (
	HypothesisActive HypothesisState = iota
	HypothesisEnded
	HypothesisPartial
)

// String returns the string representation of the state
func (s HypothesisState) String() string {
	switch s {
	case HypothesisActive:
		return "active"
	case HypothesisEnded:
		return "ended"
	case HypothesisPartial:
		return "partial"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible
func (s HypothesisState) Terminal() bool {
	return s == HypothesisEnded || s == HypothesisPartial
}

// MatchHypothesis tracks one (node, edge) pairing against the query stream
type MatchHypothesis struct {
	Node *Node
	Edge *Edge

	// Confidence gains on every hit and drops on every miss; it has no floor
	Confidence     float64
	LastQueryIndex int
	LastEdgeIndex  int // -1 until the first hit
	Window         int
	EdgeEnded      bool
	State          HypothesisState

	Hits   int
	Misses int
}

// NewMatchHypothesis seeds an active hypothesis starting at query index start
func NewMatchHypothesis(node *Node, edge *Edge, start, window int) *MatchHypothesis {
	return &MatchHypothesis{
		Node:           node,
		Edge:           edge,
		LastQueryIndex: start - 1,
		LastEdgeIndex:  -1,
		Window:         window,
		State:          HypothesisActive,
	}
}

// NextQueryIndex is the query keyframe this hypothesis consumes next
func (h *MatchHypothesis) NextQueryIndex() int {
	return h.LastQueryIndex + 1
}

// SearchRange returns the half-open range of edge keyframe positions
// compared against the next query keyframe: the Window positions following
// the last match, clipped to the edge length.
func (h *MatchHypothesis) SearchRange() (lo, hi int) {
	lo = h.LastEdgeIndex + 1
	hi = lo + h.Window
	if n := h.Edge.KeyFrames.Len(); hi > n {
		hi = n
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

// Progress is the fraction of the edge matched so far
func (h *MatchHypothesis) Progress() float64 {
	n := h.Edge.KeyFrames.Len()
	if n == 0 {
		return 0
	}
	return float64(h.LastEdgeIndex+1) / float64(n)
}
